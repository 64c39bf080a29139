package sizing

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTest = errors.New("overflow")

func TestToUint32(t *testing.T) {
	t.Parallel()

	v, err := ToUint32(math.MaxUint32, errTest)
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), v)

	_, err = ToUint32(math.MaxUint32+1, errTest)
	assert.ErrorIs(t, err, errTest)

	_, err = ToUint32(-1, errTest)
	assert.ErrorIs(t, err, errTest)
}

func TestToUint16(t *testing.T) {
	t.Parallel()

	v, err := ToUint16(math.MaxUint16, errTest)
	require.NoError(t, err)
	assert.Equal(t, uint16(math.MaxUint16), v)

	_, err = ToUint16(math.MaxUint16+1, errTest)
	assert.ErrorIs(t, err, errTest)
}

func TestAddUint32(t *testing.T) {
	t.Parallel()

	sum, ok := AddUint32(1, 2)
	assert.True(t, ok)
	assert.Equal(t, uint32(3), sum)

	_, ok = AddUint32(math.MaxUint32, 1)
	assert.False(t, ok)
}

func TestReadAllWithLimit(t *testing.T) {
	t.Parallel()

	data, err := ReadAllWithLimit(strings.NewReader("12345"), 5, errTest)
	require.NoError(t, err)
	assert.Equal(t, []byte("12345"), data)

	_, err = ReadAllWithLimit(strings.NewReader("123456"), 5, errTest)
	assert.ErrorIs(t, err, errTest)
}
