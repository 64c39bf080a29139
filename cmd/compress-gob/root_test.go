package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/stk"
	"github.com/meigma/stk/internal/testutil"
)

func executeArgs(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func fixture(t *testing.T, rows ...testutil.Row) (dir, conf string) {
	t.Helper()
	dir = t.TempDir()
	testutil.WriteFiles(t, dir, map[string][]byte{
		"INTRO.TOT": []byte(strings.Repeat("intro script ", 50)),
		"LOGO.CMP":  []byte("short raw"),
	})
	if len(rows) == 0 {
		rows = []testutil.Row{{Name: "INTRO.TOT", Flag: "1"}, {Name: "LOGO.CMP", Flag: "0"}}
	}
	return dir, testutil.WriteManifest(t, dir, "GOB.STK", rows...)
}

func TestRunWritesArchive(t *testing.T) {
	t.Parallel()

	dir, conf := fixture(t)
	output, err := executeArgs(t, "--verify", conf)
	require.NoError(t, err)
	assert.Contains(t, output, "2 entries (1 compressed, 1 stored, 0 identical)")
	assert.FileExists(t, filepath.Join(dir, "GOB.STK"))
}

func TestRunOutputFlag(t *testing.T) {
	t.Parallel()

	_, conf := fixture(t)
	target := filepath.Join(t.TempDir(), "custom.stk")
	_, err := executeArgs(t, "-o", target, "-j", "2", conf)
	require.NoError(t, err)

	f, err := os.Open(target)
	require.NoError(t, err)
	defer f.Close()
	records, err := stk.ReadHeader(f)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "INTRO.TOT", records[0].Name)
	assert.Equal(t, byte(1), records[0].Flag)
}

func TestRunForceFromEnvironment(t *testing.T) {
	t.Setenv("COMPRESS_GOB_FORCE", "true")

	_, conf := fixture(t, testutil.Row{Name: "INTRO.TOT", Flag: "0"})
	output, err := executeArgs(t, conf)
	require.NoError(t, err)
	assert.Contains(t, output, "1 entries (1 compressed, 0 stored, 0 identical)")
}

func TestRunConfigError(t *testing.T) {
	t.Parallel()

	_, conf := fixture(t, testutil.Row{Name: "INTRO.TOT", Flag: "1"}, testutil.Row{Name: "INTRO.TOT", Flag: "1"})
	_, err := executeArgs(t, conf)
	require.Error(t, err)
	assert.ErrorIs(t, err, stk.ErrDuplicateName)
	assert.Equal(t, exitConfigError, exitCode(err))
}

func TestRunRequiresConfFile(t *testing.T) {
	t.Parallel()

	_, err := executeArgs(t)
	require.Error(t, err)
	assert.Equal(t, exitFailure, exitCode(err))
}
