package stktype

// ProgressEvent represents a progress update during archive creation.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Name is the entry currently being processed, if applicable.
	Name string

	// BytesDone is the number of archive bytes written so far.
	BytesDone uint64

	// EntriesDone is the number of entries completed.
	EntriesDone int

	// EntriesTotal is the total number of entries.
	// Zero indicates the total is unknown (e.g., while cataloging).
	EntriesTotal int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages for archive creation.
const (
	// StageCataloging indicates source files are being probed.
	StageCataloging ProgressStage = iota

	// StageComparing indicates an entry is being compared with earlier ones.
	StageComparing

	// StageCompressing indicates an entry is being compressed and written.
	StageCompressing

	// StageStoring indicates an entry is being written verbatim.
	StageStoring

	// StageRewritingHeader indicates the final header is being written.
	StageRewritingHeader

	// StageVerifying indicates the written archive is being checked.
	StageVerifying
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageCataloging:
		return "cataloging"
	case StageComparing:
		return "comparing"
	case StageCompressing:
		return "compressing"
	case StageStoring:
		return "storing"
	case StageRewritingHeader:
		return "rewriting header"
	case StageVerifying:
		return "verifying"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during operations.
type ProgressFunc func(ProgressEvent)
