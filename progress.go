package stk

import "github.com/meigma/stk/internal/stktype"

// Re-export progress types.
type (
	// ProgressEvent represents a progress update during archive creation.
	ProgressEvent = stktype.ProgressEvent

	// ProgressStage identifies the current phase of an operation.
	ProgressStage = stktype.ProgressStage

	// ProgressFunc receives progress updates during operations.
	ProgressFunc = stktype.ProgressFunc
)

// Re-export progress stage constants.
const (
	StageCataloging      = stktype.StageCataloging
	StageComparing       = stktype.StageComparing
	StageCompressing     = stktype.StageCompressing
	StageStoring         = stktype.StageStoring
	StageRewritingHeader = stktype.StageRewritingHeader
	StageVerifying       = stktype.StageVerifying
)
