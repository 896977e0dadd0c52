package constants

// Stage is the per-request pipeline state.
type Stage string

const (
	StagePending       Stage = "PENDING"
	StagePreprocessing Stage = "PREPROCESSING"
	StageRecognizing   Stage = "RECOGNIZING"
	StageClassifying   Stage = "CLASSIFYING"
	StageExtracting    Stage = "EXTRACTING"
	StageDone          Stage = "DONE"
	StageFailed        Stage = "FAILED"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageFailed
}
