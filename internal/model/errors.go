package model

import "fmt"

// EmptyInputError reports that no sentence-bearing content remained after preprocessing
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string {
	return "empty input: no analyzable sentences"
}

// InputTooLargeError reports text beyond the configured character bound
type InputTooLargeError struct {
	Size  int // Characters submitted
	Limit int
}

func (e *InputTooLargeError) Error() string {
	return fmt.Sprintf("input too large: %d characters (limit %d)", e.Size, e.Limit)
}

// SchemaMismatchError reports a feature vector built under a different schema than the model expects
type SchemaMismatchError struct {
	Got  int
	Want int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("feature schema mismatch: vector v%d, model expects v%d", e.Got, e.Want)
}

// ModelLoadError reports a missing, corrupt or incompatible model artifact
type ModelLoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ModelLoadError) Error() string {
	msg := "load model"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

// AnalysisError ties a failure to the article it happened on
type AnalysisError struct {
	ArticleID string
	Err       error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyze article %s: %v", e.ArticleID, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}
