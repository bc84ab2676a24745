package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

// Pipeline stages, in execution order
const (
	StageFetch      = "fetch"
	StageCorpus     = "corpus"
	StageGeneration = "generation"
	StageRendering  = "rendering"
)

// StageError names the stage an analysis failed in
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Stage returns the failed stage of err, or "" when err is not a StageError
func Stage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
