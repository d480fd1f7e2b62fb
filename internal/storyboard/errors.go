package storyboard

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrShotIndex          = errors.New("shot index out of range")
	ErrAnalysisInProgress = errors.New("analysis already in progress")
	ErrSweepInProgress    = errors.New("render sweep already in progress")
	ErrListReplaced       = errors.New("shot list was replaced")
)

// entityNotFound is what the image endpoint reports when the selected key
// cannot reach the model, typically a key without billing.
const entityNotFound = "Requested entity was not found"

// ScriptAnalysisError reports a failed analysis: the request failed, the
// payload was empty or unparsable, or it held no shots.
type ScriptAnalysisError struct {
	Err error
}

func (e *ScriptAnalysisError) Error() string {
	return "analyze script: " + e.Err.Error()
}

func (e *ScriptAnalysisError) Unwrap() error { return e.Err }

type RenderError struct {
	Index      int
	ShotNumber int
	Err        error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render shot %d: %v", e.ShotNumber, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// IsEntityNotFound reports whether err means the credential should be
// selected again.
func IsEntityNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), entityNotFound)
}
