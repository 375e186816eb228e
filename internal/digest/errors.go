package digest

import (
	"errors"
	"fmt"
)

// Stage names a step of a digest run.
type Stage string

const (
	StageFetch      Stage = "fetch"
	StageEnrich     Stage = "enrich"
	StageRender     Stage = "render"
	StageRecipients Stage = "recipients"
	StageCalendar   Stage = "calendar"
)

var (
	// ErrProviderQuery marks failures talking to the events provider,
	// including malformed payloads.
	ErrProviderQuery = errors.New("events provider query failed")
	// ErrConflict is returned under ConflictError when sessions of one group
	// disagree on their image or description.
	ErrConflict = errors.New("conflicting group values")
)

// StageError reports which stage of a run failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage recorded in err, if any.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
