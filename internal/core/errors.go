package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is wrapped by every ValidationError so callers can test for
// rejected input with errors.Is.
var ErrValidation = errors.New("validation failed")

// ErrScheduleConflict reports that a proposed interval now overlaps an event
// or an active time block.
var ErrScheduleConflict = errors.New("schedule conflict")

// ErrTaskNotFound reports a task ID missing from the snapshot.
var ErrTaskNotFound = errors.New("task not found")

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// EngineError is returned when scoring or optimization hits an unexpected
// internal fault. It carries enough of the input to reproduce the failure.
type EngineError struct {
	Op           string
	SnapshotHash string
	TaskIDs      []string
	Err          error
}

func (e *EngineError) Error() string {
	ids := strings.Join(e.TaskIDs, ",")
	if len(ids) > 200 {
		ids = ids[:200] + "..."
	}
	return fmt.Sprintf("%s failed (snapshot %s, tasks [%s]): %v", e.Op, e.SnapshotHash, ids, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// SnapshotHash returns a stable SHA-256 digest of the snapshot contents.
func SnapshotHash(s *Snapshot) string {
	if s == nil {
		return "none"
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "unhashable"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// guard converts a panic inside fn into an EngineError for op.
func guard(op string, snap *Snapshot, ids []string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &EngineError{Op: op, SnapshotHash: SnapshotHash(snap), TaskIDs: ids, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if ferr := fn(); ferr != nil {
		if errors.Is(ferr, ErrValidation) || errors.Is(ferr, ErrTaskNotFound) {
			return ferr
		}
		return &EngineError{Op: op, SnapshotHash: SnapshotHash(snap), TaskIDs: ids, Err: ferr}
	}
	return nil
}
