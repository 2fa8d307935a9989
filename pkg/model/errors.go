package model

import (
	"errors"
	"fmt"
	"strings"

	herrors "github.com/matzehuels/hermes/pkg/errors"
)

// Sentinels matched through errors.Is by the typed errors below.
var (
	ErrPathSyntax   = errors.New("path syntax error")
	ErrPathNotFound = errors.New("path not found")
	ErrMerge        = errors.New("merge conflict")
)

// PathSyntaxError reports a malformed path expression.
type PathSyntaxError struct {
	Input  string
	Offset int
	Reason string
}

func syntaxError(input string, offset int, reason string) *PathSyntaxError {
	return &PathSyntaxError{Input: input, Offset: offset, Reason: reason}
}

func (e *PathSyntaxError) Error() string {
	return fmt.Sprintf("invalid path %q at offset %d: %s", e.Input, e.Offset, e.Reason)
}

func (e *PathSyntaxError) Is(target error) bool { return target == ErrPathSyntax }

// Code returns INVALID_PATH.
func (e *PathSyntaxError) Code() herrors.Code { return herrors.ErrCodeInvalidPath }

// PathNotFoundError reports that a path does not resolve in a context.
// Missing is the shortest prefix of Path that is absent.
type PathNotFoundError struct {
	Path    Path
	Missing Path
}

func (e *PathNotFoundError) Error() string {
	if e.Missing.Equal(e.Path) {
		return fmt.Sprintf("path not found: %s", e.Path)
	}
	return fmt.Sprintf("path not found: %s (missing %s)", e.Path, e.Missing)
}

func (e *PathNotFoundError) Is(target error) bool { return target == ErrPathNotFound }

// Code returns PATH_NOT_FOUND.
func (e *PathNotFoundError) Code() herrors.Code { return herrors.ErrCodePathNotFound }

// MergeError reports that one harvester wrote different values to the same
// path under its own tag. Value is the newest write, Conflicting holds the
// earlier writes that disagree with it.
type MergeError struct {
	Path        Path
	Tag         string
	Value       *Value
	Conflicting []*Value
}

func (e *MergeError) Error() string {
	vals := make([]string, len(e.Conflicting))
	for i, v := range e.Conflicting {
		vals[i] = v.String()
	}
	return fmt.Sprintf("conflicting values for %s from %q: %s vs %s",
		e.Path, e.Tag, e.Value, strings.Join(vals, ", "))
}

func (e *MergeError) Is(target error) bool { return target == ErrMerge }

// Code returns MERGE_CONFLICT.
func (e *MergeError) Code() herrors.Code { return herrors.ErrCodeMergeConflict }

// MergeFailure pairs an error with the plugin whose output caused it.
type MergeFailure struct {
	Source string
	Err    error
}

func (f MergeFailure) Error() string { return f.Source + ": " + f.Err.Error() }

func (f MergeFailure) Unwrap() error { return f.Err }
