package merge

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedConfiguration is returned for options that are recognised but not implemented
	ErrUnsupportedConfiguration = errors.New("unsupported configuration")

	errLengthMismatch  = errors.New("alignment length does not match the assembly")
	errMissingSequence = errors.New("donor sequence missing or changed")
)

// InvariantViolationError is fatal: the registry and the alignment stream disagree
type InvariantViolationError struct {
	Op        string
	Reference string
	Actual    string
	Donors    []string
	Err       error
}

func (e *InvariantViolationError) Error() string {
	msg := fmt.Sprintf("%s: reference %s", e.Op, e.Reference)
	if e.Actual != "" && e.Actual != e.Reference {
		msg += " (actual " + e.Actual + ")"
	}
	if len(e.Donors) > 0 {
		msg += ", donors " + strings.Join(e.Donors, ",")
	}
	return msg + ": " + e.Err.Error()
}

func (e *InvariantViolationError) Unwrap() error {
	return e.Err
}

func violation(op, ref, actual string, err error, donors ...string) error {
	return &InvariantViolationError{Op: op, Reference: ref, Actual: actual, Donors: donors, Err: err}
}
