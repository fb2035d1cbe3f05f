package reconcile

import (
	"errors"
	"fmt"
)

// ErrInvalidInput matches every InputError with errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// InputError names a transaction or ledger entry the matcher cannot use.
type InputError struct {
	Kind   string // "transaction" or "ledger entry"
	Ref    string // source reference or entry ID
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s %s: %s", e.Kind, e.Ref, e.Reason)
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}
