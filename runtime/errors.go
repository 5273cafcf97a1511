package runtime

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProgram          = errors.New("attempt to load a program that does not exist")
	ErrBlockhashNotFound       = errors.New("blockhash not found")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrInsufficientFundsForFee = errors.New("insufficient funds for fee")
	ErrAccountInUse            = errors.New("account already in use")
	ErrMissingSignature        = errors.New("missing required signature")
	ErrAccountNotWritable      = errors.New("account is not writable")
	ErrInvalidInstructionData  = errors.New("invalid instruction data")
	ErrInvalidAccountIndex     = errors.New("account index out of range")
	ErrInvalidAccountOwner     = errors.New("invalid account owner")
	ErrNotRentExempt           = errors.New("account would not be rent exempt")
	ErrCallDepthExceeded       = errors.New("cross-program invocation call depth exceeded")
	ErrPrivilegeEscalation     = errors.New("cross-program invocation privilege escalation")
	ErrDataTooLarge            = errors.New("requested account data length exceeds maximum")
)

// InstructionError wraps a processor failure with the index of the
// instruction that produced it.
type InstructionError struct {
	Index int
	Err   error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("error processing instruction %d: %v", e.Index, e.Err)
}

func (e *InstructionError) Unwrap() error { return e.Err }
