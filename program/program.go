// Package program implements the arcium encrypted compute program: its
// on-chain account state, its instruction encoding, and the native
// processor executed by the runtime.
package program

import (
	"errors"

	"github.com/arcium-labs/encrypted-compute/solana"
)

const ProgramName = "arcium_encrypted_compute"

// ProgramID is the fixed address the program is deployed at.
var ProgramID = solana.MustParsePubkey("AXHva4WrMxvChPiSVj9tQ6xyVyaFid5RvfysaHuXFL7g")

// MaxDataHashLen bounds the stored content fingerprint.
const MaxDataHashLen = 256

var (
	ErrInvalidProgram           = errors.New("invalid program id")
	ErrInvalidInstructionData   = errors.New("unexpected instruction data")
	ErrInvalidAccountData       = errors.New("unexpected account data")
	ErrAlreadyInitialized       = errors.New("encrypted compute account already initialized")
	ErrMissingRequiredSignature = errors.New("missing required signature")
	ErrDataHashTooLong          = errors.New("data hash exceeds maximum length")
)
