package solana

import (
	"errors"
	"fmt"

	"github.com/hdevalence/ed25519consensus"
)

var ErrSignatureFailure = errors.New("signature verification failure")

// VerifySignatures checks that a parsed transaction carries exactly the
// number of signatures its header requires and that each one verifies
// against the message bytes under the corresponding account key.
func (p *ParsedTransaction) VerifySignatures() error {
	required := int(p.Header.NumRequiredSignatures)
	if required == 0 {
		return fmt.Errorf("%w: no required signatures", ErrSignatureFailure)
	}
	if len(p.Signatures) != required {
		return fmt.Errorf("%w: have %d signatures, need %d",
			ErrSignatureFailure, len(p.Signatures), required)
	}
	for i := 0; i < required; i++ {
		pk := p.AccountKeys[i]
		if !ed25519consensus.Verify(pk[:], p.Message, p.Signatures[i][:]) {
			return fmt.Errorf("%w: signature %d (%s)", ErrSignatureFailure, i, pk.Base58())
		}
	}
	return nil
}
