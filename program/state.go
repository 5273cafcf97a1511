package program

import (
	"bytes"
	"fmt"

	"github.com/near/borsh-go"

	"github.com/arcium-labs/encrypted-compute/solana"
)

// accountDiscriminator prefixes EncryptedCompute account data:
// sha256("account:EncryptedCompute")[:8].
var accountDiscriminator = [8]byte{173, 175, 30, 78, 180, 155, 154, 58}

// EncryptedCompute is the program's persistent account state, stored
// borsh-encoded after the 8-byte discriminator.
type EncryptedCompute struct {
	DataHash string
	User     solana.Pubkey
}

// Space returns the full on-chain size of the account: discriminator,
// borsh string header + bytes, user pubkey.
func (s *EncryptedCompute) Space() int {
	return 8 + 4 + len(s.DataHash) + 32
}

func (s *EncryptedCompute) Encode() ([]byte, error) {
	body, err := borsh.Serialize(*s)
	if err != nil {
		return nil, fmt.Errorf("serialize state: %w", err)
	}
	out := make([]byte, 0, 8+len(body))
	out = append(out, accountDiscriminator[:]...)
	out = append(out, body...)
	return out, nil
}

// DecodeEncryptedCompute parses and validates raw account data.
func DecodeEncryptedCompute(data []byte) (*EncryptedCompute, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: too short", ErrInvalidAccountData)
	}
	if !bytes.Equal(data[:8], accountDiscriminator[:]) {
		return nil, fmt.Errorf("%w: discriminator mismatch", ErrInvalidAccountData)
	}
	var out EncryptedCompute
	if err := borsh.Deserialize(&out, data[8:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	if len(out.DataHash) > MaxDataHashLen {
		return nil, fmt.Errorf("%w: data hash too long", ErrInvalidAccountData)
	}
	return &out, nil
}
