package program

import (
	"fmt"

	"github.com/near/borsh-go"

	"github.com/arcium-labs/encrypted-compute/solana"
)

// initializeDiscriminator is the Anchor method selector:
// sha256("global:initialize_encrypted_compute")[:8].
var initializeDiscriminator = [8]byte{169, 153, 32, 32, 242, 202, 183, 102}

type InitializeInstructionArgs struct {
	DataHash string
}

type InitializeInstructionAccounts struct {
	EncryptedCompute solana.Pubkey
	User             solana.Pubkey
}

// NewInitializeInstruction builds the initialize_encrypted_compute
// instruction. The encrypted compute account and the user both sign: the
// former proves authority over the fresh address, the latter funds it.
func NewInitializeInstruction(
	accounts *InitializeInstructionAccounts,
	args *InitializeInstructionArgs,
) (solana.Instruction, error) {
	if len(args.DataHash) > MaxDataHashLen {
		return solana.Instruction{}, ErrDataHashTooLong
	}

	body, err := borsh.Serialize(*args)
	if err != nil {
		return solana.Instruction{}, fmt.Errorf("serialize args: %w", err)
	}
	data := make([]byte, 0, 8+len(body))
	data = append(data, initializeDiscriminator[:]...)
	data = append(data, body...)

	return solana.Instruction{
		ProgramID: ProgramID,

		Data: data,

		Accounts: []solana.AccountMeta{
			{
				Pubkey:     accounts.EncryptedCompute,
				IsSigner:   true,
				IsWritable: true,
			},
			{
				Pubkey:     accounts.User,
				IsSigner:   true,
				IsWritable: true,
			},
			{
				Pubkey:     solana.SystemProgramID,
				IsSigner:   false,
				IsWritable: false,
			},
		},
	}, nil
}
