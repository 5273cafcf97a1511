package program

import (
	"bytes"
	"fmt"

	"github.com/near/borsh-go"
	"go.uber.org/zap"

	"github.com/arcium-labs/encrypted-compute/runtime"
	"github.com/arcium-labs/encrypted-compute/solana"
)

// Processor returns the native handler the runtime dispatches this
// program's instructions to.
func Processor() runtime.Processor {
	return processInstruction
}

func processInstruction(ic *runtime.InvokeContext) error {
	if ic.ProgramID() != ProgramID {
		return ErrInvalidProgram
	}
	data := ic.Data()
	if len(data) < 8 {
		return fmt.Errorf("%w: missing discriminator", ErrInvalidInstructionData)
	}
	switch {
	case bytes.Equal(data[:8], initializeDiscriminator[:]):
		return initializeEncryptedCompute(ic, data[8:])
	default:
		return fmt.Errorf("%w: unknown discriminator %x", ErrInvalidInstructionData, data[:8])
	}
}

// initializeEncryptedCompute creates the encrypted compute account and
// writes {data_hash, user} into it. Accounts:
//
//	0. encrypted_compute  signer, writable, must not exist
//	1. user               signer, writable, funds the account
//	2. system_program
func initializeEncryptedCompute(ic *runtime.InvokeContext, argData []byte) error {
	if ic.NumAccounts() < 3 {
		return runtime.ErrInvalidAccountIndex
	}

	ecMeta, _ := ic.Meta(0)
	userMeta, _ := ic.Meta(1)
	sysMeta, _ := ic.Meta(2)

	if !ecMeta.IsSigner || !userMeta.IsSigner {
		return ErrMissingRequiredSignature
	}
	if !ecMeta.IsWritable || !userMeta.IsWritable {
		return runtime.ErrAccountNotWritable
	}
	if sysMeta.Pubkey != solana.SystemProgramID {
		return fmt.Errorf("%w: expected system program", ErrInvalidProgram)
	}

	var args InitializeInstructionArgs
	if err := borsh.Deserialize(&args, argData); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstructionData, err)
	}
	if len(args.DataHash) > MaxDataHashLen {
		return ErrDataHashTooLong
	}

	ecAcct, err := ic.Account(0)
	if err != nil {
		return err
	}
	if !ecAcct.IsEmpty() {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, ecMeta.Pubkey.Base58())
	}

	state := EncryptedCompute{
		DataHash: args.DataHash,
		User:     userMeta.Pubkey,
	}
	space := state.Space()
	lamports := ic.MinimumBalance(space)

	createIx := solana.SystemCreateAccount(
		userMeta.Pubkey,
		ecMeta.Pubkey,
		lamports,
		uint64(space),
		ProgramID,
	)
	if err := ic.Invoke(createIx, nil); err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	encoded, err := state.Encode()
	if err != nil {
		return err
	}
	if len(encoded) != space {
		return fmt.Errorf("%w: state size %d, allocated %d", ErrInvalidAccountData, len(encoded), space)
	}
	copy(ecAcct.Data, encoded)

	ic.Logger().Info("initialized encrypted compute",
		zap.String("account", ecMeta.Pubkey.Base58()),
		zap.String("user", userMeta.Pubkey.Base58()),
		zap.Int("data_hash_len", len(args.DataHash)))
	return nil
}
