package runtime

import (
	"encoding/binary"
	"fmt"

	"github.com/arcium-labs/encrypted-compute/solana"
)

// maxPermittedDataLength caps account data growth (10 MiB).
const maxPermittedDataLength = 10 * 1024 * 1024

func processSystemInstruction(ic *InvokeContext) error {
	data := ic.Data()
	if len(data) < 4 {
		return ErrInvalidInstructionData
	}
	discriminant := binary.LittleEndian.Uint32(data[0:4])
	rest := data[4:]

	switch discriminant {
	case solana.SystemInstrCreateAccount:
		return systemCreateAccount(ic, rest)
	case solana.SystemInstrAssign:
		return systemAssign(ic, rest)
	case solana.SystemInstrTransfer:
		return systemTransfer(ic, rest)
	case solana.SystemInstrAllocate:
		return systemAllocate(ic, rest)
	default:
		return fmt.Errorf("%w: unsupported system instruction %d", ErrInvalidInstructionData, discriminant)
	}
}

func systemCreateAccount(ic *InvokeContext, args []byte) error {
	if len(args) != 8+8+32 {
		return ErrInvalidInstructionData
	}
	lamports := binary.LittleEndian.Uint64(args[0:8])
	space := binary.LittleEndian.Uint64(args[8:16])
	var owner solana.Pubkey
	copy(owner[:], args[16:48])

	if ic.NumAccounts() < 2 {
		return ErrInvalidAccountIndex
	}
	fromMeta, _ := ic.Meta(0)
	newMeta, _ := ic.Meta(1)
	if !fromMeta.IsSigner || !newMeta.IsSigner {
		return ErrMissingSignature
	}
	if !fromMeta.IsWritable || !newMeta.IsWritable {
		return ErrAccountNotWritable
	}

	from, err := ic.Account(0)
	if err != nil {
		return err
	}
	newAcct, err := ic.Account(1)
	if err != nil {
		return err
	}

	if !newAcct.IsEmpty() {
		return fmt.Errorf("%w: %s", ErrAccountInUse, newMeta.Pubkey.Base58())
	}
	if space > maxPermittedDataLength {
		return fmt.Errorf("%w: %d", ErrDataTooLarge, space)
	}
	if from.Lamports < lamports {
		return ErrInsufficientFunds
	}

	from.Lamports -= lamports
	newAcct.Lamports = lamports
	newAcct.Data = make([]byte, space)
	newAcct.Owner = owner
	return nil
}

func systemAssign(ic *InvokeContext, args []byte) error {
	if len(args) != 32 {
		return ErrInvalidInstructionData
	}
	var owner solana.Pubkey
	copy(owner[:], args[0:32])

	if ic.NumAccounts() < 1 {
		return ErrInvalidAccountIndex
	}
	meta, _ := ic.Meta(0)
	if !meta.IsSigner {
		return ErrMissingSignature
	}
	if !meta.IsWritable {
		return ErrAccountNotWritable
	}

	acct, err := ic.Account(0)
	if err != nil {
		return err
	}
	if acct.Owner != solana.SystemProgramID {
		return ErrInvalidAccountOwner
	}
	acct.Owner = owner
	return nil
}

func systemTransfer(ic *InvokeContext, args []byte) error {
	if len(args) != 8 {
		return ErrInvalidInstructionData
	}
	lamports := binary.LittleEndian.Uint64(args[0:8])

	if ic.NumAccounts() < 2 {
		return ErrInvalidAccountIndex
	}
	fromMeta, _ := ic.Meta(0)
	toMeta, _ := ic.Meta(1)
	if !fromMeta.IsSigner {
		return ErrMissingSignature
	}
	if !fromMeta.IsWritable || !toMeta.IsWritable {
		return ErrAccountNotWritable
	}

	from, err := ic.Account(0)
	if err != nil {
		return err
	}
	to, err := ic.Account(1)
	if err != nil {
		return err
	}

	if from.Owner != solana.SystemProgramID || len(from.Data) != 0 {
		return ErrInvalidAccountOwner
	}
	if from.Lamports < lamports {
		return ErrInsufficientFunds
	}
	from.Lamports -= lamports
	to.Lamports += lamports
	return nil
}

func systemAllocate(ic *InvokeContext, args []byte) error {
	if len(args) != 8 {
		return ErrInvalidInstructionData
	}
	space := binary.LittleEndian.Uint64(args[0:8])

	if ic.NumAccounts() < 1 {
		return ErrInvalidAccountIndex
	}
	meta, _ := ic.Meta(0)
	if !meta.IsSigner {
		return ErrMissingSignature
	}
	if !meta.IsWritable {
		return ErrAccountNotWritable
	}

	acct, err := ic.Account(0)
	if err != nil {
		return err
	}
	if acct.Owner != solana.SystemProgramID || len(acct.Data) != 0 {
		return ErrInvalidAccountOwner
	}
	if space > maxPermittedDataLength {
		return fmt.Errorf("%w: %d", ErrDataTooLarge, space)
	}
	acct.Data = make([]byte, space)
	return nil
}
