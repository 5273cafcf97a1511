package solana

import (
	"encoding/binary"
)

// System program instruction discriminants (little-endian u32 prefix).
const (
	SystemInstrCreateAccount uint32 = 0
	SystemInstrAssign        uint32 = 1
	SystemInstrTransfer      uint32 = 2
	SystemInstrAllocate      uint32 = 8
)

func SystemCreateAccount(from, newAccount Pubkey, lamports, space uint64, owner Pubkey) Instruction {
	data := make([]byte, 4+8+8+32)
	binary.LittleEndian.PutUint32(data[0:], SystemInstrCreateAccount)
	binary.LittleEndian.PutUint64(data[4:], lamports)
	binary.LittleEndian.PutUint64(data[12:], space)
	copy(data[20:], owner[:])
	return Instruction{
		ProgramID: SystemProgramID,
		Accounts: []AccountMeta{
			{Pubkey: from, IsSigner: true, IsWritable: true},
			{Pubkey: newAccount, IsSigner: true, IsWritable: true},
		},
		Data: data,
	}
}

func SystemAssign(account, owner Pubkey) Instruction {
	data := make([]byte, 4+32)
	binary.LittleEndian.PutUint32(data[0:], SystemInstrAssign)
	copy(data[4:], owner[:])
	return Instruction{
		ProgramID: SystemProgramID,
		Accounts: []AccountMeta{
			{Pubkey: account, IsSigner: true, IsWritable: true},
		},
		Data: data,
	}
}

func SystemTransfer(from, to Pubkey, lamports uint64) Instruction {
	data := make([]byte, 4+8)
	binary.LittleEndian.PutUint32(data[0:], SystemInstrTransfer)
	binary.LittleEndian.PutUint64(data[4:], lamports)
	return Instruction{
		ProgramID: SystemProgramID,
		Accounts: []AccountMeta{
			{Pubkey: from, IsSigner: true, IsWritable: true},
			{Pubkey: to, IsSigner: false, IsWritable: true},
		},
		Data: data,
	}
}

func SystemAllocate(account Pubkey, space uint64) Instruction {
	data := make([]byte, 4+8)
	binary.LittleEndian.PutUint32(data[0:], SystemInstrAllocate)
	binary.LittleEndian.PutUint64(data[4:], space)
	return Instruction{
		ProgramID: SystemProgramID,
		Accounts: []AccountMeta{
			{Pubkey: account, IsSigner: true, IsWritable: true},
		},
		Data: data,
	}
}
