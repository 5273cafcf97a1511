package solana

import (
	"errors"
	"fmt"
)

type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

type ParsedInstruction struct {
	ProgramID Pubkey
	Accounts  []uint8
	Data      []byte
}

type ParsedTransaction struct {
	Signatures      [][64]byte
	Message         []byte
	Header          MessageHeader
	AccountKeys     []Pubkey
	RecentBlockhash [32]byte
	Instructions    []ParsedInstruction
}

// IsSigner reports whether account index i is a required signer.
func (p *ParsedTransaction) IsSigner(i int) bool {
	return i >= 0 && i < int(p.Header.NumRequiredSignatures)
}

// IsWritable reports whether account index i is writable under the
// legacy message account ordering.
func (p *ParsedTransaction) IsWritable(i int) bool {
	if i < 0 || i >= len(p.AccountKeys) {
		return false
	}
	nSigned := int(p.Header.NumRequiredSignatures)
	if i < nSigned {
		return i < nSigned-int(p.Header.NumReadonlySignedAccounts)
	}
	return i < len(p.AccountKeys)-int(p.Header.NumReadonlyUnsignedAccounts)
}

func (p *ParsedTransaction) FeePayer() (Pubkey, error) {
	if len(p.AccountKeys) == 0 || p.Header.NumRequiredSignatures == 0 {
		return Pubkey{}, errors.New("transaction has no fee payer")
	}
	return p.AccountKeys[0], nil
}

func ParseLegacyTransaction(tx []byte) (ParsedTransaction, error) {
	var out ParsedTransaction
	if len(tx) == 0 {
		return out, errors.New("empty tx")
	}

	off := 0
	sigCount, newOff, err := decodeShortVecLenAt(tx, off)
	if err != nil {
		return out, fmt.Errorf("decode signature count: %w", err)
	}
	off = newOff
	sigBytes := sigCount * 64
	if sigCount < 0 || sigBytes < 0 || off+sigBytes > len(tx) {
		return out, errors.New("invalid signature section")
	}
	out.Signatures = make([][64]byte, 0, sigCount)
	for i := 0; i < sigCount; i++ {
		var sig [64]byte
		copy(sig[:], tx[off:off+64])
		out.Signatures = append(out.Signatures, sig)
		off += 64
	}

	out.Message = append([]byte{}, tx[off:]...)

	if off+3 > len(tx) {
		return out, errors.New("message header truncated")
	}
	out.Header = MessageHeader{
		NumRequiredSignatures:       tx[off],
		NumReadonlySignedAccounts:   tx[off+1],
		NumReadonlyUnsignedAccounts: tx[off+2],
	}
	off += 3

	nKeys, newOff, err := decodeShortVecLenAt(tx, off)
	if err != nil {
		return out, fmt.Errorf("decode account keys count: %w", err)
	}
	off = newOff
	if nKeys < 0 || off+(nKeys*32) > len(tx) {
		return out, errors.New("account keys truncated")
	}
	if nKeys < int(out.Header.NumRequiredSignatures) {
		return out, errors.New("fewer account keys than required signatures")
	}
	out.AccountKeys = make([]Pubkey, 0, nKeys)
	for i := 0; i < nKeys; i++ {
		var pk Pubkey
		copy(pk[:], tx[off:off+32])
		out.AccountKeys = append(out.AccountKeys, pk)
		off += 32
	}

	if off+32 > len(tx) {
		return out, errors.New("recent blockhash truncated")
	}
	copy(out.RecentBlockhash[:], tx[off:off+32])
	off += 32

	nIxs, newOff, err := decodeShortVecLenAt(tx, off)
	if err != nil {
		return out, fmt.Errorf("decode instruction count: %w", err)
	}
	off = newOff
	if nIxs < 0 {
		return out, errors.New("negative instruction count")
	}

	out.Instructions = make([]ParsedInstruction, 0, nIxs)
	for i := 0; i < nIxs; i++ {
		if off >= len(tx) {
			return out, errors.New("instruction truncated")
		}
		pidIndex := int(tx[off])
		off++
		if pidIndex < 0 || pidIndex >= len(out.AccountKeys) {
			return out, errors.New("invalid program id index")
		}

		acctCount, newOff, err := decodeShortVecLenAt(tx, off)
		if err != nil {
			return out, fmt.Errorf("decode instruction accounts count: %w", err)
		}
		off = newOff
		if acctCount < 0 || off+acctCount > len(tx) {
			return out, errors.New("instruction accounts truncated")
		}
		accounts := make([]uint8, acctCount)
		copy(accounts, tx[off:off+acctCount])
		off += acctCount
		for _, idx := range accounts {
			if int(idx) >= len(out.AccountKeys) {
				return out, errors.New("instruction account index out of range")
			}
		}

		dataLen, newOff, err := decodeShortVecLenAt(tx, off)
		if err != nil {
			return out, fmt.Errorf("decode instruction data len: %w", err)
		}
		off = newOff
		if dataLen < 0 || off+dataLen > len(tx) {
			return out, errors.New("instruction data truncated")
		}
		data := make([]byte, dataLen)
		copy(data, tx[off:off+dataLen])
		off += dataLen

		out.Instructions = append(out.Instructions, ParsedInstruction{
			ProgramID: out.AccountKeys[pidIndex],
			Accounts:  accounts,
			Data:      data,
		})
	}

	if off != len(tx) {
		return out, errors.New("trailing bytes after message")
	}

	return out, nil
}
