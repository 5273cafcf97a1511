package solana

import (
	"crypto/ed25519"
	"testing"
)

func TestBuildAndSignLegacyTransaction_SignatureVerifies(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = 1
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	var feePayer Pubkey
	copy(feePayer[:], pub)

	var recipient Pubkey
	for i := range recipient {
		recipient[i] = 0x44
	}

	var blockhash [32]byte
	for i := range blockhash {
		blockhash[i] = 0x42
	}

	tx, err := BuildAndSignLegacyTransaction(
		blockhash,
		feePayer,
		map[Pubkey]ed25519.PrivateKey{feePayer: priv},
		[]Instruction{
			{
				ProgramID: SystemProgramID,
				Accounts: []AccountMeta{
					{Pubkey: feePayer, IsSigner: true, IsWritable: true},
					{Pubkey: recipient, IsSigner: false, IsWritable: true},
				},
				Data: []byte{1, 2, 3},
			},
		},
	)
	if err != nil {
		t.Fatalf("BuildAndSignLegacyTransaction: %v", err)
	}

	parsed, err := ParseLegacyTransaction(tx)
	if err != nil {
		t.Fatalf("ParseLegacyTransaction: %v", err)
	}
	if len(parsed.Signatures) != 1 {
		t.Fatalf("sigCount=%d, want 1", len(parsed.Signatures))
	}
	if !ed25519.Verify(pub, parsed.Message, parsed.Signatures[0][:]) {
		t.Fatalf("signature did not verify")
	}
}

func TestBuildAndSignLegacyTransaction_MissingSigner(t *testing.T) {
	payer, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}
	other, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}

	var blockhash [32]byte
	_, err = BuildAndSignLegacyTransaction(
		blockhash,
		payer.Pubkey(),
		map[Pubkey]ed25519.PrivateKey{payer.Pubkey(): payer.PrivateKey()},
		[]Instruction{
			{
				ProgramID: SystemProgramID,
				Accounts: []AccountMeta{
					{Pubkey: payer.Pubkey(), IsSigner: true, IsWritable: true},
					{Pubkey: other.Pubkey(), IsSigner: true, IsWritable: true},
				},
			},
		},
	)
	if err != ErrMissingSigner {
		t.Fatalf("want ErrMissingSigner, got %v", err)
	}
}

func TestNewSignedTransaction_AccountOrdering(t *testing.T) {
	payer, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}
	acct, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}

	var program Pubkey
	for i := range program {
		program[i] = 0x77
	}

	var blockhash [32]byte
	for i := range blockhash {
		blockhash[i] = 0x09
	}

	tx, err := NewSignedTransaction(blockhash, payer, []Keypair{acct}, []Instruction{
		{
			ProgramID: program,
			Accounts: []AccountMeta{
				{Pubkey: acct.Pubkey(), IsSigner: true, IsWritable: true},
				{Pubkey: payer.Pubkey(), IsSigner: true, IsWritable: true},
				{Pubkey: SystemProgramID, IsSigner: false, IsWritable: false},
			},
			Data: []byte{0xde, 0xad},
		},
	})
	if err != nil {
		t.Fatalf("NewSignedTransaction: %v", err)
	}

	parsed, err := ParseLegacyTransaction(tx)
	if err != nil {
		t.Fatalf("ParseLegacyTransaction: %v", err)
	}

	if parsed.Header.NumRequiredSignatures != 2 {
		t.Fatalf("required signatures=%d, want 2", parsed.Header.NumRequiredSignatures)
	}
	if parsed.AccountKeys[0] != payer.Pubkey() {
		t.Fatalf("fee payer must be account 0")
	}
	if parsed.AccountKeys[1] != acct.Pubkey() {
		t.Fatalf("second signer must be the new account")
	}
	if !parsed.IsWritable(0) || !parsed.IsWritable(1) {
		t.Fatalf("both signers must be writable")
	}
	if parsed.IsWritable(len(parsed.AccountKeys) - 1) {
		t.Fatalf("trailing readonly accounts must not be writable")
	}
	if parsed.RecentBlockhash != blockhash {
		t.Fatalf("blockhash mismatch")
	}
	if err := parsed.VerifySignatures(); err != nil {
		t.Fatalf("VerifySignatures: %v", err)
	}
}
