package program_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcium-labs/encrypted-compute/program"
	"github.com/arcium-labs/encrypted-compute/programtest"
	"github.com/arcium-labs/encrypted-compute/runtime"
	"github.com/arcium-labs/encrypted-compute/solana"
)

func startContext(t *testing.T) *programtest.Context {
	t.Helper()
	pt := programtest.New(program.ProgramName, program.ProgramID, program.Processor())
	tc, err := pt.Start(context.Background())
	require.NoError(t, err)
	return tc
}

func initializeTx(t *testing.T, tc *programtest.Context, ec solana.Keypair, dataHash string) []byte {
	t.Helper()
	ix, err := program.NewInitializeInstruction(
		&program.InitializeInstructionAccounts{
			EncryptedCompute: ec.Pubkey(),
			User:             tc.Payer.Pubkey(),
		},
		&program.InitializeInstructionArgs{DataHash: dataHash},
	)
	require.NoError(t, err)

	tx, err := solana.NewSignedTransaction(tc.LastBlockhash, tc.Payer, []solana.Keypair{ec}, []solana.Instruction{ix})
	require.NoError(t, err)
	return tx
}

func TestInitializeEncryptedCompute(t *testing.T) {
	ctx := context.Background()
	tc := startContext(t)

	dataHash := "test_hash_123"
	ec, err := solana.NewKeypair()
	require.NoError(t, err)

	tx := initializeTx(t, tc, ec, dataHash)
	require.NoError(t, tc.Banks.ProcessTransaction(ctx, tx))

	// Verify the account was created properly.
	acct, err := tc.Banks.GetAccount(ctx, ec.Pubkey())
	require.NoError(t, err)
	require.NotNil(t, acct)

	require.Equal(t, program.ProgramID, acct.Owner)
	require.False(t, acct.Executable)

	state, err := program.DecodeEncryptedCompute(acct.Data)
	require.NoError(t, err)
	require.Equal(t, dataHash, state.DataHash)
	require.Equal(t, tc.Payer.Pubkey(), state.User)
}

func TestInitializeEncryptedCompute_PayerFundsTheAccount(t *testing.T) {
	ctx := context.Background()
	tc := startContext(t)

	ec, err := solana.NewKeypair()
	require.NoError(t, err)

	before, err := tc.Banks.GetBalance(ctx, tc.Payer.Pubkey())
	require.NoError(t, err)

	tx := initializeTx(t, tc, ec, "test_hash_123")
	require.NoError(t, tc.Banks.ProcessTransaction(ctx, tx))

	acct, err := tc.Banks.GetAccount(ctx, ec.Pubkey())
	require.NoError(t, err)
	require.NotNil(t, acct)

	after, err := tc.Banks.GetBalance(ctx, tc.Payer.Pubkey())
	require.NoError(t, err)

	// Two signatures (payer + new account) plus the rent-exempt grant.
	fee := 2 * runtime.LamportsPerSignature
	require.Equal(t, before-fee-acct.Lamports, after)
}

func TestInitializeEncryptedCompute_DuplicateFails(t *testing.T) {
	ctx := context.Background()
	tc := startContext(t)

	ec, err := solana.NewKeypair()
	require.NoError(t, err)

	require.NoError(t, tc.Banks.ProcessTransaction(ctx, initializeTx(t, tc, ec, "test_hash_123")))

	// Same address, fresh blockhash so the transaction is distinct.
	blockhash, err := tc.Banks.AdvanceBlockhash(ctx)
	require.NoError(t, err)
	tc.LastBlockhash = blockhash

	err = tc.Banks.ProcessTransaction(ctx, initializeTx(t, tc, ec, "test_hash_123"))
	require.ErrorIs(t, err, program.ErrAlreadyInitialized)

	// Original state is untouched.
	acct, err := tc.Banks.GetAccount(ctx, ec.Pubkey())
	require.NoError(t, err)
	require.NotNil(t, acct)
	state, err := program.DecodeEncryptedCompute(acct.Data)
	require.NoError(t, err)
	require.Equal(t, "test_hash_123", state.DataHash)
}

func TestInitializeEncryptedCompute_MissingAccountSignature(t *testing.T) {
	ctx := context.Background()
	tc := startContext(t)

	ec, err := solana.NewKeypair()
	require.NoError(t, err)

	ix, err := program.NewInitializeInstruction(
		&program.InitializeInstructionAccounts{
			EncryptedCompute: ec.Pubkey(),
			User:             tc.Payer.Pubkey(),
		},
		&program.InitializeInstructionArgs{DataHash: "test_hash_123"},
	)
	require.NoError(t, err)

	// Demote the new account to a non-signer and sign with the payer only.
	ix.Accounts[0].IsSigner = false
	tx, err := solana.NewSignedTransaction(tc.LastBlockhash, tc.Payer, nil, []solana.Instruction{ix})
	require.NoError(t, err)

	err = tc.Banks.ProcessTransaction(ctx, tx)
	require.ErrorIs(t, err, program.ErrMissingRequiredSignature)

	acct, err := tc.Banks.GetAccount(ctx, ec.Pubkey())
	require.NoError(t, err)
	require.Nil(t, acct)
}

func TestInitializeEncryptedCompute_StaleBlockhash(t *testing.T) {
	ctx := context.Background()
	tc := startContext(t)

	ec, err := solana.NewKeypair()
	require.NoError(t, err)

	var stale [32]byte
	for i := range stale {
		stale[i] = 0xAB
	}
	tc.LastBlockhash = stale

	err = tc.Banks.ProcessTransaction(ctx, initializeTx(t, tc, ec, "test_hash_123"))
	require.ErrorIs(t, err, runtime.ErrBlockhashNotFound)
}

func TestInitializeEncryptedCompute_WrongSystemProgram(t *testing.T) {
	ctx := context.Background()
	tc := startContext(t)

	ec, err := solana.NewKeypair()
	require.NoError(t, err)
	bogus, err := solana.NewKeypair()
	require.NoError(t, err)

	ix, err := program.NewInitializeInstruction(
		&program.InitializeInstructionAccounts{
			EncryptedCompute: ec.Pubkey(),
			User:             tc.Payer.Pubkey(),
		},
		&program.InitializeInstructionArgs{DataHash: "test_hash_123"},
	)
	require.NoError(t, err)
	ix.Accounts[2].Pubkey = bogus.Pubkey()

	tx, err := solana.NewSignedTransaction(tc.LastBlockhash, tc.Payer, []solana.Keypair{ec}, []solana.Instruction{ix})
	require.NoError(t, err)

	err = tc.Banks.ProcessTransaction(ctx, tx)
	require.ErrorIs(t, err, program.ErrInvalidProgram)
}

func TestInitializeEncryptedCompute_IsolationBetweenContexts(t *testing.T) {
	ctx := context.Background()

	first := startContext(t)
	ec, err := solana.NewKeypair()
	require.NoError(t, err)
	require.NoError(t, first.Banks.ProcessTransaction(ctx, initializeTx(t, first, ec, "test_hash_123")))

	// A second provisioned environment must not see the account.
	second := startContext(t)
	acct, err := second.Banks.GetAccount(ctx, ec.Pubkey())
	require.NoError(t, err)
	require.Nil(t, acct)
}
