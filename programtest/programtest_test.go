package programtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/arcium-labs/encrypted-compute/runtime"
	"github.com/arcium-labs/encrypted-compute/solana"
)

func noopProcessor(ic *runtime.InvokeContext) error { return nil }

func testProgramID() solana.Pubkey {
	var id solana.Pubkey
	for i := range id {
		id[i] = 0x5A
	}
	return id
}

func TestStart_ProvisionsFundedPayer(t *testing.T) {
	pt := New("noop", testProgramID(), noopProcessor)
	pt.SetLogger(zaptest.NewLogger(t))

	ctx := context.Background()
	tc, err := pt.Start(ctx)
	require.NoError(t, err)

	require.False(t, tc.Payer.Pubkey().IsZero())
	require.NotEqual(t, [32]byte{}, tc.LastBlockhash)

	balance, err := tc.Banks.GetBalance(ctx, tc.Payer.Pubkey())
	require.NoError(t, err)
	require.Equal(t, DefaultPayerLamports, balance)

	// The program under test is visible as an executable account.
	acct, err := tc.Banks.GetAccount(ctx, testProgramID())
	require.NoError(t, err)
	require.NotNil(t, acct)
	require.True(t, acct.Executable)
	require.Equal(t, []byte("noop"), acct.Data)
}

func TestStart_NoPrograms(t *testing.T) {
	pt := &ProgramTest{}
	_, err := pt.Start(context.Background())
	require.ErrorIs(t, err, ErrNoPrograms)
}

func TestStart_Isolation(t *testing.T) {
	pt := New("noop", testProgramID(), noopProcessor)
	ctx := context.Background()

	a, err := pt.Start(ctx)
	require.NoError(t, err)
	b, err := pt.Start(ctx)
	require.NoError(t, err)

	require.NotEqual(t, a.Payer.Pubkey(), b.Payer.Pubkey())
	require.NotEqual(t, a.LastBlockhash, b.LastBlockhash)

	// Funds moved in one context never appear in the other.
	balance, err := b.Banks.GetBalance(ctx, a.Payer.Pubkey())
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestStart_CanceledContext(t *testing.T) {
	pt := New("noop", testProgramID(), noopProcessor)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pt.Start(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSetPayerLamports(t *testing.T) {
	pt := New("noop", testProgramID(), noopProcessor)
	pt.SetPayerLamports(1_000_000)

	ctx := context.Background()
	tc, err := pt.Start(ctx)
	require.NoError(t, err)

	balance, err := tc.Banks.GetBalance(ctx, tc.Payer.Pubkey())
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000), balance)
}

func TestBanksClient_ProcessAndQuery(t *testing.T) {
	pt := New("noop", testProgramID(), noopProcessor)
	ctx := context.Background()
	tc, err := pt.Start(ctx)
	require.NoError(t, err)

	ix := solana.Instruction{
		ProgramID: testProgramID(),
		Accounts: []solana.AccountMeta{
			{Pubkey: tc.Payer.Pubkey(), IsSigner: true, IsWritable: true},
		},
	}
	tx, err := solana.NewSignedTransaction(tc.LastBlockhash, tc.Payer, nil, []solana.Instruction{ix})
	require.NoError(t, err)
	require.NoError(t, tc.Banks.ProcessTransaction(ctx, tx))

	hash, err := tc.Banks.LatestBlockhash(ctx)
	require.NoError(t, err)
	require.Equal(t, tc.LastBlockhash, hash)

	next, err := tc.Banks.AdvanceBlockhash(ctx)
	require.NoError(t, err)
	require.NotEqual(t, hash, next)
}
