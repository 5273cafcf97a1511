package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcium-labs/encrypted-compute/solana"
)

func TestAccountClone_Independent(t *testing.T) {
	orig := &Account{
		Lamports: 42,
		Data:     []byte{1, 2, 3},
		Owner:    solana.SystemProgramID,
	}
	clone := orig.Clone()
	clone.Lamports = 7
	clone.Data[0] = 0xFF

	require.Equal(t, uint64(42), orig.Lamports)
	require.Equal(t, byte(1), orig.Data[0])
}

func TestAccountIsEmpty(t *testing.T) {
	require.True(t, (*Account)(nil).IsEmpty())
	require.True(t, (&Account{Owner: solana.SystemProgramID}).IsEmpty())
	require.False(t, (&Account{Lamports: 1, Owner: solana.SystemProgramID}).IsEmpty())
	require.False(t, (&Account{Data: []byte{0}, Owner: solana.SystemProgramID}).IsEmpty())

	var other solana.Pubkey
	other[0] = 1
	require.False(t, (&Account{Owner: other}).IsEmpty())
}

func TestAccountsStore(t *testing.T) {
	s := NewAccounts()
	kp, err := solana.NewKeypair()
	require.NoError(t, err)

	require.Nil(t, s.Get(kp.Pubkey()))
	s.Set(kp.Pubkey(), &Account{Lamports: 5})
	require.Equal(t, uint64(5), s.Get(kp.Pubkey()).Lamports)
	require.Equal(t, 1, s.Len())
	s.Delete(kp.Pubkey())
	require.Nil(t, s.Get(kp.Pubkey()))
}
