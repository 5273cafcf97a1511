package runtime

import (
	"github.com/arcium-labs/encrypted-compute/solana"
)

// Account is an addressed unit of ledger state.
type Account struct {
	Lamports   uint64
	Data       []byte
	Owner      solana.Pubkey
	Executable bool
	RentEpoch  uint64
}

func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.Data = append([]byte{}, a.Data...)
	return &out
}

// IsEmpty reports whether the account is indistinguishable from a
// nonexistent one: no funds, no data, system-owned.
func (a *Account) IsEmpty() bool {
	return a == nil || (a.Lamports == 0 && len(a.Data) == 0 && a.Owner == solana.SystemProgramID)
}

// Accounts is an in-memory account store keyed by address.
type Accounts struct {
	m map[solana.Pubkey]*Account
}

func NewAccounts() *Accounts {
	return &Accounts{m: make(map[solana.Pubkey]*Account)}
}

func (s *Accounts) Get(pk solana.Pubkey) *Account {
	return s.m[pk]
}

func (s *Accounts) Set(pk solana.Pubkey, acct *Account) {
	s.m[pk] = acct
}

func (s *Accounts) Delete(pk solana.Pubkey) {
	delete(s.m, pk)
}

func (s *Accounts) Len() int {
	return len(s.m)
}
