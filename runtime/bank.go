package runtime

import (
	"context"
	"crypto/rand"
	"fmt"

	"go.uber.org/zap"

	"github.com/arcium-labs/encrypted-compute/solana"
)

const (
	maxRecentBlockhashes = 150
	maxInvokeDepth       = 4

	// LamportsPerSignature is the flat fee charged per required signature.
	LamportsPerSignature uint64 = 5000
)

// Processor executes one instruction of a native program.
type Processor func(ic *InvokeContext) error

type registeredProgram struct {
	name    string
	process Processor
}

// Bank is an isolated in-memory ledger. It verifies and applies
// transactions against registered native programs. A Bank is exclusively
// owned by one harness run and is not safe for concurrent use.
type Bank struct {
	log         *zap.Logger
	accounts    *Accounts
	programs    map[solana.Pubkey]registeredProgram
	blockhashes [][32]byte
	rent        Rent
}

func NewBank(log *zap.Logger) *Bank {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Bank{
		log:      log,
		accounts: NewAccounts(),
		programs: make(map[solana.Pubkey]registeredProgram),
		rent:     DefaultRent(),
	}
	b.AdvanceBlockhash()
	b.RegisterProgram("system_program", solana.SystemProgramID, processSystemInstruction)
	b.RegisterProgram("compute_budget_program", solana.ComputeBudgetProgramID, processComputeBudgetInstruction)
	return b
}

func (b *Bank) Rent() Rent {
	return b.rent
}

// RegisterProgram installs a native program processor and its executable
// account.
func (b *Bank) RegisterProgram(name string, id solana.Pubkey, p Processor) {
	b.programs[id] = registeredProgram{name: name, process: p}
	b.accounts.Set(id, &Account{
		Lamports:   b.rent.MinimumBalance(len(name)),
		Data:       []byte(name),
		Owner:      solana.NativeLoaderID,
		Executable: true,
	})
	b.log.Debug("registered program", zap.String("name", name), zap.String("id", id.Base58()))
}

// CreateFundedAccount mints a fresh system account holding lamports and
// returns its keypair.
func (b *Bank) CreateFundedAccount(lamports uint64) (solana.Keypair, error) {
	kp, err := solana.NewKeypair()
	if err != nil {
		return kp, err
	}
	b.accounts.Set(kp.Pubkey(), &Account{
		Lamports: lamports,
		Owner:    solana.SystemProgramID,
	})
	return kp, nil
}

// GetAccount returns a copy of the account at pk, or nil if it does not
// exist.
func (b *Bank) GetAccount(pk solana.Pubkey) *Account {
	acct := b.accounts.Get(pk)
	if acct == nil || acct.IsEmpty() {
		return nil
	}
	return acct.Clone()
}

func (b *Bank) Balance(pk solana.Pubkey) uint64 {
	acct := b.accounts.Get(pk)
	if acct == nil {
		return 0
	}
	return acct.Lamports
}

func (b *Bank) LatestBlockhash() [32]byte {
	return b.blockhashes[len(b.blockhashes)-1]
}

// AdvanceBlockhash rotates in a fresh blockhash, expiring the oldest once
// more than maxRecentBlockhashes are live.
func (b *Bank) AdvanceBlockhash() [32]byte {
	var h [32]byte
	if _, err := rand.Read(h[:]); err != nil {
		panic(fmt.Sprintf("blockhash entropy: %v", err))
	}
	b.blockhashes = append(b.blockhashes, h)
	if len(b.blockhashes) > maxRecentBlockhashes {
		b.blockhashes = b.blockhashes[len(b.blockhashes)-maxRecentBlockhashes:]
	}
	return h
}

func (b *Bank) isRecentBlockhash(h [32]byte) bool {
	for _, r := range b.blockhashes {
		if r == h {
			return true
		}
	}
	return false
}

// ProcessTransaction verifies and applies one wire-encoded legacy
// transaction. Effects are all-or-nothing: if any instruction fails,
// no account state is committed (the signature fee is still charged).
func (b *Bank) ProcessTransaction(ctx context.Context, wire []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := solana.ParseLegacyTransaction(wire)
	if err != nil {
		return fmt.Errorf("parse transaction: %w", err)
	}
	if err := tx.VerifySignatures(); err != nil {
		return err
	}
	if !b.isRecentBlockhash(tx.RecentBlockhash) {
		return ErrBlockhashNotFound
	}

	feePayer, err := tx.FeePayer()
	if err != nil {
		return err
	}
	fee := uint64(len(tx.Signatures)) * LamportsPerSignature
	payerAcct := b.accounts.Get(feePayer)
	if payerAcct == nil || payerAcct.Lamports < fee {
		return ErrInsufficientFundsForFee
	}
	if payerAcct.Owner != solana.SystemProgramID {
		return fmt.Errorf("%w: fee payer must be system-owned", ErrInvalidAccountOwner)
	}
	payerAcct.Lamports -= fee

	// Working copies; committed only if every instruction succeeds.
	working := make(map[solana.Pubkey]*Account, len(tx.AccountKeys))
	signers := make(map[solana.Pubkey]bool, tx.Header.NumRequiredSignatures)
	for i, pk := range tx.AccountKeys {
		if _, ok := working[pk]; !ok {
			if acct := b.accounts.Get(pk); acct != nil {
				working[pk] = acct.Clone()
			} else {
				working[pk] = &Account{Owner: solana.SystemProgramID}
			}
		}
		if tx.IsSigner(i) {
			signers[pk] = true
		}
	}

	for i, ix := range tx.Instructions {
		if err := b.executeInstruction(&tx, ix, working, signers); err != nil {
			return &InstructionError{Index: i, Err: err}
		}
	}

	// Every written account must either be reaped or rent exempt.
	for pk, acct := range working {
		if !acct.IsEmpty() && !acct.Executable && !b.rent.IsExempt(acct.Lamports, len(acct.Data)) {
			return fmt.Errorf("%w: %s", ErrNotRentExempt, pk.Base58())
		}
	}

	for pk, acct := range working {
		if acct.IsEmpty() {
			b.accounts.Delete(pk)
			continue
		}
		b.accounts.Set(pk, acct)
	}
	return nil
}

func (b *Bank) executeInstruction(
	tx *solana.ParsedTransaction,
	ix solana.ParsedInstruction,
	working map[solana.Pubkey]*Account,
	signers map[solana.Pubkey]bool,
) error {
	prog, ok := b.programs[ix.ProgramID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, ix.ProgramID.Base58())
	}

	metas := make([]solana.AccountMeta, 0, len(ix.Accounts))
	for _, idx := range ix.Accounts {
		i := int(idx)
		if i >= len(tx.AccountKeys) {
			return ErrInvalidAccountIndex
		}
		metas = append(metas, solana.AccountMeta{
			Pubkey:     tx.AccountKeys[i],
			IsSigner:   tx.IsSigner(i),
			IsWritable: tx.IsWritable(i),
		})
	}

	ic := &InvokeContext{
		bank:      b,
		working:   working,
		signers:   signers,
		programID: ix.ProgramID,
		metas:     metas,
		data:      ix.Data,
		depth:     1,
	}

	b.log.Info("program invoke",
		zap.String("program", prog.name),
		zap.String("id", ix.ProgramID.Base58()),
		zap.Int("depth", ic.depth))
	if err := prog.process(ic); err != nil {
		b.log.Info("program failed",
			zap.String("program", prog.name),
			zap.Error(err))
		return err
	}
	b.log.Info("program success", zap.String("program", prog.name))
	return nil
}

// InvokeContext is a native program's view of one instruction: the
// accounts it names, its data, and a CPI escape hatch.
type InvokeContext struct {
	bank      *Bank
	working   map[solana.Pubkey]*Account
	signers   map[solana.Pubkey]bool
	programID solana.Pubkey
	metas     []solana.AccountMeta
	data      []byte
	depth     int
}

func (ic *InvokeContext) ProgramID() solana.Pubkey { return ic.programID }

func (ic *InvokeContext) Data() []byte { return ic.data }

func (ic *InvokeContext) NumAccounts() int { return len(ic.metas) }

func (ic *InvokeContext) Meta(i int) (solana.AccountMeta, error) {
	if i < 0 || i >= len(ic.metas) {
		return solana.AccountMeta{}, ErrInvalidAccountIndex
	}
	return ic.metas[i], nil
}

// Account returns the working copy of instruction account i. Mutations
// become visible to later instructions and are committed with the
// transaction.
func (ic *InvokeContext) Account(i int) (*Account, error) {
	meta, err := ic.Meta(i)
	if err != nil {
		return nil, err
	}
	acct, ok := ic.working[meta.Pubkey]
	if !ok {
		return nil, ErrInvalidAccountIndex
	}
	return acct, nil
}

// MinimumBalance exposes the bank's rent model to processors.
func (ic *InvokeContext) MinimumBalance(dataLen int) uint64 {
	return ic.bank.rent.MinimumBalance(dataLen)
}

func (ic *InvokeContext) Logger() *zap.Logger {
	return ic.bank.log
}

// Invoke performs a cross-program invocation. Requested signer
// privileges must be backed by transaction signers or by pdaSigners
// (program-derived addresses the caller signs for).
func (ic *InvokeContext) Invoke(ix solana.Instruction, pdaSigners []solana.Pubkey) error {
	if ic.depth >= maxInvokeDepth {
		return ErrCallDepthExceeded
	}
	prog, ok := ic.bank.programs[ix.ProgramID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, ix.ProgramID.Base58())
	}

	pda := make(map[solana.Pubkey]bool, len(pdaSigners))
	for _, pk := range pdaSigners {
		pda[pk] = true
	}
	for _, am := range ix.Accounts {
		if am.IsSigner && !ic.signers[am.Pubkey] && !pda[am.Pubkey] {
			return fmt.Errorf("%w: %s is not a signer", ErrPrivilegeEscalation, am.Pubkey.Base58())
		}
		if _, ok := ic.working[am.Pubkey]; !ok {
			// CPI may only touch accounts already loaded by the transaction.
			return fmt.Errorf("%w: %s not in transaction", ErrInvalidAccountIndex, am.Pubkey.Base58())
		}
	}

	child := &InvokeContext{
		bank:      ic.bank,
		working:   ic.working,
		signers:   ic.signers,
		programID: ix.ProgramID,
		metas:     ix.Accounts,
		data:      ix.Data,
		depth:     ic.depth + 1,
	}
	ic.bank.log.Info("program invoke",
		zap.String("program", prog.name),
		zap.String("id", ix.ProgramID.Base58()),
		zap.Int("depth", child.depth))
	if err := prog.process(child); err != nil {
		ic.bank.log.Info("program failed",
			zap.String("program", prog.name),
			zap.Error(err))
		return err
	}
	ic.bank.log.Info("program success", zap.String("program", prog.name))
	return nil
}

func processComputeBudgetInstruction(ic *InvokeContext) error {
	// Compute metering is not modeled; accept well-formed requests.
	if len(ic.Data()) == 0 {
		return ErrInvalidInstructionData
	}
	return nil
}
