// Package programtest provisions isolated, disposable ledger runtimes
// for exercising native programs end to end: register the program under
// test, start a context with a funded payer, submit signed transactions,
// and inspect resulting account state.
package programtest

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/arcium-labs/encrypted-compute/runtime"
	"github.com/arcium-labs/encrypted-compute/solana"
)

// DefaultPayerLamports is the genesis balance of the test payer.
const DefaultPayerLamports uint64 = 500_000_000_000

var ErrNoPrograms = errors.New("no programs registered")

type programEntry struct {
	name      string
	id        solana.Pubkey
	processor runtime.Processor
}

// ProgramTest accumulates the programs and settings of one test
// environment. Each Start produces a fully isolated ledger; nothing is
// shared between runs.
type ProgramTest struct {
	programs      []programEntry
	payerLamports uint64
	log           *zap.Logger
}

func New(name string, id solana.Pubkey, processor runtime.Processor) *ProgramTest {
	pt := &ProgramTest{payerLamports: DefaultPayerLamports}
	pt.AddProgram(name, id, processor)
	return pt
}

func (pt *ProgramTest) AddProgram(name string, id solana.Pubkey, processor runtime.Processor) {
	pt.programs = append(pt.programs, programEntry{name: name, id: id, processor: processor})
}

func (pt *ProgramTest) SetPayerLamports(lamports uint64) {
	pt.payerLamports = lamports
}

func (pt *ProgramTest) SetLogger(log *zap.Logger) {
	pt.log = log
}

// Start provisions a fresh bank preloaded with the registered programs
// and a funded payer.
func (pt *ProgramTest) Start(ctx context.Context) (*Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(pt.programs) == 0 {
		return nil, ErrNoPrograms
	}

	bank := runtime.NewBank(pt.log)
	for _, p := range pt.programs {
		bank.RegisterProgram(p.name, p.id, p.processor)
	}

	payer, err := bank.CreateFundedAccount(pt.payerLamports)
	if err != nil {
		return nil, err
	}

	return &Context{
		Payer:         payer,
		LastBlockhash: bank.LatestBlockhash(),
		Banks:         &BanksClient{bank: bank},
	}, nil
}

// Context is one provisioned environment: the funded payer, a reference
// blockhash for transaction validity, and a client into the bank.
type Context struct {
	Payer         solana.Keypair
	LastBlockhash [32]byte
	Banks         *BanksClient
}

// BanksClient submits transactions to and queries accounts of the
// context's bank.
type BanksClient struct {
	bank *runtime.Bank
}

// ProcessTransaction submits one wire-encoded transaction. Any
// verification or execution failure is returned as an error; nothing is
// retried.
func (c *BanksClient) ProcessTransaction(ctx context.Context, wireTx []byte) error {
	return c.bank.ProcessTransaction(ctx, wireTx)
}

// GetAccount returns the account at pk, or nil if it does not exist.
func (c *BanksClient) GetAccount(ctx context.Context, pk solana.Pubkey) (*runtime.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.bank.GetAccount(pk), nil
}

func (c *BanksClient) GetBalance(ctx context.Context, pk solana.Pubkey) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return c.bank.Balance(pk), nil
}

// LatestBlockhash returns the bank's current reference blockhash.
func (c *BanksClient) LatestBlockhash(ctx context.Context) ([32]byte, error) {
	if err := ctx.Err(); err != nil {
		return [32]byte{}, err
	}
	return c.bank.LatestBlockhash(), nil
}

// AdvanceBlockhash rotates the bank to a fresh blockhash, useful for
// exercising blockhash expiry.
func (c *BanksClient) AdvanceBlockhash(ctx context.Context) ([32]byte, error) {
	if err := ctx.Err(); err != nil {
		return [32]byte{}, err
	}
	return c.bank.AdvanceBlockhash(), nil
}
