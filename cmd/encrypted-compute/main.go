package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/arcium-labs/encrypted-compute/program"
	"github.com/arcium-labs/encrypted-compute/rpc"
	"github.com/arcium-labs/encrypted-compute/solana"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(argv []string) error {
	if len(argv) == 0 || argv[0] == "-h" || argv[0] == "--help" || argv[0] == "help" {
		printUsage(os.Stdout)
		return nil
	}

	switch argv[0] {
	case "initialize":
		return cmdInitialize(argv[1:])
	case "show":
		return cmdShow(argv[1:])
	case "list":
		return cmdList(argv[1:])
	default:
		return fmt.Errorf("unknown command: %s", argv[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "encrypted-compute: arcium encrypted compute tooling")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  encrypted-compute initialize -data-hash <hash> [-keypair <path>] [-rpc <url>] [-cu-price <microlamports>]")
	fmt.Fprintln(w, "  encrypted-compute show -account <pubkey> [-rpc <url>]")
	fmt.Fprintln(w, "  encrypted-compute list -hash-len <n> [-rpc <url>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  initialize  Create and initialize an encrypted compute account storing the given data hash.")
	fmt.Fprintln(w, "  show        Fetch and decode an encrypted compute account.")
	fmt.Fprintln(w, "  list        List program accounts whose stored data hash has the given length.")
}

func newClient(rpcURL string) (*rpc.Client, error) {
	if rpcURL != "" {
		return rpc.New(rpcURL, nil), nil
	}
	return rpc.ClientFromEnv()
}

func cmdInitialize(argv []string) error {
	fs := flag.NewFlagSet("initialize", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var dataHash, keypairPath, rpcURL string
	var cuPrice uint64
	fs.StringVar(&dataHash, "data-hash", "", "Content fingerprint to store")
	fs.StringVar(&keypairPath, "keypair", solana.DefaultKeypairPath(), "Path to the payer keypair (Solana id.json format)")
	fs.StringVar(&rpcURL, "rpc", "", "RPC endpoint (default: SOLANA_RPC_URL)")
	fs.Uint64Var(&cuPrice, "cu-price", 0, "Priority fee in microlamports per compute unit")
	if err := fs.Parse(argv); err != nil {
		return err
	}
	if dataHash == "" {
		return fmt.Errorf("-data-hash required")
	}

	payer, err := solana.LoadKeypairFile(keypairPath)
	if err != nil {
		return fmt.Errorf("load keypair: %w", err)
	}

	client, err := newClient(rpcURL)
	if err != nil {
		return err
	}

	ecAccount, err := solana.NewKeypair()
	if err != nil {
		return err
	}

	ix, err := program.NewInitializeInstruction(
		&program.InitializeInstructionAccounts{
			EncryptedCompute: ecAccount.Pubkey(),
			User:             payer.Pubkey(),
		},
		&program.InitializeInstructionArgs{DataHash: dataHash},
	)
	if err != nil {
		return err
	}

	ixs := make([]solana.Instruction, 0, 2)
	if cuPrice > 0 {
		ixs = append(ixs, solana.ComputeBudgetSetComputeUnitPrice(cuPrice))
	}
	ixs = append(ixs, ix)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	blockhash, err := client.LatestBlockhash(ctx)
	if err != nil {
		return fmt.Errorf("latest blockhash: %w", err)
	}

	tx, err := solana.NewSignedTransaction(blockhash, payer, []solana.Keypair{ecAccount}, ixs)
	if err != nil {
		return err
	}

	sig, err := client.SendTransaction(ctx, tx, false)
	if err != nil {
		return fmt.Errorf("send transaction: %w", err)
	}

	fmt.Println("account:", ecAccount.Pubkey().Base58())
	fmt.Println("signature:", sig)
	return nil
}

func cmdShow(argv []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var account, rpcURL string
	fs.StringVar(&account, "account", "", "Encrypted compute account address")
	fs.StringVar(&rpcURL, "rpc", "", "RPC endpoint (default: SOLANA_RPC_URL)")
	if err := fs.Parse(argv); err != nil {
		return err
	}
	if account == "" {
		return fmt.Errorf("-account required")
	}
	pk, err := solana.ParsePubkey(account)
	if err != nil {
		return err
	}

	client, err := newClient(rpcURL)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data, err := client.AccountDataBase64(ctx, pk.Base58())
	if err != nil {
		return fmt.Errorf("fetch account: %w", err)
	}

	state, err := program.DecodeEncryptedCompute(data)
	if err != nil {
		return err
	}
	fmt.Println("data_hash:", state.DataHash)
	fmt.Println("user:", state.User.Base58())
	return nil
}

func cmdList(argv []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var hashLen uint64
	var rpcURL string
	fs.Uint64Var(&hashLen, "hash-len", 0, "Length of the stored data hash")
	fs.StringVar(&rpcURL, "rpc", "", "RPC endpoint (default: SOLANA_RPC_URL)")
	if err := fs.Parse(argv); err != nil {
		return err
	}
	if hashLen == 0 || hashLen > program.MaxDataHashLen {
		return fmt.Errorf("-hash-len must be in [1,%d]", program.MaxDataHashLen)
	}

	client, err := newClient(rpcURL)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	state := program.EncryptedCompute{DataHash: string(make([]byte, hashLen))}
	accounts, err := client.ProgramAccountsByDataSizeBase64(ctx, program.ProgramID.Base58(), uint64(state.Space()))
	if err != nil {
		return fmt.Errorf("list program accounts: %w", err)
	}

	for _, acct := range accounts {
		decoded, err := program.DecodeEncryptedCompute(acct.Data)
		if err != nil {
			fmt.Printf("%s: %v\n", acct.Pubkey, err)
			continue
		}
		fmt.Printf("%s data_hash=%s user=%s\n", acct.Pubkey, decoded.DataHash, decoded.User.Base58())
	}
	return nil
}
