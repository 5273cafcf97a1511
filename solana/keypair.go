package solana

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrInvalidKeypairFile = errors.New("invalid keypair file")

// Keypair holds an ed25519 signing key together with its public key.
type Keypair struct {
	priv ed25519.PrivateKey
	pub  Pubkey
}

func NewKeypair() (Keypair, error) {
	var kp Keypair
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return kp, fmt.Errorf("generate keypair: %w", err)
	}
	kp.priv = priv
	copy(kp.pub[:], pub)
	return kp, nil
}

func KeypairFromSeed(seed []byte) (Keypair, error) {
	var kp Keypair
	if len(seed) != ed25519.SeedSize {
		return kp, fmt.Errorf("keypair seed must be %d bytes", ed25519.SeedSize)
	}
	kp.priv = ed25519.NewKeyFromSeed(seed)
	pub := kp.priv.Public().(ed25519.PublicKey)
	copy(kp.pub[:], pub)
	return kp, nil
}

func (kp Keypair) Pubkey() Pubkey {
	return kp.pub
}

func (kp Keypair) PrivateKey() ed25519.PrivateKey {
	return kp.priv
}

func (kp Keypair) Sign(message []byte) [64]byte {
	var sig [64]byte
	copy(sig[:], ed25519.Sign(kp.priv, message))
	return sig
}

func DefaultKeypairPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "solana", "id.json")
}

// LoadKeypairFile reads a keypair in the Solana CLI id.json format,
// a JSON array of 64 byte values (seed followed by public key).
func LoadKeypairFile(path string) (Keypair, error) {
	var kp Keypair
	if path == "" {
		return kp, fmt.Errorf("keypair path required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return kp, err
	}

	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return kp, ErrInvalidKeypairFile
	}
	if len(ints) != ed25519.PrivateKeySize {
		return kp, ErrInvalidKeypairFile
	}

	key := make([]byte, ed25519.PrivateKeySize)
	for i, v := range ints {
		if v < 0 || v > 255 {
			return kp, ErrInvalidKeypairFile
		}
		key[i] = byte(v)
	}

	priv := ed25519.PrivateKey(key)
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok || len(pub) != ed25519.PublicKeySize {
		return kp, ErrInvalidKeypairFile
	}
	kp.priv = priv
	copy(kp.pub[:], pub)
	return kp, nil
}
