// Package signer provides the single-owner transaction signer (nonce
// allocation MUST be serialized per spec.md §5) and the relay's
// dedicated auth key pair.
package signer

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer is the bot's single-owner transaction signer: it serializes
// nonce allocation behind a mutex so the two attacker-side legs of a
// sandwich bundle never collide.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address

	mu        sync.Mutex
	nextNonce uint64
}

// New constructs a Signer from a raw ECDSA private key, starting nonce
// allocation at startNonce (typically the account's current on-chain
// nonce).
func New(key *ecdsa.PrivateKey, startNonce uint64) *Signer {
	return &Signer{
		key:       key,
		address:   crypto.PubkeyToAddress(key.PublicKey),
		nextNonce: startNonce,
	}
}

// Address returns the signer's on-chain address.
func (s *Signer) Address() common.Address {
	return s.address
}

// AllocateNonce returns the next nonce to use and advances the
// counter, serialized under a mutex so concurrent builders never reuse
// a value.
func (s *Signer) AllocateNonce() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.nextNonce
	s.nextNonce++
	return n
}

// SignTransaction signs tx with the signer's key for the given chain ID
// using London (EIP-1559) signing rules.
func (s *Signer) SignTransaction(tx *types.Transaction, chainID uint64) (*types.Transaction, error) {
	londonSigner := types.NewLondonSigner(new(big.Int).SetUint64(chainID))
	signed, err := types.SignTx(tx, londonSigner, s.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return signed, nil
}
