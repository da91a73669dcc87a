package signer

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// AuthSigner is the relay's dedicated auth key pair, used to sign the
// bundle submission body (spec.md §4.8). It is ephemeral by default;
// operators MAY persist the underlying key across restarts.
type AuthSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewAuthSigner generates a fresh ephemeral auth key.
func NewAuthSigner() (*AuthSigner, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate auth key: %w", err)
	}
	return NewAuthSignerFromKey(key), nil
}

// NewAuthSignerFromKey wraps an existing private key, for operators who
// persist the auth identity across restarts.
func NewAuthSignerFromKey(key *ecdsa.PrivateKey) *AuthSigner {
	return &AuthSigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

// Address returns the auth key's address, as carried in the
// X-Flashbots-Signature header.
func (a *AuthSigner) Address() common.Address {
	return a.address
}

// SignMessage signs the standard Ethereum personal-message hash of body
// (keccak256 over the prefix "\x19Ethereum Signed Message:\n", the
// decimal length of body, and body itself), returning a 65-byte
// [R || S || V] signature with V in {27, 28}.
func (a *AuthSigner) SignMessage(body []byte) ([]byte, error) {
	hash := accounts.TextHash(body)
	sig, err := crypto.Sign(hash, a.key)
	if err != nil {
		return nil, fmt.Errorf("sign bundle body: %w", err)
	}
	sig[64] += 27
	return sig, nil
}
