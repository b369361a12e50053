package eth

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer produces personal_sign signatures, the way a wallet does
type Signer interface {
	Address() common.Address
	SignText(message string) (string, error)
}

// KeySigner signs with an in-process secp256k1 key
type KeySigner struct {
	key *ecdsa.PrivateKey
}

// NewKeySigner wraps an existing private key
func NewKeySigner(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{key: key}
}

// NewKeySignerFromHex loads a private key given as hex, with or without 0x
func NewKeySignerFromHex(hexKey string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %w", err)
	}
	return NewKeySigner(key), nil
}

// GenerateKeySigner creates a signer with a fresh random key
func GenerateKeySigner() (*KeySigner, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return NewKeySigner(key), nil
}

// Address returns the address of the signing key
func (s *KeySigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// SignText returns the hex encoded personal_sign signature of message with V in {27, 28}
func (s *KeySigner) SignText(message string) (string, error) {
	sig, err := crypto.Sign(TextHash(message), s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}
