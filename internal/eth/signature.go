package eth

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidSignature is returned when a signature cannot be decoded or recovered
var ErrInvalidSignature = errors.New("invalid signature")

// TextHash returns the EIP-191 personal message digest of message,
// the digest wallets sign for personal_sign
func TextHash(message string) []byte {
	return accounts.TextHash([]byte(message))
}

// DecodeSignature parses a hex encoded 65 byte [R || S || V] signature.
// The 0x prefix is optional and V may be given as 0/1 or 27/28.
// The returned signature always uses V in {0, 1}.
func DecodeSignature(s string) ([]byte, error) {
	if !has0xPrefix(s) {
		s = "0x" + s
	}

	sig, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("%w: signature must be %d bytes, got %d", ErrInvalidSignature, crypto.SignatureLength, len(sig))
	}

	switch v := sig[crypto.RecoveryIDOffset]; v {
	case 0, 1:
	case 27, 28:
		sig[crypto.RecoveryIDOffset] = v - 27
	default:
		return nil, fmt.Errorf("%w: unsupported recovery id %d", ErrInvalidSignature, v)
	}

	return sig, nil
}

// RecoverAddress returns the address whose key produced sig over the
// personal message digest of message
func RecoverAddress(message string, sig []byte) (common.Address, error) {
	pub, err := crypto.SigToPub(TextHash(message), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
