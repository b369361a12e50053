package verifier

import (
	"fmt"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/internal/eth"
	"github.com/layer-3/walletauth/ports"
)

// EthVerifier checks personal_sign signatures made by Ethereum accounts
type EthVerifier struct{}

// NewEthVerifier creates a new Ethereum signature verifier
func NewEthVerifier() ports.SignatureVerifier {
	return &EthVerifier{}
}

// Verify recovers the signer of message and compares it to address
func (v *EthVerifier) Verify(message, signature, address string) error {
	expected, err := eth.NormalizeAddress(address)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidIdentity, err)
	}

	sig, err := eth.DecodeSignature(signature)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrMalformedSignature, err)
	}

	recovered, err := eth.RecoverAddress(message, sig)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrMalformedSignature, err)
	}

	if recovered.Hex() != expected {
		return core.ErrIdentityMismatch
	}

	return nil
}
