package eth

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidAddress is returned when a string is not a well-formed account address
var ErrInvalidAddress = errors.New("invalid ethereum address")

// NormalizeAddress validates s and returns its EIP-55 checksummed form.
// All-lowercase and all-uppercase input is accepted as is; mixed case has to
// carry a correct checksum.
func NormalizeAddress(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return "", ErrInvalidAddress
	}

	checksummed := common.HexToAddress(s).Hex()

	digits := s
	if has0xPrefix(digits) {
		digits = digits[2:]
	}
	if isMixedCase(digits) && digits != checksummed[2:] {
		return "", ErrInvalidAddress
	}

	return checksummed, nil
}

// IsAddress reports whether s would be accepted by NormalizeAddress
func IsAddress(s string) bool {
	_, err := NormalizeAddress(s)
	return err == nil
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func isMixedCase(s string) bool {
	return strings.ToLower(s) != s && strings.ToUpper(s) != s
}
