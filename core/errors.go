package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidIdentity    = errors.New("invalid identity")
	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrChallengeExpired   = errors.New("challenge expired")
	ErrSignatureInvalid   = errors.New("signature invalid")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Internal refinements. Callers outside the verifier and tokenizer should
// only test against the categories above.
var (
	ErrMalformedSignature = fmt.Errorf("%w: malformed signature", ErrSignatureInvalid)
	ErrIdentityMismatch   = fmt.Errorf("%w: recovered address does not match", ErrSignatureInvalid)
	ErrTokenRoleMismatch  = fmt.Errorf("%w: unexpected token role", ErrTokenInvalid)
)
