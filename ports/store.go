package ports

import (
	"context"

	"github.com/layer-3/walletauth/core"
)

// ChallengeStore keeps at most one outstanding challenge per address
type ChallengeStore interface {
	// Put stores the challenge, replacing any previous one for the same address
	Put(ctx context.Context, challenge *core.Challenge) error

	// Get returns the current challenge or core.ErrChallengeNotFound
	Get(ctx context.Context, address string) (*core.Challenge, error)

	// Delete removes the challenge for address. Deleting a missing one is not an error
	Delete(ctx context.Context, address string) error

	// Consume deletes the challenge only if it is still the one identified by
	// challengeID and reports whether it did
	Consume(ctx context.Context, address, challengeID string) (bool, error)

	// Ping checks that the backing storage is reachable
	Ping(ctx context.Context) error
}
