package ports

import "context"

// EventPublisher publishes session events to other instances
type EventPublisher interface {
	PublishLogin(ctx context.Context, address string) error
	PublishLogout(ctx context.Context, address string) error
}
