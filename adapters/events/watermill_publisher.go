package events

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/oklog/ulid/v2"

	"github.com/layer-3/walletauth/ports"
)

const (
	LoginTopic  = "walletauth.login"
	LogoutTopic = "walletauth.logout"
)

// SessionEvent is the payload of login and logout events
type SessionEvent struct {
	Address    string    `json:"address"`
	OccurredAt time.Time `json:"occurred_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	clock     ports.Clock
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher, clock ports.Clock) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		clock:     clock,
	}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, address string) error {
	return p.publish(ctx, LoginTopic, address)
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, address string) error {
	return p.publish(ctx, LogoutTopic, address)
}

func (p *WatermillPublisher) publish(ctx context.Context, topic, address string) error {
	now := p.clock.Now()
	payload, err := json.Marshal(SessionEvent{
		Address:    address,
		OccurredAt: now.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate event id: %w", err)
	}

	msg := message.NewMessage(id.String(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) PublishLogin(context.Context, string) error  { return nil }
func (NopPublisher) PublishLogout(context.Context, string) error { return nil }

var (
	_ ports.EventPublisher = (*WatermillPublisher)(nil)
	_ ports.EventPublisher = NopPublisher{}
)
