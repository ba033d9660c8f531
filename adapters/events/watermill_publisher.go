package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/layer-3/accolade/ports"
)

const (
	// BadgeMintedTopic carries ports.BadgeMinted events
	BadgeMintedTopic = "accolade.badge_minted"

	// CredentialIssuedTopic carries ports.CredentialIssued events
	CredentialIssuedTopic = "accolade.credential_issued"
)

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
	}
}

// PublishBadgeMinted publishes a badge minted event
func (p *WatermillPublisher) PublishBadgeMinted(ctx context.Context, event ports.BadgeMinted) error {
	return p.publish(ctx, BadgeMintedTopic, event)
}

// PublishCredentialIssued publishes a credential issued event
func (p *WatermillPublisher) PublishCredentialIssued(ctx context.Context, event ports.CredentialIssued) error {
	return p.publish(ctx, CredentialIssuedTopic, event)
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", topic, err)
	}

	return nil
}
