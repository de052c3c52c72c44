package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/calyptra/gatehouse/ports"
)

// Event types published on the auth topic.
const (
	TypeLogout                 = "auth.logout"
	TypeLogoutEverywhere       = "auth.logout_everywhere"
	TypeRegistrationRequested  = "auth.registration_requested"
	TypePasswordResetRequested = "auth.password_reset_requested"
)

// AuthEvent is the wire shape of every event on the auth topic. Token is set
// only on mailer-bound events (registration, password reset).
type AuthEvent struct {
	Type      string    `json:"type"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	ClientKey string    `json:"client_key,omitempty"`
	Token     string    `json:"token,omitempty"`
	At        time.Time `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

var _ ports.EventPublisher = (*WatermillPublisher)(nil)

// NewWatermillPublisher creates a publisher on the gatehouse auth topic.
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     "gatehouse.auth",
	}
}

// PublishLogout publishes a single-device logout event.
func (p *WatermillPublisher) PublishLogout(ctx context.Context, username, clientKey string) error {
	return p.publish(AuthEvent{Type: TypeLogout, Username: username, ClientKey: clientKey})
}

// PublishLogoutEverywhere publishes a logout-everywhere event.
func (p *WatermillPublisher) PublishLogoutEverywhere(ctx context.Context, username string) error {
	return p.publish(AuthEvent{Type: TypeLogoutEverywhere, Username: username})
}

// PublishRegistrationRequested hands the confirmation token to the mailer.
func (p *WatermillPublisher) PublishRegistrationRequested(ctx context.Context, username, email, token string) error {
	return p.publish(AuthEvent{Type: TypeRegistrationRequested, Username: username, Email: email, Token: token})
}

// PublishPasswordResetRequested hands the reset token to the mailer.
func (p *WatermillPublisher) PublishPasswordResetRequested(ctx context.Context, username, email, token string) error {
	return p.publish(AuthEvent{Type: TypePasswordResetRequested, Username: username, Email: email, Token: token})
}

func (p *WatermillPublisher) publish(event AuthEvent) error {
	event.At = time.Now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
