package ports

import "context"

// EventPublisher notifies downstream collaborators (mailer, audit, other
// instances) about auth events. Publish failures never fail the operation
// that triggered them; the state change in the stores is what counts.
type EventPublisher interface {
	PublishLogout(ctx context.Context, username, clientKey string) error
	PublishLogoutEverywhere(ctx context.Context, username string) error

	// PublishRegistrationRequested carries the confirmation token for the
	// mailer collaborator; email delivery itself is out of scope.
	PublishRegistrationRequested(ctx context.Context, username, email, token string) error

	// PublishPasswordResetRequested carries the reset token for the mailer.
	PublishPasswordResetRequested(ctx context.Context, username, email, token string) error
}
