package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calyptra/gatehouse/core"
	"github.com/calyptra/gatehouse/ports"
)

// Default lifetimes for the mailer-bound token purposes.
const (
	DefaultConfirmTTL = 24 * time.Hour
	DefaultResetTTL   = time.Hour
)

// AccountService covers the account lifecycle around the session core:
// registration with email confirmation, password recovery, and password
// change. Confirmation and reset emails are out of scope; the token-bearing
// events go to the publisher instead.
type AccountService struct {
	users  ports.UserStore
	store  ports.RevocationStore
	codec  ports.TokenCodec
	hasher ports.PasswordHasher
	events ports.EventPublisher
	log    *zap.Logger

	confirmTTL time.Duration
	resetTTL   time.Duration

	now func() time.Time
}

// NewAccountService creates an account service. Non-positive lifetimes
// select the defaults.
func NewAccountService(
	users ports.UserStore,
	store ports.RevocationStore,
	codec ports.TokenCodec,
	hasher ports.PasswordHasher,
	events ports.EventPublisher,
	log *zap.Logger,
	confirmTTL, resetTTL time.Duration,
) *AccountService {
	if confirmTTL <= 0 {
		confirmTTL = DefaultConfirmTTL
	}
	if resetTTL <= 0 {
		resetTTL = DefaultResetTTL
	}
	return &AccountService{
		users:      users,
		store:      store,
		codec:      codec,
		hasher:     hasher,
		events:     events,
		log:        log,
		confirmTTL: confirmTTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// Register creates a deactivated account and publishes a confirmation token
// for the mailer. The account cannot log in until confirmed.
func (s *AccountService) Register(ctx context.Context, username, email, password, firstName, lastName string) (*core.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, depErr(err)
	}
	if exists {
		if u, err := s.users.FindByUsername(ctx, username); err == nil && u != nil {
			return nil, core.ErrUsernameExists
		}
		return nil, core.ErrEmailExists
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &core.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		PasswordHash: hash,
		Roles:        []string{core.RoleUser},
		Activated:    false,
		NonLocked:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, depErr(err)
	}

	s.sendConfirmation(ctx, user)
	return user, nil
}

// ConfirmRegistration activates the account named by a confirmation token.
func (s *AccountService) ConfirmRegistration(ctx context.Context, token string) error {
	info, err := s.codec.Verify(core.StripBearer(token), core.PurposeConfirmRegistration)
	if err != nil {
		return err
	}
	user, err := s.users.FindByUsername(ctx, info.Subject)
	if err != nil {
		return depErr(err)
	}
	if user == nil {
		return core.ErrUserNotFound
	}
	if user.Activated {
		return nil
	}
	user.Activated = true
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Save(ctx, user); err != nil {
		return depErr(err)
	}
	return nil
}

// ResendConfirmation publishes a fresh confirmation token for an account
// that has not been activated yet.
func (s *AccountService) ResendConfirmation(ctx context.Context, usernameOrEmail string) error {
	user, err := s.users.FindByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		return depErr(err)
	}
	if user == nil {
		return core.ErrUserNotFound
	}
	if user.Activated {
		return nil
	}
	s.sendConfirmation(ctx, user)
	return nil
}

// ForgotPassword publishes a reset token for the mailer.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByUsernameOrEmail(ctx, email)
	if err != nil {
		return depErr(err)
	}
	if user == nil {
		return core.ErrUserNotFound
	}

	token, err := s.codec.Mint(user.Username, core.PurposeForgotPassword, s.resetTTL)
	if err != nil {
		return err
	}
	if err := s.events.PublishPasswordResetRequested(ctx, user.Username, user.Email, token); err != nil {
		s.log.Warn("failed to publish password-reset event",
			zap.String("username", user.Username), zap.Error(err))
	}
	return nil
}

// ResetPassword sets a new password via a reset token, then logs the user
// out everywhere: sessions stolen along with the old password die with it.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	info, err := s.codec.Verify(core.StripBearer(token), core.PurposeForgotPassword)
	if err != nil {
		return err
	}
	user, err := s.users.FindByUsername(ctx, info.Subject)
	if err != nil {
		return depErr(err)
	}
	if user == nil {
		return core.ErrUserNotFound
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	user.PasswordHash = hash
	user.LogoutAt = now.Truncate(time.Second)
	user.UpdatedAt = now
	if err := s.users.Save(ctx, user); err != nil {
		return depErr(err)
	}
	if err := s.store.DeleteAllRefreshSessions(ctx, user.Username); err != nil {
		return depErr(err)
	}
	return nil
}

// ChangePassword updates the password of an authenticated user after
// checking the old one.
func (s *AccountService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return depErr(err)
	}
	if user == nil {
		return core.ErrUserNotFound
	}
	if !s.hasher.Matches(oldPassword, user.PasswordHash) {
		return core.ErrWrongPassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Save(ctx, user); err != nil {
		return depErr(err)
	}
	return nil
}

// UpdateProfile edits name and email. An email change deactivates the
// account and triggers a fresh confirmation round.
func (s *AccountService) UpdateProfile(ctx context.Context, username, firstName, lastName, email string) (*core.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, depErr(err)
	}
	if user == nil {
		return nil, core.ErrUserNotFound
	}

	user.FirstName = strings.TrimSpace(firstName)
	user.LastName = strings.TrimSpace(lastName)

	email = strings.TrimSpace(strings.ToLower(email))
	emailChanged := email != "" && email != user.Email
	if emailChanged {
		taken, err := s.users.ExistsByUsernameOrEmail(ctx, "", email)
		if err != nil {
			return nil, depErr(err)
		}
		if taken {
			return nil, core.ErrEmailExists
		}
		user.Email = email
		user.Activated = false
	}

	user.UpdatedAt = s.now().UTC()
	if err := s.users.Save(ctx, user); err != nil {
		return nil, depErr(err)
	}
	if emailChanged {
		s.sendConfirmation(ctx, user)
	}
	return user, nil
}

func (s *AccountService) sendConfirmation(ctx context.Context, user *core.User) {
	token, err := s.codec.Mint(user.Username, core.PurposeConfirmRegistration, s.confirmTTL)
	if err != nil {
		s.log.Error("failed to mint confirmation token",
			zap.String("username", user.Username), zap.Error(err))
		return
	}
	if err := s.events.PublishRegistrationRequested(ctx, user.Username, user.Email, token); err != nil {
		s.log.Warn("failed to publish registration event",
			zap.String("username", user.Username), zap.Error(err))
	}
}
