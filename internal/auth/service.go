package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/parceldesk/parceldesk/internal/authz"
	"github.com/parceldesk/parceldesk/internal/shared"
	"github.com/parceldesk/parceldesk/internal/users"
)

// AccountsPort is the slice of the account service authentication needs.
type AccountsPort interface {
	CreateUser(ctx context.Context, input users.CreateUserInput) (*users.User, error)
	GetUser(ctx context.Context, id int64) (*users.User, error)
	FindByEmail(ctx context.Context, email string) (*users.User, error)
}

// Service wraps authentication business rules.
type Service struct {
	logger        *slog.Logger
	accounts      AccountsPort
	tokens        *TokenIssuer
	lookupTimeout time.Duration
	fallbackRole  authz.Role
}

// NewService constructs a new Service. fallbackRole is the role synthesized
// actors receive when the account lookup times out; it should stay at the
// least privileged role unless operators are routinely locked out.
func NewService(logger *slog.Logger, accounts AccountsPort, tokens *TokenIssuer, lookupTimeout time.Duration, fallbackRole authz.Role) *Service {
	if lookupTimeout <= 0 {
		lookupTimeout = 3 * time.Second
	}
	if !fallbackRole.Valid() {
		fallbackRole = authz.RoleCustomer
	}
	return &Service{
		logger:        logger,
		accounts:      accounts,
		tokens:        tokens,
		lookupTimeout: lookupTimeout,
		fallbackRole:  fallbackRole,
	}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*users.User, error) {
	user, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Burn a comparison so the miss is not timing-observable.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$invalidinvalidinvalidinvalidinvalidinvalidinvalidinva"), []byte(password))
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInactiveAccount
	}
	return user, nil
}

// SignUp registers a self-service account. Public signups always land on the
// customer role; elevated roles are assigned through the account admin.
func (s *Service) SignUp(ctx context.Context, email, name, password string) (*users.User, error) {
	return s.accounts.CreateUser(ctx, users.CreateUserInput{
		Email:    email,
		Name:     name,
		Password: password,
		Role:     authz.RoleCustomer,
	})
}

// IssueToken mints an access token for the account.
func (s *Service) IssueToken(user *users.User) (string, error) {
	return s.tokens.Issue(user)
}

// VerifyToken validates an access token and returns the subject account ID.
func (s *Service) VerifyToken(token string) (int64, error) {
	return s.tokens.Verify(token)
}

// ResolveActor loads the authorization view of an account, bounded by the
// configured lookup timeout. A timed-out lookup yields a degraded actor on
// the fallback role instead of an error, so a slow directory cannot take the
// whole console down. Any other failure is surfaced to the caller.
func (s *Service) ResolveActor(ctx context.Context, userID int64) (*authz.Actor, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	user, err := s.accounts.GetUser(lookupCtx, userID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			s.logger.Warn("actor lookup timed out, degrading",
				slog.Int64("user_id", userID),
				slog.String("fallback_role", string(s.fallbackRole)))
			return s.degradedActor(userID), nil
		}
		if errors.Is(err, users.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if user == nil {
		return nil, shared.ErrNotFound
	}
	return user.Actor(), nil
}

func (s *Service) degradedActor(userID int64) *authz.Actor {
	return &authz.Actor{
		ID:          userID,
		Role:        s.fallbackRole,
		Permissions: authz.DefaultPermissions(s.fallbackRole),
		IsActive:    true,
		Degraded:    true,
	}
}
