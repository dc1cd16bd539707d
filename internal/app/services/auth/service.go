package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	domainauth "basobas/internal/domain/auth"
	"basobas/internal/domain/user"
)

const DefaultSessionTTL = 7 * 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrUnauthenticated    = errors.New("auth: missing or expired session")
)

// PasswordHasher abstracts the password hashing scheme. The bcrypt adapter in
// infra/security is the only production implementation.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
}

// TokenSource mints opaque session tokens.
type TokenSource interface {
	NewToken() (string, error)
}

type Service struct {
	Users      user.Repository
	Sessions   domainauth.SessionStore
	Hasher     PasswordHasher
	Tokens     TokenSource
	SessionTTL time.Duration
	Logger     *slog.Logger
	Now        func() time.Time
}

type RegisterParams struct {
	Email    string
	Name     string
	Phone    string
	Password string
	AsOwner  bool
}

type Credentials struct {
	UserID string   `json:"user_id"`
	Token  string   `json:"token"`
	Roles  []string `json:"roles"`
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*Credentials, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if _, err := s.Users.ByEmail(ctx, email); err == nil {
		return nil, user.ErrEmailAlreadyUsed
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}

	hash, err := s.Hasher.Hash(params.Password)
	if err != nil {
		return nil, err
	}
	roles := []user.Role{user.RoleUser}
	if params.AsOwner {
		roles = append(roles, user.RoleOwner)
	}
	created, err := user.NewUser(user.CreateParams{
		ID:           user.ID(uuid.NewString()),
		Email:        email,
		Name:         params.Name,
		Phone:        params.Phone,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Users.Save(ctx, created); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user registered", "user_id", created.ID, "owner", params.AsOwner)
	}
	return s.openSession(ctx, created)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Credentials, error) {
	found, err := s.Users.ByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.Hasher.Compare(found.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.openSession(ctx, found)
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.Sessions.Delete(ctx, domainauth.Token(token))
}

// Resolve maps a bearer token to its session, treating expired sessions as
// absent and deleting them on sight.
func (s *Service) Resolve(ctx context.Context, token string) (*domainauth.Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthenticated
	}
	session, err := s.Sessions.ByToken(ctx, domainauth.Token(token))
	if err != nil {
		if errors.Is(err, domainauth.ErrSessionNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if session.Expired(s.now()) {
		_ = s.Sessions.Delete(ctx, session.Token)
		return nil, ErrUnauthenticated
	}
	return session, nil
}

// Resolved pairs a live session with its user record.
type Resolved struct {
	User    *user.User
	Session *domainauth.Session
}

// ResolveToken maps a bearer token to the authenticated user.
func (s *Service) ResolveToken(ctx context.Context, token string) (*Resolved, error) {
	session, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	u, err := s.Users.ByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return &Resolved{User: u, Session: session}, nil
}

func (s *Service) openSession(ctx context.Context, u *user.User) (*Credentials, error) {
	token, err := s.Tokens.NewToken()
	if err != nil {
		return nil, err
	}
	session, err := domainauth.NewSession(domainauth.CreateSessionParams{
		Token:  domainauth.Token(token),
		UserID: u.ID,
		Roles:  u.Roles,
		TTL:    s.sessionTTL(),
		Now:    s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, string(r))
	}
	return &Credentials{UserID: string(u.ID), Token: token, Roles: roles}, nil
}

func (s *Service) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return DefaultSessionTTL
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
