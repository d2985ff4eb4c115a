package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/buscacontatos/buscacontatos/internal/auth"
	"github.com/buscacontatos/buscacontatos/internal/metrics"
	"github.com/buscacontatos/buscacontatos/internal/model"
	"github.com/buscacontatos/buscacontatos/internal/repository"
	"github.com/buscacontatos/buscacontatos/internal/session"
)

// AuthCache stores the callers resolved from API keys. *cache.Cache implements it.
type AuthCache interface {
	GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error)
	SetAuthContext(ctx context.Context, cacheKey string, ac *model.AuthContext) error
	DeleteAuthContext(ctx context.Context, keyID string) error
}

// AuthService signs users in and out and authenticates API keys.
type AuthService struct {
	repo    *repository.Repository
	session *session.Context
	decoder *auth.IdentityDecoder
	cache   AuthCache
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// AuthServiceConfig holds the dependencies of an AuthService.
type AuthServiceConfig struct {
	Repository *repository.Repository
	Session    *session.Context
	Decoder    *auth.IdentityDecoder
	Cache      AuthCache // optional
	Logger     *slog.Logger
	Metrics    metrics.Recorder
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	decoder := cfg.Decoder
	if decoder == nil {
		decoder = auth.NewIdentityDecoder("")
	}
	return &AuthService{
		repo:    cfg.Repository,
		session: cfg.Session,
		decoder: decoder,
		cache:   cfg.Cache,
		logger:  cfg.Logger.With("component", "auth"),
		metrics: recorder,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Login signs in the user with email. The password is accepted as given;
// accounts carry no stored credential.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLogin("password", "not_found")
			return nil, fmt.Errorf("%w: no user with that email", ErrNotFound)
		}
		return nil, err
	}

	if err := s.establish(ctx, user, "password"); err != nil {
		return nil, err
	}
	return user, nil
}

// LoginWithExternalIdentity signs in with an identity token. Unknown emails get
// a new approved USER account; known users get missing external fields filled.
// A token that cannot be decoded fails with ErrInvalidToken.
func (s *AuthService) LoginWithExternalIdentity(ctx context.Context, token string) (*model.User, error) {
	identity, err := s.decoder.Decode(token)
	if err != nil {
		s.metrics.IncLogin("external", "invalid_token")
		s.logger.WarnContext(ctx, "identity token rejected", "error", err)
		return nil, err
	}

	user, err := s.repo.GetUserByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		user, err = s.linkIdentity(ctx, user, identity)
		if err != nil {
			return nil, err
		}
	case errors.Is(err, repository.ErrUserNotFound):
		user, err = s.createFromIdentity(ctx, identity)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := s.establish(ctx, user, "external"); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) linkIdentity(ctx context.Context, user *model.User, identity auth.Identity) (*model.User, error) {
	updated, changed, err := s.repo.UpdateUser(ctx, user.ID, func(u *model.User) bool {
		changed := false
		if u.GoogleID == "" && identity.ExternalID != "" {
			u.GoogleID = identity.ExternalID
			changed = true
		}
		if u.Picture == "" && identity.Picture != "" {
			u.Picture = identity.Picture
			changed = true
		}
		return changed
	})
	if err != nil {
		return nil, fmt.Errorf("link external identity: %w", err)
	}
	if changed {
		s.logger.InfoContext(ctx, "external identity linked", "user_id", updated.ID)
	}
	return updated, nil
}

func (s *AuthService) createFromIdentity(ctx context.Context, identity auth.Identity) (*model.User, error) {
	user := &model.User{
		Name:          identity.Name,
		Email:         identity.Email,
		Role:          model.RoleUser,
		Status:        model.StatusApproved,
		EmailVerified: true,
		GoogleID:      identity.ExternalID,
		Picture:       identity.Picture,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user from identity: %w", err)
	}
	s.logger.InfoContext(ctx, "user created from external identity", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) establish(ctx context.Context, user *model.User, method string) error {
	if !user.IsApproved() {
		s.metrics.IncLogin(method, "not_approved")
		s.logger.InfoContext(ctx, "login refused", "user_id", user.ID, "status", user.Status)
		return &AccountNotApprovedError{Status: user.Status}
	}
	if err := s.session.Establish(ctx, user.ID); err != nil {
		s.metrics.IncLogin(method, "error")
		return err
	}
	s.metrics.IncLogin(method, "success")
	s.logger.InfoContext(ctx, "login succeeded", "user_id", user.ID, "method", method)
	return nil
}

// Logout clears the session.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.session.Clear(ctx)
}

// CurrentUser resolves the session to a user. It returns nil, nil when no one
// is signed in or the signed-in user no longer exists.
func (s *AuthService) CurrentUser(ctx context.Context) (*model.User, error) {
	id, ok := s.session.Current(ctx)
	if !ok {
		return nil, nil
	}
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// RequireUser is CurrentUser that fails with ErrUnauthenticated when nobody is signed in.
func (s *AuthService) RequireUser(ctx context.Context) (*model.User, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// AuthenticateAPIKey resolves a plaintext API key to its caller.
// Every failure is reported as ErrUnauthenticated.
func (s *AuthService) AuthenticateAPIKey(ctx context.Context, plaintext string) (*model.AuthContext, error) {
	parsed, err := auth.ParseAPIKey(plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	cacheKey := auth.QuickHash(plaintext)
	if s.cache != nil {
		if ac, _ := s.cache.GetAuthContext(ctx, cacheKey); ac != nil {
			return ac, nil
		}
	}

	candidates, err := s.repo.FindAPIKeysByPrefix(ctx, parsed.Prefix)
	if err != nil {
		return nil, err
	}

	var matched *repository.OwnedAPIKey
	for i := range candidates {
		ok, err := auth.VerifySecret(plaintext, candidates[i].Key.KeyHash)
		if err != nil {
			continue
		}
		if ok {
			matched = &candidates[i]
			break
		}
	}
	if matched == nil {
		return nil, fmt.Errorf("%w: unknown API key", ErrUnauthenticated)
	}

	owner, err := s.repo.GetUserByID(ctx, matched.Owner)
	if err != nil {
		return nil, fmt.Errorf("%w: key owner not found", ErrUnauthenticated)
	}
	if !owner.IsApproved() {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, &AccountNotApprovedError{Status: owner.Status})
	}

	ac := &model.AuthContext{
		KeyID:     matched.Key.ID,
		KeyPrefix: matched.Key.KeyPrefix,
		UserID:    matched.Owner,
	}
	if s.cache != nil {
		if err := s.cache.SetAuthContext(ctx, cacheKey, ac); err != nil {
			s.logger.WarnContext(ctx, "failed to cache auth context", "key_id", ac.KeyID, "error", err)
		}
	}
	if err := s.repo.TouchAPIKey(ctx, matched.Owner, matched.Key.ID, s.now()); err != nil {
		s.logger.WarnContext(ctx, "failed to record API key use", "key_id", ac.KeyID, "error", err)
	}
	return ac, nil
}

// forgetAPIKey evicts a deleted key from the auth cache.
func (s *AuthService) forgetAPIKey(ctx context.Context, keyID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteAuthContext(ctx, keyID); err != nil {
		s.logger.WarnContext(ctx, "failed to evict cached API key", "key_id", keyID, "error", err)
	}
}
