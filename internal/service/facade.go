package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/buscacontatos/buscacontatos/internal/metrics"
	"github.com/buscacontatos/buscacontatos/internal/model"
	"github.com/buscacontatos/buscacontatos/internal/repository"
	"github.com/buscacontatos/buscacontatos/internal/search"
)

// ContactNotifier announces newly saved contacts. *webhook.Publisher implements it.
type ContactNotifier interface {
	PublishContactsCreated(ctx context.Context, hooks []model.Webhook, contacts []model.Contact)
}

// Facade is the single surface the HTTP layer calls.
type Facade struct {
	auth     *AuthService
	repo     *repository.Repository
	audit    *AuditLogger
	searcher search.Searcher
	notifier ContactNotifier
	validate *validator.Validate
	logger   *slog.Logger
	metrics  metrics.Recorder
	now      func() time.Time
}

// FacadeConfig holds the dependencies of a Facade.
type FacadeConfig struct {
	Auth       *AuthService
	Repository *repository.Repository
	Audit      *AuditLogger
	Searcher   search.Searcher // optional; Search fails with search.ErrUpstream without it
	Notifier   ContactNotifier // optional
	Logger     *slog.Logger
	Metrics    metrics.Recorder
}

// NewFacade creates a new Facade.
func NewFacade(cfg FacadeConfig) *Facade {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Facade{
		auth:     cfg.Auth,
		repo:     cfg.Repository,
		audit:    cfg.Audit,
		searcher: cfg.Searcher,
		notifier: cfg.Notifier,
		validate: validator.New(),
		logger:   cfg.Logger.With("component", "facade"),
		metrics:  recorder,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Login signs in by email.
func (f *Facade) Login(ctx context.Context, email, password string) (*model.User, error) {
	return f.auth.Login(ctx, email, password)
}

// LoginWithExternalIdentity signs in with an identity token.
func (f *Facade) LoginWithExternalIdentity(ctx context.Context, token string) (*model.User, error) {
	return f.auth.LoginWithExternalIdentity(ctx, token)
}

// Logout clears the session.
func (f *Facade) Logout(ctx context.Context) error {
	return f.auth.Logout(ctx)
}

// CurrentUser returns the signed-in user or nil.
func (f *Facade) CurrentUser(ctx context.Context) (*model.User, error) {
	return f.auth.CurrentUser(ctx)
}

// RequireUser returns the signed-in user or ErrUnauthenticated.
func (f *Facade) RequireUser(ctx context.Context) (*model.User, error) {
	return f.auth.RequireUser(ctx)
}

// AuthenticateAPIKey resolves an API key to its caller.
func (f *Facade) AuthenticateAPIKey(ctx context.Context, plaintext string) (*model.AuthContext, error) {
	return f.auth.AuthenticateAPIKey(ctx, plaintext)
}

// Ping checks the store.
func (f *Facade) Ping(ctx context.Context) error {
	return f.repo.Ping(ctx)
}
