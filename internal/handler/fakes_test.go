package handler

import (
	"context"
	"io"
	"sync"

	"github.com/buscacontatos/buscacontatos/internal/model"
)

// fakeService implements every service interface the handlers consume.
type fakeService struct {
	mu sync.Mutex

	user     *model.User
	contacts []model.Contact
	places   []model.Place
	keys     []model.APIKey
	hooks    []model.Webhook
	users    []model.User
	audit    []model.AuditLogEntry
	applied  bool
	err      error

	lastOwner  string
	lastActor  string
	lastTarget string
	lastLabel  string
	lastURL    string
	lastQuery  model.SearchQuery
	lastUpdate model.UserUpdate
	saved      []model.Contact
	loggedOut  bool
}

func (f *fakeService) record(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn()
}

func (f *fakeService) Login(ctx context.Context, email, password string) (*model.User, error) {
	return f.user, f.err
}

func (f *fakeService) LoginWithExternalIdentity(ctx context.Context, token string) (*model.User, error) {
	return f.user, f.err
}

func (f *fakeService) Logout(ctx context.Context) error {
	f.record(func() { f.loggedOut = true })
	return f.err
}

func (f *fakeService) ListContacts(ctx context.Context, ownerID string) ([]model.Contact, error) {
	f.record(func() { f.lastOwner = ownerID })
	return f.contacts, f.err
}

func (f *fakeService) SaveContacts(ctx context.Context, ownerID string, candidates []model.Contact) ([]model.Contact, error) {
	f.record(func() { f.lastOwner = ownerID; f.saved = candidates })
	return f.contacts, f.err
}

func (f *fakeService) RemoveContact(ctx context.Context, ownerID, placeID string) ([]model.Contact, error) {
	f.record(func() { f.lastOwner = ownerID; f.lastTarget = placeID })
	return f.contacts, f.err
}

func (f *fakeService) ExportContactsCSV(ctx context.Context, ownerID string, w io.Writer) error {
	f.record(func() { f.lastOwner = ownerID })
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, "place_id\nabc")
	return err
}

func (f *fakeService) Search(ctx context.Context, q model.SearchQuery) ([]model.Place, error) {
	f.record(func() { f.lastQuery = q })
	return f.places, f.err
}

func (f *fakeService) ListAPIKeys(ctx context.Context, ownerID string) ([]model.APIKey, error) {
	f.record(func() { f.lastOwner = ownerID })
	return f.keys, f.err
}

func (f *fakeService) CreateAPIKey(ctx context.Context, ownerID, label string) (*model.APIKey, string, error) {
	f.record(func() { f.lastOwner = ownerID; f.lastLabel = label })
	if f.err != nil {
		return nil, "", f.err
	}
	return &model.APIKey{ID: "key-1", Label: label, KeyPrefix: "abc123", KeyHash: "$argon2id$secret-hash"},
		"sk_test_abc123_0123456789abcdef0123456789abcdef", nil
}

func (f *fakeService) DeleteAPIKey(ctx context.Context, ownerID, keyID string) (bool, error) {
	f.record(func() { f.lastOwner = ownerID; f.lastTarget = keyID })
	return f.applied, f.err
}

func (f *fakeService) ListWebhooks(ctx context.Context, ownerID string) ([]model.Webhook, error) {
	f.record(func() { f.lastOwner = ownerID })
	return f.hooks, f.err
}

func (f *fakeService) CreateWebhook(ctx context.Context, ownerID, targetURL string) (*model.Webhook, string, error) {
	f.record(func() { f.lastOwner = ownerID; f.lastURL = targetURL })
	if f.err != nil {
		return nil, "", f.err
	}
	return &model.Webhook{ID: "wh-1", URL: targetURL, SecretHash: "hashed-secret"}, "whsec_plain", nil
}

func (f *fakeService) DeleteWebhook(ctx context.Context, ownerID, webhookID string) (bool, error) {
	f.record(func() { f.lastOwner = ownerID; f.lastTarget = webhookID })
	return f.applied, f.err
}

func (f *fakeService) AdminListUsers(ctx context.Context, actorID string) ([]model.User, error) {
	f.record(func() { f.lastActor = actorID })
	return f.users, f.err
}

func (f *fakeService) AdminAuditLog(ctx context.Context, actorID string) ([]model.AuditLogEntry, error) {
	f.record(func() { f.lastActor = actorID })
	return f.audit, f.err
}

func (f *fakeService) AdminUpdateUser(ctx context.Context, actorID, targetID string, update model.UserUpdate) (bool, error) {
	f.record(func() { f.lastActor = actorID; f.lastTarget = targetID; f.lastUpdate = update })
	return f.applied, f.err
}

func (f *fakeService) AdminDeleteUser(ctx context.Context, actorID, targetID string) (bool, error) {
	f.record(func() { f.lastActor = actorID; f.lastTarget = targetID })
	return f.applied, f.err
}
