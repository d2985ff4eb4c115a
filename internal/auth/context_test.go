package auth

import (
	"context"
	"testing"

	"github.com/buscacontatos/buscacontatos/internal/model"
)

func TestAuthContextRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if AuthFromContext(ctx) != nil || UserIDFromContext(ctx) != "" {
		t.Fatal("empty context should carry no caller")
	}

	ac := &model.AuthContext{KeyID: "k1", KeyPrefix: "abc123", UserID: "u1"}
	ctx = ContextWithAuth(ctx, ac)
	if got := AuthFromContext(ctx); got != ac {
		t.Errorf("AuthFromContext() = %v, want %v", got, ac)
	}
	if got := UserIDFromContext(ctx); got != "u1" {
		t.Errorf("UserIDFromContext() = %q, want u1", got)
	}
}

func TestUserContextRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if UserFromContext(ctx) != nil {
		t.Fatal("empty context should carry no user")
	}

	u := &model.User{ID: "u1", Role: model.RoleAdmin}
	ctx = ContextWithUser(ctx, u)
	if got := UserFromContext(ctx); got != u {
		t.Errorf("UserFromContext() = %v, want %v", got, u)
	}
}
