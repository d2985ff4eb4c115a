package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/buscacontatos/buscacontatos/internal/auth"
	"github.com/buscacontatos/buscacontatos/internal/model"
	"github.com/buscacontatos/buscacontatos/internal/repository"
	"github.com/buscacontatos/buscacontatos/internal/store"
)

type output struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	KeyID     string `json:"key_id"`
	Key       string `json:"key"`
	KeyPrefix string `json:"key_prefix"`
	Label     string `json:"label"`
}

func main() {
	var (
		driver      = flag.String("driver", envOr("STORE_DRIVER", store.DriverSQLite), "Store driver: sqlite, redis or postgres")
		sqlitePath  = flag.String("sqlite-path", envOr("SQLITE_PATH", "buscacontatos.db"), "SQLite database file")
		redisURL    = flag.String("redis-url", os.Getenv("REDIS_URL"), "Redis connection string")
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		prefix      = flag.String("prefix", envOr("STORE_KEY_PREFIX", store.DefaultKeyPrefix), "Collection key prefix")
		email       = flag.String("email", "", "Email of the user who owns the key")
		name        = flag.String("name", "", "Display name when the user has to be created")
		create      = flag.Bool("create-user", false, "Create an approved USER account when the email is unknown")
		label       = flag.String("label", "bootstrap", "API key label")
		keyEnv      = flag.String("env", envOr("API_KEY_ENV", auth.EnvLive), "Key environment: live or test")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if strings.TrimSpace(*email) == "" {
		fmt.Fprintln(os.Stderr, "-email is required")
		os.Exit(1)
	}
	if *driver == store.DriverMemory {
		fmt.Fprintln(os.Stderr, "the memory driver does not persist; pick sqlite, redis or postgres")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	backend, err := store.OpenBackend(ctx, store.Options{
		Driver:      *driver,
		SQLitePath:  *sqlitePath,
		RedisURL:    *redisURL,
		DatabaseURL: *databaseURL,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "open store:", err)
		os.Exit(1)
	}
	defer backend.Close()

	repo := repository.New(store.New(backend, *prefix, nil, nil), repository.WithKeyEnv(*keyEnv))

	user, err := ensureUser(ctx, repo, *email, *name, *create)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	key, plaintext, err := repo.CreateAPIKey(ctx, user.ID, *label)
	if err != nil {
		fmt.Fprintln(os.Stderr, "create api key:", err)
		os.Exit(1)
	}

	out := output{
		UserID:    user.ID,
		Email:     user.Email,
		KeyID:     key.ID,
		Key:       plaintext,
		KeyPrefix: key.KeyPrefix,
		Label:     key.Label,
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.Key)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func ensureUser(ctx context.Context, repo *repository.Repository, email, name string, create bool) (*model.User, error) {
	existing, err := repo.GetUserByEmail(ctx, email)
	if err == nil {
		if !existing.IsApproved() {
			return nil, fmt.Errorf("user %s is %s; keys of unapproved users are rejected", email, existing.Status)
		}
		return existing, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if !create {
		return nil, fmt.Errorf("no user with email %s; pass -create-user to create one", email)
	}

	if strings.TrimSpace(name) == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user := &model.User{
		Name:          name,
		Email:         email,
		Role:          model.RoleUser,
		Status:        model.StatusApproved,
		EmailVerified: true,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
