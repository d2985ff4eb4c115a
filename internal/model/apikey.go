// Package model defines domain entities for the application.
package model

import "time"

// APIKey represents an API key owned by one user.
// The secret token is kept only as a hash; the plaintext is returned once at creation.
type APIKey struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	KeyPrefix  string     `json:"keyPrefix"`
	KeyHash    string     `json:"keyHash"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}

// AuthContext holds the identity of a caller authenticated by API key.
// This is injected into the request context by auth middleware.
type AuthContext struct {
	KeyID     string
	KeyPrefix string
	UserID    string
}

// APIKeyCreateRequest represents a request to create a new API key.
type APIKeyCreateRequest struct {
	Label string `json:"label"`
}

// APIKeyResponse represents an API key without its secret.
type APIKeyResponse struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	KeyPrefix  string     `json:"key_prefix"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// ToResponse converts an APIKey to APIKeyResponse.
func (k *APIKey) ToResponse() APIKeyResponse {
	return APIKeyResponse{
		ID:         k.ID,
		Label:      k.Label,
		KeyPrefix:  k.KeyPrefix,
		CreatedAt:  k.CreatedAt,
		LastUsedAt: k.LastUsedAt,
	}
}

// APIKeyCreateResponse includes the plaintext key (shown only once).
type APIKeyCreateResponse struct {
	APIKeyResponse
	Key string `json:"key"`
}
