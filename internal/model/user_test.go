package model

import (
	"encoding/json"
	"testing"
)

func TestParseRole(t *testing.T) {
	testCases := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"ADMIN", RoleAdmin, false},
		{"admin", RoleAdmin, false},
		{" user ", RoleUser, false},
		{"OWNER", "", true},
		{"", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseRole(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseRole(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParseRole(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseUserStatus(t *testing.T) {
	testCases := []struct {
		input   string
		want    UserStatus
		wantErr bool
	}{
		{"PENDING", StatusPending, false},
		{"approved", StatusApproved, false},
		{"Blocked", StatusBlocked, false},
		{"DELETED", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseUserStatus(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseUserStatus(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParseUserStatus(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestUser_UnmarshalRejectsUnknownTags(t *testing.T) {
	var u User
	err := json.Unmarshal([]byte(`{"id":"u1","role":"ROOT","status":"APPROVED"}`), &u)
	if err == nil {
		t.Fatal("expected error for unknown role")
	}

	err = json.Unmarshal([]byte(`{"id":"u1","role":"ADMIN","status":"SUSPENDED"}`), &u)
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestUser_RoundTripKeepsPersistedFieldNames(t *testing.T) {
	raw := `{"id":"u1","name":"Ana","email":"a@x.com","role":"ADMIN","status":"APPROVED","createdAt":"2024-01-02T03:04:05Z","emailVerified":true,"googleId":"g-1"}`

	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !u.IsAdmin() || !u.IsApproved() {
		t.Errorf("expected approved admin, got role=%s status=%s", u.Role, u.Status)
	}
	if u.GoogleID != "g-1" {
		t.Errorf("GoogleID = %q, want g-1", u.GoogleID)
	}
	if ref := u.Ref(); ref.ID != "u1" || ref.Name != "Ana" {
		t.Errorf("Ref() = %+v", ref)
	}
}

func TestUserUpdate_IsEmpty(t *testing.T) {
	if !(UserUpdate{}).IsEmpty() {
		t.Error("zero update should be empty")
	}
	status := StatusBlocked
	if (UserUpdate{Status: &status}).IsEmpty() {
		t.Error("update with status should not be empty")
	}
}
