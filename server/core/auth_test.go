package core

import (
	"errors"
	"testing"
	"time"
)

func TestCheckPassword(t *testing.T) {
	open, err := NewAuth("", nil, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	locked, err := NewAuth("hunter2", nil, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		auth     *Auth
		password string
		wantErr  error
	}{
		{"open server", open, "anything", nil},
		{"right password", locked, "hunter2", nil},
		{"wrong password", locked, "hunter3", ErrBadPassword},
		{"empty password", locked, "", ErrBadPassword},
	}
	for _, tt := range tests {
		if err := tt.auth.CheckPassword(tt.password); !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestReconnectToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	a, err := NewAuth("", []byte("secret"), 10*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	a.now = func() time.Time { return now }

	tok, err := a.IssueToken("alice", 1)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := a.ParseToken(tok)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Name != "alice" || claims.Team != 1 {
		t.Errorf("claims = %+v", claims)
	}

	other, _ := NewAuth("", []byte("other"), 10*time.Minute)
	other.now = a.now
	if _, err := other.ParseToken(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token from another secret: err = %v", err)
	}
	if _, err := a.ParseToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token: err = %v", err)
	}

	now = now.Add(11 * time.Minute)
	if _, err := a.ParseToken(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: err = %v", err)
	}
}
