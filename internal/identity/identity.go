// Package identity talks to the external auth provider that owns professor
// and student login credentials. Passwords are never hashed or stored here.
package identity

import (
	"context"
	"errors"
	"strings"
	"sync"

	"firebase.google.com/go/v4/auth"

	"evaladmin/internal/apperr"
)

// ErrUserNotFound is returned when the provider has no account for an email.
var ErrUserNotFound = errors.Join(apperr.ErrNotFound, errors.New("no account for this email"))

// Provider manages accounts by email.
type Provider interface {
	UpdatePassword(ctx context.Context, email, password string) error
	CreateAccount(ctx context.Context, email, password, displayName string) error
}

// Firebase is the Provider backed by Firebase Authentication.
type Firebase struct {
	client *auth.Client
}

func NewFirebase(client *auth.Client) *Firebase {
	return &Firebase{client: client}
}

func (f *Firebase) UpdatePassword(ctx context.Context, email, password string) error {
	u, err := f.client.GetUserByEmail(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	_, err = f.client.UpdateUser(ctx, u.UID, (&auth.UserToUpdate{}).Password(password))
	return err
}

// CreateAccount creates a login. An existing account for the email is
// treated as success and its password is left alone.
func (f *Firebase) CreateAccount(ctx context.Context, email, password, displayName string) error {
	params := (&auth.UserToCreate{}).Email(email).Password(password)
	if displayName != "" {
		params = params.DisplayName(displayName)
	}
	_, err := f.client.CreateUser(ctx, params)
	if err != nil && auth.IsEmailAlreadyExists(err) {
		return nil
	}
	return err
}

// Memory is an in-process Provider for tests and local runs.
type Memory struct {
	mu    sync.Mutex
	users map[string]string
}

func NewMemory(emails ...string) *Memory {
	m := &Memory{users: map[string]string{}}
	for _, e := range emails {
		m.users[strings.ToLower(e)] = ""
	}
	return m
}

func (m *Memory) UpdatePassword(_ context.Context, email, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(email)
	if _, ok := m.users[key]; !ok {
		return ErrUserNotFound
	}
	m.users[key] = password
	return nil
}

func (m *Memory) CreateAccount(_ context.Context, email, password, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(email)
	if _, ok := m.users[key]; !ok {
		m.users[key] = password
	}
	return nil
}

// Password returns the stored password and whether the account exists.
func (m *Memory) Password(email string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pw, ok := m.users[strings.ToLower(email)]
	return pw, ok
}
