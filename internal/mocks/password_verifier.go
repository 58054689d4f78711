package mocks

import (
	"errors"

	"github.com/phrazzld/taskboard/internal/service/auth"
)

// MockPasswordVerifier implements auth.PasswordVerifier and auth.PasswordHasher for testing.
// Hash prefixes the password with "hashed:"; the default Compare accepts
// exactly that form unless ShouldSucceed or CompareFn says otherwise.
type MockPasswordVerifier struct {
	// ShouldSucceed makes Compare accept any password.
	ShouldSucceed bool

	CompareFn func(hashedPassword, password string) error
	HashFn    func(password string) (string, error)

	// CompareCallCount tracks how many times Compare was called
	CompareCallCount int
}

var (
	_ auth.PasswordVerifier = (*MockPasswordVerifier)(nil)
	_ auth.PasswordHasher   = (*MockPasswordVerifier)(nil)
)

// ErrPasswordMismatch is returned by the default Compare on mismatch.
var ErrPasswordMismatch = errors.New("password mismatch")

// Compare implements the auth.PasswordVerifier interface
func (m *MockPasswordVerifier) Compare(hashedPassword, password string) error {
	m.CompareCallCount++
	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}
	if m.ShouldSucceed || hashedPassword == "hashed:"+password {
		return nil
	}
	return ErrPasswordMismatch
}

// Hash implements the auth.PasswordHasher interface
func (m *MockPasswordVerifier) Hash(password string) (string, error) {
	if m.HashFn != nil {
		return m.HashFn(password)
	}
	return "hashed:" + password, nil
}
