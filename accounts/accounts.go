// Package accounts implements the credential store: username registration
// and password verification over a flat storage.Repository.
//
// Passwords are only ever persisted as salted argon2id hashes in PHC format.
// Verification failures never reveal whether the username exists.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/wayfarer/wayfarer/internal/util"
	"github.com/wayfarer/wayfarer/internal/validation"
	"github.com/wayfarer/wayfarer/storage"
)

const (
	accountBucket     = "__accounts"
	accountRecordType = "USER"
)

var (
	// ErrInvalidInput matches any *InputError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyExists is returned when registering a username that is taken.
	ErrAlreadyExists = errors.New("user exists")
	// ErrInvalidCredentials is returned for an unknown user or a wrong
	// password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound is returned by Profile for unknown usernames.
	ErrNotFound = errors.New("account not found")
)

// InputError carries a client-facing reason for rejected registration input.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return e.Reason }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// Registration is the input to Register. Profile fields are optional.
type Registration struct {
	Username  string `json:"username" validate:"required,max=64"`
	Password  string `json:"password" validate:"required,max=1024"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
	Country   string `json:"country" validate:"max=100"`
}

// Profile is the public part of an account.
type Profile struct {
	Username  string    `json:"username"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Country   string    `json:"country,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type record struct {
	Profile
	PasswordHash string `json:"password_hash"`
}

// Store is the credential store.
type Store struct {
	repo   storage.Repository
	params util.Argon2idParams

	dummyOnce sync.Once
	dummyHash string
}

// Option configures a Store.
type Option func(*Store)

// WithHashParams overrides the argon2id cost parameters for new hashes.
func WithHashParams(p util.Argon2idParams) Option {
	return func(s *Store) {
		s.params = p
	}
}

// New creates a credential store over repo.
func New(repo storage.Repository, opts ...Option) (*Store, error) {
	s := &Store{
		repo:   repo,
		params: util.DefaultArgon2idParams(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := util.ValidateArgon2idParams(s.params); err != nil {
		return nil, fmt.Errorf("password hash parameters: %w", err)
	}
	return s, nil
}

// Register creates a new account. The username is trimmed of surrounding
// whitespace; the password is used verbatim.
func (s *Store) Register(ctx context.Context, reg Registration) error {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.FirstName = strings.TrimSpace(reg.FirstName)
	reg.LastName = strings.TrimSpace(reg.LastName)
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Country = strings.TrimSpace(reg.Country)
	if reg.Username == "" || reg.Password == "" {
		return &InputError{Reason: "username and password required"}
	}
	if err := validation.Struct(reg); err != nil {
		return &InputError{Reason: err.Error()}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	hash, err := util.HashPassword(reg.Password, s.params)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	rec := record{
		Profile: Profile{
			Username:  reg.Username,
			FirstName: reg.FirstName,
			LastName:  reg.LastName,
			Email:     reg.Email,
			Country:   reg.Country,
			CreatedAt: time.Now().UTC(),
		},
		PasswordHash: hash,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.repo.Create(accountBucket, accountRecordType, reg.Username, data); err != nil {
		if errors.Is(err, storage.ErrExists) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("persisting account: %w", err)
	}
	return nil
}

// Verify checks a username and password and returns the account profile.
func (s *Store) Verify(ctx context.Context, username, password string) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	username = strings.TrimSpace(username)
	rec, err := s.load(username)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return Profile{}, err
		}
		// Burn the same KDF cost as a real comparison.
		_, _ = util.VerifyPassword(password, s.dummy())
		return Profile{}, ErrInvalidCredentials
	}
	ok, err := util.VerifyPassword(password, rec.PasswordHash)
	if err != nil {
		return Profile{}, fmt.Errorf("verifying %q: %w", username, err)
	}
	if !ok {
		return Profile{}, ErrInvalidCredentials
	}
	return rec.Profile, nil
}

// Profile returns the stored profile for username.
func (s *Store) Profile(ctx context.Context, username string) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	rec, err := s.load(username)
	if err != nil {
		return Profile{}, err
	}
	return rec.Profile, nil
}

func (s *Store) load(username string) (*record, error) {
	if username == "" {
		return nil, ErrNotFound
	}
	data, err := s.repo.Get(accountBucket, accountRecordType, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrBucketNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading account: %w", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding account %q: %w", username, err)
	}
	return &rec, nil
}

func (s *Store) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := util.HashPassword("wayfarer-dummy-password", s.params)
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
