package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// MITENEDL_ALBUM_PASSWORD applies to whichever album is being downloaded.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve gets the password from environment variables
func (e *EnvironmentStore) Retrieve(album string) (*Credential, error) {
	password := os.Getenv("MITENEDL_ALBUM_PASSWORD")
	if password == "" {
		return nil, ErrCredentialsNotFound
	}

	return &Credential{
		Album:        album,
		Password:     password,
		LastModified: time.Now(),
	}, nil
}

// List returns a single credential if the environment variable is set
func (e *EnvironmentStore) List() ([]*Credential, error) {
	cred, err := e.Retrieve("")
	if err != nil {
		return []*Credential{}, nil
	}
	return []*Credential{cred}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(album string) error {
	return ErrStoreUnavailable
}

// Exists checks if an environment password is set
func (e *EnvironmentStore) Exists(album string) bool {
	return os.Getenv("MITENEDL_ALBUM_PASSWORD") != ""
}
