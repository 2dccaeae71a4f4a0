package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000
)

// EncryptedFileStore keeps album passwords in a single AES-GCM encrypted
// file. It backs up the keychain store on systems without one.
type EncryptedFileStore struct {
	filepath   string
	passphrase string
	mu         sync.RWMutex
}

// vault is the decrypted content of the store: every credential keyed by
// album URL, plus the salt the file was encrypted under.
type vault struct {
	salt        string
	credentials map[string]Credential
}

// vaultEnvelope is the on-disk JSON wrapper around the ciphertext
type vaultEnvelope struct {
	Salt      string    `json:"salt"`
	Encrypted string    `json:"encrypted"`
	Version   int       `json:"version,omitempty"`
	Modified  time.Time `json:"modified,omitempty"`
}

// NewEncryptedFileStore creates a credential store backed by an encrypted
// file at the given path
func NewEncryptedFileStore(filePath string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(filePath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	store := &EncryptedFileStore{filepath: filePath}

	passphrase, err := store.getPassphrase()
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	store.passphrase = passphrase

	return store, nil
}

// Store adds or replaces the credential for an album
func (e *EncryptedFileStore) Store(cred *Credential) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cred == nil || cred.Album == "" {
		return ErrInvalidCredentials
	}

	v, err := e.readVault()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load credential file: %w", err)
	}
	if v == nil {
		v = &vault{credentials: make(map[string]Credential)}
	}

	v.credentials[cred.Album] = *cred

	return e.writeVault(v)
}

// Retrieve returns the credential stored for an album
func (e *EncryptedFileStore) Retrieve(album string) (*Credential, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if album == "" {
		return nil, ErrInvalidCredentials
	}

	v, err := e.readVault()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to load credential file: %w", err)
	}

	cred, ok := v.credentials[album]
	if !ok {
		return nil, ErrCredentialsNotFound
	}

	return &cred, nil
}

// List returns every stored credential
func (e *EncryptedFileStore) List() ([]*Credential, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	v, err := e.readVault()
	if err != nil {
		if os.IsNotExist(err) {
			return []*Credential{}, nil
		}
		return nil, fmt.Errorf("failed to load credential file: %w", err)
	}

	creds := make([]*Credential, 0, len(v.credentials))
	for _, cred := range v.credentials {
		c := cred
		creds = append(creds, &c)
	}

	return creds, nil
}

// Delete removes the credential for an album. Deleting the last
// credential removes the file itself.
func (e *EncryptedFileStore) Delete(album string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if album == "" {
		return ErrInvalidCredentials
	}

	v, err := e.readVault()
	if err != nil {
		if os.IsNotExist(err) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to load credential file: %w", err)
	}

	if _, ok := v.credentials[album]; !ok {
		return ErrCredentialsNotFound
	}
	delete(v.credentials, album)

	if len(v.credentials) == 0 {
		return os.Remove(e.filepath)
	}

	return e.writeVault(v)
}

// Exists reports whether a credential is stored for the album
func (e *EncryptedFileStore) Exists(album string) bool {
	cred, err := e.Retrieve(album)
	return err == nil && cred != nil
}

// readVault reads and decrypts the credential file
func (e *EncryptedFileStore) readVault() (*vault, error) {
	content, err := os.ReadFile(e.filepath)
	if err != nil {
		return nil, err
	}

	var envelope vaultEnvelope
	if err := json.Unmarshal(content, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse credential file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(envelope.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(envelope.Encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	plaintext, err := decrypt(ciphertext, e.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credential file: %w", err)
	}

	var creds map[string]Credential
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	return &vault{salt: envelope.Salt, credentials: creds}, nil
}

// writeVault encrypts the credentials and commits them atomically via a
// temp file and rename
func (e *EncryptedFileStore) writeVault(v *vault) error {
	var salt []byte
	if v.salt == "" {
		salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
		v.salt = base64.StdEncoding.EncodeToString(salt)
	} else {
		var err error
		salt, err = base64.StdEncoding.DecodeString(v.salt)
		if err != nil {
			return fmt.Errorf("failed to decode salt: %w", err)
		}
	}

	plaintext, err := json.Marshal(v.credentials)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	ciphertext, err := encrypt(plaintext, e.deriveKey(salt))
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	content, err := json.MarshalIndent(vaultEnvelope{
		Salt:      v.salt,
		Encrypted: base64.StdEncoding.EncodeToString(ciphertext),
		Version:   1,
		Modified:  time.Now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credential file: %w", err)
	}

	tempFile := e.filepath + ".tmp"
	if err := os.WriteFile(tempFile, content, 0600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}

	return os.Rename(tempFile, e.filepath)
}

// deriveKey stretches the passphrase into an AES key
func (e *EncryptedFileStore) deriveKey(salt []byte) []byte {
	return pbkdf2.Key([]byte(e.passphrase), salt, iterations, keySize, sha256.New)
}

// getPassphrase resolves the encryption passphrase: the environment
// variable wins, then a passphrase file, otherwise one is generated and
// persisted for later runs.
func (e *EncryptedFileStore) getPassphrase() (string, error) {
	if pass := os.Getenv("MITENEDL_PASSPHRASE"); pass != "" {
		return pass, nil
	}

	configDir, err := getConfigDir()
	if err != nil {
		return "", err
	}
	passphraseFile := filepath.Join(configDir, ".passphrase")

	if content, err := os.ReadFile(passphraseFile); err == nil && len(content) > 0 {
		return string(content), nil
	}

	passphrase := generatePassphrase()
	if err := os.WriteFile(passphraseFile, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}

	return passphrase, nil
}

// generatePassphrase produces a random passphrase
func generatePassphrase() string {
	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return base64.URLEncoding.EncodeToString(b)
}

// encrypt seals plaintext with AES-GCM, nonce prepended
func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// decrypt opens an AES-GCM message produced by encrypt
func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
