package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"
)

// Credential is a site login supplied by the operator
type Credential struct {
	Username     string    `json:"username"`
	Password     string    `json:"password"`
	LastModified time.Time `json:"last_modified"`
}

// Valid reports whether both halves of the login are present
func (c *Credential) Valid() bool {
	return c != nil && c.Username != "" && c.Password != ""
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves credentials for a given username
	Store(cred *Credential) error

	// Retrieve gets credentials for a specific username
	Retrieve(username string) (*Credential, error)

	// List returns all stored credentials
	List() ([]*Credential, error)

	// Delete removes credentials for a specific username
	Delete(username string) error

	// Exists checks if credentials exist for a username
	Exists(username string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager backed by the system keychain
// (when available), an encrypted file and the environment, in that order
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a Manager over the given stores, tried in order
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials using the first store that accepts them
func (m *Manager) Store(cred *Credential) error {
	if cred == nil || cred.Username == "" {
		return errors.New("username is required")
	}
	if cred.Password == "" {
		return errors.New("password is required")
	}

	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(cred)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(username string) (*Credential, error) {
	for _, store := range m.stores {
		if cred, err := store.Retrieve(username); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, fmt.Errorf("%w for user: %s", ErrCredentialsNotFound, username)
}

// RetrieveDefault returns environment credentials if set, otherwise the
// most recently modified stored credential
func (m *Manager) RetrieveDefault() (*Credential, error) {
	for _, store := range m.stores {
		if envStore, ok := store.(*EnvironmentStore); ok {
			if cred, err := envStore.Retrieve(""); err == nil {
				return cred, nil
			}
		}
	}

	creds, err := m.List()
	if err == nil && len(creds) > 0 {
		return creds[0], nil
	}

	return nil, ErrCredentialsNotFound
}

// List returns all stored credentials from all stores, newest first
func (m *Manager) List() ([]*Credential, error) {
	byUser := make(map[string]*Credential)

	for _, store := range m.stores {
		creds, err := store.List()
		if err != nil {
			continue
		}
		for _, cred := range creds {
			if existing, ok := byUser[cred.Username]; !ok || cred.LastModified.After(existing.LastModified) {
				byUser[cred.Username] = cred
			}
		}
	}

	result := make([]*Credential, 0, len(byUser))
	for _, cred := range byUser {
		result = append(result, cred)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].LastModified.Equal(result[j].LastModified) {
			return result[i].LastModified.After(result[j].LastModified)
		}
		return result[i].Username < result[j].Username
	})

	return result, nil
}

// Delete removes credentials from all stores
func (m *Manager) Delete(username string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(username); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil && !errors.Is(lastErr, ErrCredentialsNotFound) && !errors.Is(lastErr, ErrStoreUnavailable) {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w for user: %s", ErrCredentialsNotFound, username)
	}

	return nil
}

// Source describes where the run's credential may come from
type Source struct {
	// Username and Password given directly (config file, env or flags)
	Username string
	Password string
	// Account names a stored credential to use
	Account string
	// Prompt asks the operator interactively; nil disables prompting
	Prompt func(username string) (*Credential, error)
}

// Resolve picks the credential for a run. Direct values win, then the named
// account, then a stored credential for the given username, then the default
// stored credential, then the prompt.
func (m *Manager) Resolve(src Source) (*Credential, string, error) {
	if src.Username != "" && src.Password != "" {
		return &Credential{Username: src.Username, Password: src.Password}, "config", nil
	}

	if src.Account != "" {
		cred, err := m.Retrieve(src.Account)
		if err != nil {
			return nil, "", err
		}
		return cred, "stored account", nil
	}

	if src.Username != "" {
		if cred, err := m.Retrieve(src.Username); err == nil {
			return cred, "stored account", nil
		}
	} else if cred, err := m.RetrieveDefault(); err == nil {
		return cred, "stored default", nil
	}

	if src.Prompt != nil {
		cred, err := src.Prompt(src.Username)
		if err != nil {
			return nil, "", err
		}
		if !cred.Valid() {
			return nil, "", ErrInvalidCredentials
		}
		return cred, "prompt", nil
	}

	return nil, "", ErrCredentialsNotFound
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "mymovies")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "mymovies")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "mymovies")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "mymovies")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeCredential returns a copy with the password masked
func SanitizeCredential(cred *Credential) *Credential {
	if cred == nil {
		return nil
	}

	return &Credential{
		Username:     cred.Username,
		Password:     maskString(cred.Password),
		LastModified: cred.LastModified,
	}
}

// maskString hides the whole secret
func maskString(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
