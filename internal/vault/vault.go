package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/99designs/keyring"
)

// ErrNotFound is returned when a secret is in neither the keyring nor the fallback file.
var ErrNotFound = errors.New("secret not found in vault or fallback")

// Credential keys.
const (
	KeyOpenAI       = "openai_api_key"
	KeyGithubModels = "github_models_token"
	KeyOllama       = "ollama_endpoint"
)

// Keys lists every credential the app stores, for status and clear.
var Keys = []string{KeyOpenAI, KeyGithubModels, KeyOllama}

// Vault handles secure credential storage
type Vault struct {
	ring         keyring.Keyring
	fallbackPath string
	mu           sync.RWMutex
}

func New(serviceName string, dataDir string) (*Vault, error) {
	v := newFallback(dataDir)

	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
	})
	if err == nil {
		v.ring = ring
	}
	// If keyring fails, we just don't set v.ring and use fallbackPath
	return v, nil
}

// newFallback returns a vault backed only by the JSON file.
func newFallback(dataDir string) *Vault {
	return &Vault{fallbackPath: filepath.Join(dataDir, "secrets.json")}
}

// Set stores a secret in the OS keyring or fallback file
func (v *Vault) Set(key, value string) error {
	if v.ring != nil {
		err := v.ring.Set(keyring.Item{
			Key:  key,
			Data: []byte(value),
		})
		if err == nil {
			return nil
		}
		// If keyring set fails, fall through to file fallback
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	secrets := v.readFallback()
	secrets[key] = value
	return v.writeFallback(secrets)
}

// Get retrieves a secret from the OS keyring or fallback file
func (v *Vault) Get(key string) (string, error) {
	if v.ring != nil {
		item, err := v.ring.Get(key)
		if err == nil {
			return string(item.Data), nil
		}
		// If keyring get fails (e.g. not found), check fallback
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if val, ok := v.readFallback()[key]; ok {
		return val, nil
	}
	return "", ErrNotFound
}

// Delete removes a secret from both the keyring and the fallback file. Missing keys are not an error.
func (v *Vault) Delete(key string) error {
	if v.ring != nil {
		if err := v.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("removing %s from keyring: %w", key, err)
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	secrets := v.readFallback()
	if _, ok := secrets[key]; !ok {
		return nil
	}
	delete(secrets, key)
	return v.writeFallback(secrets)
}

func (v *Vault) readFallback() map[string]string {
	secrets := make(map[string]string)
	if data, err := os.ReadFile(v.fallbackPath); err == nil {
		_ = json.Unmarshal(data, &secrets)
	}
	return secrets
}

func (v *Vault) writeFallback(secrets map[string]string) error {
	data, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling secrets: %w", err)
	}
	return os.WriteFile(v.fallbackPath, data, 0600)
}

