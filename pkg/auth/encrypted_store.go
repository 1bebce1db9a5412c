package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000

	passphraseEnvVar = "DAYCARESYNC_PASSPHRASE"
)

// EncryptedFileStore caches tokens in an AES-GCM encrypted file, with the
// key derived from a user-supplied passphrase via PBKDF2. Used when no
// system keychain is available.
type EncryptedFileStore struct {
	filepath   string
	passphrase string
	mu         sync.Mutex
}

// encryptedFile is the on-disk structure: a fresh salt per write and the
// base64 ciphertext (nonce prepended).
type encryptedFile struct {
	Salt       string `json:"salt"`
	Ciphertext string `json:"ciphertext"`
}

// NewEncryptedFileStore creates an encrypted token store. The passphrase
// comes from the DAYCARESYNC_PASSPHRASE environment variable; without it the
// store is unavailable rather than silently unencrypted.
func NewEncryptedFileStore(filePath string) (*EncryptedFileStore, error) {
	passphrase := os.Getenv(passphraseEnvVar)
	if passphrase == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrStoreUnavailable, passphraseEnvVar)
	}

	if dir := filepath.Dir(filePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	return &EncryptedFileStore{
		filepath:   filePath,
		passphrase: passphrase,
	}, nil
}

// StoreToken saves a token into the encrypted file
func (e *EncryptedFileStore) StoreToken(username, token string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if username == "" || token == "" {
		return ErrInvalidAccount
	}

	tokens, err := e.load()
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if tokens == nil {
		tokens = make(map[string]string)
	}

	tokens[username] = token
	return e.save(tokens)
}

// RetrieveToken reads a token from the encrypted file
func (e *EncryptedFileStore) RetrieveToken(username string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if username == "" {
		return "", ErrInvalidAccount
	}

	tokens, err := e.load()
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrTokenNotFound
		}
		return "", err
	}

	token, ok := tokens[username]
	if !ok {
		return "", ErrTokenNotFound
	}
	return token, nil
}

// DeleteToken removes a token from the encrypted file
func (e *EncryptedFileStore) DeleteToken(username string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tokens, err := e.load()
	if err != nil {
		if os.IsNotExist(err) {
			return ErrTokenNotFound
		}
		return err
	}

	if _, ok := tokens[username]; !ok {
		return ErrTokenNotFound
	}
	delete(tokens, username)
	return e.save(tokens)
}

func (e *EncryptedFileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(e.filepath)
	if err != nil {
		return nil, err
	}

	var file encryptedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(file.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(file.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	gcm, err := e.cipherFor(salt)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("token file too short")
	}

	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt token file: %w", err)
	}

	var tokens map[string]string
	if err := json.Unmarshal(plaintext, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse decrypted tokens: %w", err)
	}
	return tokens, nil
}

func (e *EncryptedFileStore) save(tokens map[string]string) error {
	plaintext, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := e.cipherFor(salt)
	if err != nil {
		return err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, plaintext, nil)

	file := encryptedFile{
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Ciphertext: base64.StdEncoding.EncodeToString(sealed),
	}
	data, err := json.Marshal(&file)
	if err != nil {
		return fmt.Errorf("failed to marshal token file: %w", err)
	}

	return os.WriteFile(e.filepath, data, 0600)
}

func (e *EncryptedFileStore) cipherFor(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(e.passphrase), salt, iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
