// Package creds persists the account list as an encrypted JSON blob.
//
// The file is read wholesale at the start of a run, mutated in memory as
// tokens refresh, and written back wholesale at the end — never partially
// per account. Content is AES-256-GCM encrypted with a key supplied out
// of band; the nonce is prepended to the ciphertext.
package creds

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/isaacgw/parkrun-sync/internal/storage"
)

// Account holds one athlete's identity and Strava OAuth credentials.
type Account struct {
	RunnerID     string `json:"runnerIdentity"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// File is the on-blob document shape.
type File struct {
	Accounts []Account `json:"accounts"`
}

// Store encrypts and persists the account file on a storage provider.
type Store struct {
	store  storage.Provider
	object string
	aead   cipher.AEAD
}

// NewStore builds a Store. The key is either url-safe base64 of 32 bytes
// or a raw 32-byte string.
func NewStore(p storage.Provider, object, key string) (*Store, error) {
	raw, err := decodeKey(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init GCM: %w", err)
	}
	return &Store{store: p, object: object, aead: aead}, nil
}

func decodeKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("encryption key is required")
	}
	if decoded, err := base64.URLEncoding.DecodeString(key); err == nil && len(decoded) == 32 {
		return decoded, nil
	}
	if len(key) == 32 {
		return []byte(key), nil
	}
	return nil, fmt.Errorf("encryption key must be 32 bytes (raw or url-safe base64)")
}

// Load downloads and decrypts the account file.
func (s *Store) Load(ctx context.Context) (File, error) {
	blob, err := s.store.Get(ctx, s.object)
	if err != nil {
		return File{}, fmt.Errorf("read account file: %w", err)
	}

	plaintext, err := s.decrypt(blob)
	if err != nil {
		return File{}, err
	}

	var file File
	if err := json.Unmarshal(plaintext, &file); err != nil {
		return File{}, fmt.Errorf("parse account file: %w", err)
	}
	return file, nil
}

// Save encrypts and uploads the account file, replacing the previous
// version.
func (s *Store) Save(ctx context.Context, file File) error {
	plaintext, err := json.MarshalIndent(file, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal account file: %w", err)
	}

	blob, err := s.encrypt(plaintext)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, s.object, blob); err != nil {
		return fmt.Errorf("write account file: %w", err)
	}
	return nil
}

func (s *Store) encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *Store) decrypt(blob []byte) ([]byte, error) {
	if len(blob) < s.aead.NonceSize() {
		return nil, fmt.Errorf("account file too short to decrypt")
	}
	nonce, ciphertext := blob[:s.aead.NonceSize()], blob[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt account file: %w", err)
	}
	return plaintext, nil
}
