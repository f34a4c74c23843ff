package credentials

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	"webomat/internal/models"
)

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32
)

// File keeps credentials in a single file sealed with NaCl secretbox. The key
// is derived from a passphrase with scrypt; the salt is stored alongside.
// The derived key is kept for the salt it belongs to, so scrypt runs once
// per File rather than on every read.
type File struct {
	path       string
	passphrase []byte
	derive     func(passphrase, salt []byte) ([]byte, error)

	mu   sync.Mutex
	salt []byte
	key  *[keySize]byte
}

type fileEnvelope struct {
	Salt  []byte `json:"salt"`
	Nonce []byte `json:"nonce"`
	Box   []byte `json:"box"`
}

type filePayload struct {
	Token string       `json:"token,omitempty"`
	User  *models.User `json:"user,omitempty"`
}

// NewFile returns a file store. The file is created on first write.
func NewFile(path, passphrase string) (*File, error) {
	if path == "" {
		return nil, errors.New("credentials: file path is required")
	}
	if passphrase == "" {
		return nil, errors.New("credentials: passphrase is required")
	}
	return &File{path: path, passphrase: []byte(passphrase), derive: scryptKey}, nil
}

func scryptKey(passphrase, salt []byte) ([]byte, error) {
	return scrypt.Key(passphrase, salt, 1<<15, 8, 1, keySize)
}

func (f *File) Token(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.load()
	if err != nil {
		return "", err
	}
	return p.Token, nil
}

func (f *File) SetToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.load()
	if err != nil {
		return err
	}
	p.Token = token
	return f.save(p)
}

func (f *File) User(context.Context) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.load()
	if err != nil {
		return nil, err
	}
	return p.User, nil
}

func (f *File) SetUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.load()
	if err != nil {
		return err
	}
	p.User = user
	return f.save(p)
}

func (f *File) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials file: %w", err)
	}
	return nil
}

func (f *File) load() (filePayload, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return filePayload{}, nil
	}
	if err != nil {
		return filePayload{}, fmt.Errorf("read credentials file: %w", err)
	}

	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return filePayload{}, ErrCorrupted
	}
	if len(env.Salt) != saltSize || len(env.Nonce) != nonceSize {
		return filePayload{}, ErrCorrupted
	}
	key, err := f.deriveKey(env.Salt)
	if err != nil {
		return filePayload{}, err
	}
	var nonce [nonceSize]byte
	copy(nonce[:], env.Nonce)
	plain, ok := secretbox.Open(nil, env.Box, &nonce, key)
	if !ok {
		return filePayload{}, ErrCorrupted
	}

	var p filePayload
	if err := json.Unmarshal(plain, &p); err != nil {
		return filePayload{}, ErrCorrupted
	}
	return p, nil
}

func (f *File) save(p filePayload) error {
	plain, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	salt := f.salt
	if salt == nil {
		salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return fmt.Errorf("generate salt: %w", err)
		}
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	key, err := f.deriveKey(salt)
	if err != nil {
		return err
	}

	env := fileEnvelope{
		Salt:  salt,
		Nonce: nonce[:],
		Box:   secretbox.Seal(nil, plain, &nonce, key),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write credentials file: %w", err)
	}
	return os.Rename(tmp, f.path)
}

func (f *File) deriveKey(salt []byte) (*[keySize]byte, error) {
	if f.key != nil && bytes.Equal(f.salt, salt) {
		return f.key, nil
	}
	raw, err := f.derive(f.passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	var key [keySize]byte
	copy(key[:], raw)
	f.salt = append([]byte(nil), salt...)
	f.key = &key
	return &key, nil
}
