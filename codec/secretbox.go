package codec

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	KeySize   = 32
	nonceSize = 24
)

var (
	ErrInvalidKeySize = errors.New("secret key must be 32 bytes")
	ErrSealedMangled  = errors.New("sealed value is corrupt or was sealed with another key")
)

// SecretBox seals secrets with NaCl secretbox under a symmetric key.
type SecretBox struct {
	key [KeySize]byte
}

// NewSecretBox returns a SecretBox using key, which must be KeySize bytes.
func NewSecretBox(key []byte) (*SecretBox, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	sb := &SecretBox{}
	copy(sb.key[:], key)

	return sb, nil
}

// GenerateKey returns a new random key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	return key, nil
}

func (s *SecretBox) Seal(plaintext []byte) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	box := secretbox.Seal(nonce[:], plaintext, &nonce, &s.key)

	return base64.StdEncoding.EncodeToString(box), nil
}

func (s *SecretBox) Open(sealed string) ([]byte, error) {
	box, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("decode sealed value: %w", err)
	}

	if len(box) < nonceSize+secretbox.Overhead {
		return nil, ErrSealedMangled
	}

	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])

	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, ErrSealedMangled
	}

	return plain, nil
}
