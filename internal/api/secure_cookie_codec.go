package api

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	sealedCookieVersion = "v1"
	sealedCookieAADBase = "pulselog.cookie."
	sealedCookieKeyInfo = "pulselog.sealed-cookie.v1"
)

var errInvalidSealedCookie = errors.New("invalid sealed cookie value")

// secureCookieCodec encrypts short-lived browser state (the OAuth state and
// return path) with AES-GCM. The cookie name is bound as additional data so a
// value cannot be replayed under another cookie.
type secureCookieCodec struct {
	aead cipher.AEAD
}

func newSecureCookieCodec(secretKey []byte) (*secureCookieCodec, error) {
	if len(secretKey) == 0 {
		return nil, errors.New("cookie secret key is required")
	}

	key := sha256.Sum256(append([]byte(sealedCookieKeyInfo), secretKey...))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("init cookie cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init cookie aead: %w", err)
	}
	return &secureCookieCodec{aead: aead}, nil
}

func (codec *secureCookieCodec) seal(name string, plaintext string) (string, error) {
	if codec == nil || codec.aead == nil {
		return "", errors.New("cookie codec is not initialized")
	}

	nonce := make([]byte, codec.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate cookie nonce: %w", err)
	}

	sealed := codec.aead.Seal(nonce, nonce, []byte(plaintext), []byte(sealedCookieAADBase+name))
	return sealedCookieVersion + "." + base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (codec *secureCookieCodec) open(name string, raw string) (string, error) {
	if codec == nil || codec.aead == nil {
		return "", errors.New("cookie codec is not initialized")
	}

	version, encoded, found := strings.Cut(strings.TrimSpace(raw), ".")
	if !found || version != sealedCookieVersion || encoded == "" {
		return "", errInvalidSealedCookie
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", errInvalidSealedCookie
	}

	nonceSize := codec.aead.NonceSize()
	if len(payload) <= nonceSize {
		return "", errInvalidSealedCookie
	}
	plaintext, err := codec.aead.Open(nil, payload[:nonceSize], payload[nonceSize:], []byte(sealedCookieAADBase+name))
	if err != nil {
		return "", errInvalidSealedCookie
	}
	return string(plaintext), nil
}
