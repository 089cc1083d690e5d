package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"

	"golang.org/x/crypto/scrypt"

	"howett.net/vellum"
)

var base32Encoder = base32.NewEncoding("abcdefghjkmnopqrstuvwxyz23456789").WithPadding(base32.NoPadding)

func generateRandomBytes(nbytes int) ([]byte, error) {
	b := make([]byte, nbytes)
	n, err := rand.Read(b)
	if n != len(b) || err != nil {
		return nil, err
	}
	return b, nil
}

func generateSecret() (string, error) {
	b, err := generateRandomBytes(32)
	if err != nil {
		return "", err
	}
	return base32Encoder.EncodeToString(b), nil
}

func hashSecret(secret string, salt []byte) ([]byte, error) {
	return scrypt.Key([]byte(secret), salt, 1<<15, 8, 1, 32)
}

// issueDeletionKey mints the one-time secret bound to an anonymous paste
// and stores only its salted hash. The plaintext secret is returned to
// the creator exactly once.
func (s *Service) issueDeletionKey(ctx context.Context, pasteID vellum.PasteID) (string, error) {
	secret, err := generateSecret()
	if err != nil {
		return "", err
	}

	salt, err := generateRandomBytes(16)
	if err != nil {
		return "", err
	}

	hash, err := hashSecret(secret, salt)
	if err != nil {
		return "", err
	}

	key := &vellum.DeletionKey{
		ID:      vellum.NewDeletionKeyID(),
		PasteID: pasteID,
		Hash:    hash,
		Salt:    salt,
	}
	if err := s.Provider.CreateDeletionKey(ctx, key); err != nil {
		return "", err
	}
	return secret, nil
}

// VerifyDeletionKey checks a presented secret against the stored hash in
// constant time.
func (s *Service) VerifyDeletionKey(ctx context.Context, pasteID vellum.PasteID, secret string) (bool, error) {
	key, err := s.Provider.GetDeletionKey(ctx, pasteID)
	if err == vellum.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	hash, err := hashSecret(secret, key.Salt)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(hash, key.Hash) == 1, nil
}
