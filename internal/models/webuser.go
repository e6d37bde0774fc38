package models

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	hashAlgorithm  = "pbkdf2_sha256"
	hashIterations = 100000
	saltSize       = 16
	keySize        = 32
)

// ErrMalformedHash is returned for stored hashes that cannot be parsed.
var ErrMalformedHash = errors.New("malformed password hash")

// WebUser is an account of the web reporting interface.
type WebUser struct {
	Username        string `json:"username"`
	PasswordHash    string `json:"-"`
	PermissionLevel int    `json:"permission_level"`
}

// NewWebUser hashes the password with a random salt.
func NewWebUser(username, password string, level int) (WebUser, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return WebUser{}, fmt.Errorf("generate salt: %w", err)
	}

	return WebUser{
		Username:        username,
		PasswordHash:    encodeHash(password, salt, hashIterations),
		PermissionLevel: level,
	}, nil
}

// CheckPassword verifies a password against the stored hash in constant time.
func (u WebUser) CheckPassword(password string) (bool, error) {
	parts := strings.Split(u.PasswordHash, ":")
	if len(parts) != 4 || parts[0] != hashAlgorithm {
		return false, ErrMalformedHash
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return false, ErrMalformedHash
	}
	salt, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return false, ErrMalformedHash
	}

	computed := encodeHash(password, salt, iterations)

	return subtle.ConstantTimeCompare([]byte(computed), []byte(u.PasswordHash)) == 1, nil
}

// encodeHash formats algorithm:iterations:salt:key, all within varchar(100).
func encodeHash(password string, salt []byte, iterations int) string {
	key := pbkdf2.Key([]byte(password), salt, iterations, keySize, sha256.New)

	return hashAlgorithm + ":" + strconv.Itoa(iterations) + ":" +
		base64.StdEncoding.EncodeToString(salt) + ":" +
		base64.StdEncoding.EncodeToString(key)
}
