package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/argon2"

	"github.com/huellitas/huellitas-backend/pkg/config"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

var (
	ErrWeakPassword = fmt.Errorf("password must have at least %d characters including a letter and a digit", MinPasswordLength)
	ErrInvalidHash  = errors.New("invalid argon2id hash")
)

var b64 = base64.RawStdEncoding

// argonCost is the tunable part of an Argon2id hash. It is encoded into
// every PHC string so old hashes keep verifying after the config changes.
type argonCost struct {
	memoryKB uint32
	passes   uint32
	threads  uint8
}

func costFromConfig(cfg config.PasswordConfig) (argonCost, uint32, uint32) {
	cost := argonCost{
		memoryKB: uint32(bounded(cfg.ArgonMemoryKB, 8, 512*1024)),
		passes:   uint32(bounded(cfg.ArgonTime, 1, 10)),
		threads:  uint8(bounded(cfg.ArgonParallelism, 1, 255)),
	}
	saltLen := uint32(bounded(cfg.ArgonSaltLen, 8, 64))
	keyLen := uint32(bounded(cfg.ArgonKeyLen, 16, 64))
	return cost, saltLen, keyLen
}

func (c argonCost) derive(password string, salt []byte, keyLen uint32) []byte {
	return argon2.IDKey([]byte(password), salt, c.passes, c.memoryKB, c.threads, keyLen)
}

// HashPassword derives an Argon2id key and encodes it in PHC form:
// $argon2id$v=19$m=<kb>,t=<passes>,p=<threads>$<salt>$<key>.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	cost, saltLen, keyLen := costFromConfig(cfg)

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	key := cost.derive(password, salt, keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, cost.memoryKB, cost.passes, cost.threads,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// VerifyPassword recomputes the key with the cost stored in encoded and
// compares in constant time. A mismatch is (false, nil).
func VerifyPassword(password, encoded string) (bool, error) {
	cost, salt, want, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	got := cost.derive(password, salt, uint32(len(want)))
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

func parsePHC(encoded string) (argonCost, []byte, []byte, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return argonCost{}, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return argonCost{}, nil, nil, ErrInvalidHash
	}

	var cost argonCost
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &cost.memoryKB, &cost.passes, &cost.threads); err != nil {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	if cost.memoryKB == 0 || cost.passes == 0 || cost.threads == 0 {
		return argonCost{}, nil, nil, ErrInvalidHash
	}

	salt, err := b64.DecodeString(fields[4])
	if err != nil || len(salt) == 0 {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(fields[5])
	if err != nil || len(key) == 0 {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	return cost, salt, key, nil
}

func bounded(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// CheckPasswordPolicy enforces the minimum length plus at least one letter
// and one digit.
func CheckPasswordPolicy(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrWeakPassword
	}
	hasLetter := strings.IndexFunc(password, unicode.IsLetter) >= 0
	hasDigit := strings.IndexFunc(password, unicode.IsDigit) >= 0
	if !hasLetter || !hasDigit {
		return ErrWeakPassword
	}
	return nil
}
