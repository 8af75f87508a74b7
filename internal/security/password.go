package security

import "golang.org/x/crypto/bcrypt"

// MaxPasswordBytes is bcrypt's input limit, counted in bytes, not runes.
const MaxPasswordBytes = 72

var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// HashPassword hashes a plain text password with bcrypt. The salt is embedded
// in the returned hash.
func HashPassword(plain string) (string, error) {
	if len(plain) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// helper that compares a bcrypt hash with a plaintext password.

func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// VerifyPassword reports whether plain matches hash. Malformed hashes count
// as a mismatch.
func VerifyPassword(hash, plain string) bool {
	return CheckPassword(hash, plain) == nil
}
