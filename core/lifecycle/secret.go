package lifecycle

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/libwork/core"
)

var (
	ErrIncorrectSecret = core.NewAuthorizationError("Incorrect admin password")

	secretCost = bcrypt.DefaultCost
)

// AdminSecret is the shared passphrase gating edit, remove and reactivate.
type AdminSecret struct {
	hash []byte
}

func NewAdminSecret(plain string) (AdminSecret, error) {
	if plain == "" {
		return AdminSecret{}, errors.New("admin secret cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), secretCost)
	if err != nil {
		return AdminSecret{}, errors.Wrap(err, "hashing admin secret")
	}
	return AdminSecret{hash: hash}, nil
}

// Check returns ErrIncorrectSecret unless input matches the secret.
func (s AdminSecret) Check(input string) error {
	if input == "" || len(s.hash) == 0 {
		return ErrIncorrectSecret
	}
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(input)); err != nil {
		return ErrIncorrectSecret
	}
	return nil
}
