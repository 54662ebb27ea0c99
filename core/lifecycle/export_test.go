package lifecycle

import "golang.org/x/crypto/bcrypt"

func init() {
	secretCost = bcrypt.MinCost
}
