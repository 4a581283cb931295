package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// UserIDLength is the number of hex characters kept from the seed digest.
const UserIDLength = 7

// Identity is the pseudonymous label derived from a client seed.
type Identity struct {
	UserID     string
	HashedSeed string
}

// DeriveIdentity hashes seed with SHA-256. The same seed always yields the same identity.
func DeriveIdentity(seed string) Identity {
	sum := sha256.Sum256([]byte(seed))
	hashed := hex.EncodeToString(sum[:])
	return Identity{
		UserID:     hashed[:UserIDLength],
		HashedSeed: hashed,
	}
}

// Submission is the body of a script-driven post request.
type Submission struct {
	Username   string `json:"username"`
	Seed       string `json:"seed"`
	Message    string `json:"message"`
	RememberMe bool   `json:"remember_me"`
}
