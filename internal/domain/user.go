package domain

// RoleSpeaker is the only role assigned to board users.
const RoleSpeaker = "speaker"

// User is a display name that has posted at least once.
type User struct {
	ID         int64  `json:"id,omitempty"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	HashedSeed string `json:"hashed_seed"`
}
