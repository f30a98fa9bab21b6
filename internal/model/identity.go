package model

// Role distinguishes the two kinds of signed-in identity a client can hold.
// Both may be present at once on a shared machine.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Identity is one signed-in account as persisted in the local session store.
// AdminToken on a student identity is the admin the student is enrolled
// under; on an admin identity it mirrors the account's own admin token.
type Identity struct {
	Name       string `db:"name" json:"name"`
	Token      string `db:"token" json:"token"`
	AdminToken string `db:"admin_token" json:"adminToken,omitempty"`
}
