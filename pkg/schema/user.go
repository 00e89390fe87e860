// Package schema defines the records kept in the gestao database and the
// session record shared by the API and the CLI.
package schema

import "time"

// Admin user roles.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operador"
)

// AdminUser is an operator allowed to sign in. PasswordHash is a bcrypt hash
// and is only ever serialized into storage, never into API responses.
type AdminUser struct {
	ID           string `json:"id"`
	Name         string `json:"nome" validate:"required,min=3,max=120"`
	Login        string `json:"usuario" validate:"required,min=3,max=32,excludesall=0x20"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	Role         string `json:"perfil" validate:"required,oneof=admin operador"`
	Active       bool   `json:"ativo"`
	PasswordHash string `json:"senhaHash"`
	CreatedAt    string `json:"criadoEm,omitempty"`
}

// SessionUser is the signed-in user record held in one session tier.
// A record without LoginTimestamp or ExpiresAt predates session expiry
// and is backfilled on load.
type SessionUser struct {
	Name           string    `json:"name"`
	Username       string    `json:"username,omitempty"`
	Role           string    `json:"role"`
	LoginTimestamp time.Time `json:"loginTimestamp,omitzero"`
	ExpiresAt      time.Time `json:"expiresAt,omitzero"`
}

// Legacy reports whether the lifecycle fields are missing.
func (u SessionUser) Legacy() bool {
	return u.LoginTimestamp.IsZero() || u.ExpiresAt.IsZero()
}
