package domain

import "github.com/google/uuid"

// Identity is the authenticated caller as resolved from a bearer token
// minted by the external identity provider. The API never stores
// identities; memberships reference them by ID only.
type Identity struct {
	ID    uuid.UUID
	Email string
}
