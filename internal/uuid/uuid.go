// Package uuid generates random identifiers for sessions, CSRF tokens and
// stored records.
package uuid

import "github.com/google/uuid"

// New returns a random (version 4) UUID string.
func New() string {
	return uuid.NewString()
}
