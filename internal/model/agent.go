package model

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Agent is a simulated social-network participant. Agents are created
// independently of runs and are read-only during simulation.
type Agent struct {
	ID          uuid.UUID `json:"id"`
	Handle      string    `json:"handle"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio,omitempty"`
	Persona     string    `json:"persona,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

var handleRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,63}$`)

// ValidateHandle checks that an agent handle is non-empty, at most 64
// characters, and contains only [a-zA-Z0-9._-] with an alphanumeric first
// character.
func ValidateHandle(handle string) error {
	if handle == "" {
		return fmt.Errorf("model: handle must not be empty")
	}
	if !handleRe.MatchString(handle) {
		return fmt.Errorf("model: invalid handle %q", handle)
	}
	return nil
}
