package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownRole = errors.New("unknown role")

// Role is the staff category held by a user. A user has exactly one role
// and it never changes after the account is created.
type Role string

const (
	PracticeManager Role = "practice_manager"
	Veterinarian    Role = "veterinarian"
	VetTechnician   Role = "vet_technician"
	VetAssistant    Role = "vet_assistant"
	Receptionist    Role = "receptionist"
	PetOwner        Role = "pet_owner"
)

var roles = []Role{
	PracticeManager,
	Veterinarian,
	VetTechnician,
	VetAssistant,
	Receptionist,
	PetOwner,
}

// Roles returns every role in enumeration order.
func Roles() []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

func (r Role) Valid() bool {
	return r.Index() >= 0
}

func (r Role) String() string {
	return string(r)
}

// Index is the position of r in enumeration order, or -1.
func (r Role) Index() int {
	for i, known := range roles {
		if known == r {
			return i
		}
	}
	return -1
}

func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return role, nil
}
