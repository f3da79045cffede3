package model

import (
	"fmt"
	"strings"
)

// ProfileType is the kind of account a user holds. It is stored as-is in the
// users table and sent as-is on the wire.
type ProfileType string

const (
	ProfileStudent  ProfileType = "student"
	ProfileLecturer ProfileType = "lecturer"
)

// Valid reports whether p is one of the known profile types.
func (p ProfileType) Valid() bool {
	return p == ProfileStudent || p == ProfileLecturer
}

// ParseProfileType converts a raw string into a ProfileType.
func ParseProfileType(s string) (ProfileType, error) {
	p := ProfileType(strings.TrimSpace(s))
	if !p.Valid() {
		return "", fmt.Errorf("unknown profile type %q", s)
	}
	return p, nil
}

// User is a registered account without its password hash.
type User struct {
	ID           int64       `json:"id"`
	Email        string      `json:"email"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	MatricNumber *string     `json:"matric_number"`
	Department   string      `json:"department"`
	Faculty      string      `json:"faculty"`
	ProfileType  ProfileType `json:"profile_type"`
}
