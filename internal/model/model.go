package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleTeacher  Role = "teacher"
	RoleGuardian Role = "guardian"
	RoleStudent  Role = "student"
)

// ParseRole accepts the stored role names; "parent" is the older spelling of guardian.
func ParseRole(value string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "admin":
		return RoleAdmin, true
	case "teacher", "tutor":
		return RoleTeacher, true
	case "guardian", "parent":
		return RoleGuardian, true
	case "student":
		return RoleStudent, true
	}
	return "", false
}

// Session is owned by the auth service and only read here.
type Session struct {
	UserID      string
	Email       *string
	ExpiresAt   time.Time
	AccessToken string
}

func (s *Session) EmailAddress() string {
	if s == nil || s.Email == nil {
		return ""
	}
	return *s.Email
}

type UserProfile struct {
	ID                    string
	Email                 string
	Role                  Role
	FirstName             *string
	LastName              *string
	ProfileCompleted      bool
	TutorProfileCompleted bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (p *UserProfile) Completed() bool {
	return p != nil && p.ProfileCompleted
}

func (p *UserProfile) DisplayName() string {
	if p == nil {
		return "User"
	}
	var parts []string
	for _, part := range []*string{p.FirstName, p.LastName} {
		if part == nil {
			continue
		}
		if trimmed := strings.TrimSpace(*part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if local, _, ok := strings.Cut(p.Email, "@"); ok && local != "" {
		return local
	}
	return "User"
}
