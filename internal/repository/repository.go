package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Nishi-Taiga/F-education-sub002/internal/model"
)

var ErrProfileNotFound = errors.New("profile_not_found")

type SetupStep string

const (
	StepStudent SetupStep = "student"
	StepParent  SetupStep = "parent"
	StepTutor   SetupStep = "tutor"
)

func ParseSetupStep(value string) (SetupStep, bool) {
	switch step := SetupStep(value); step {
	case StepStudent, StepParent, StepTutor:
		return step, true
	}
	return "", false
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const profileColumns = `id, email, role, first_name, last_name, profile_completed, tutor_profile_completed, created_at, updated_at`

// FindProfileByEmail returns nil without error when nobody signed up with that email.
// The email is compared exactly as stored.
func (s *Store) FindProfileByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	row := s.pool.QueryRow(ctx, `
    SELECT `+profileColumns+`
    FROM users
    WHERE email = $1
  `, email)
	profile, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *Store) MarkProfileCompleted(ctx context.Context, email string, step SetupStep) (*model.UserProfile, error) {
	tutor := step == StepTutor
	row := s.pool.QueryRow(ctx, `
    UPDATE users
    SET profile_completed = true,
        tutor_profile_completed = tutor_profile_completed OR $2,
        updated_at = $3
    WHERE email = $1
    RETURNING `+profileColumns+`
  `, email, tutor, time.Now().UTC())
	profile, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	return profile, err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func scanProfile(row pgx.Row) (*model.UserProfile, error) {
	var (
		profile model.UserProfile
		role    string
	)
	err := row.Scan(
		&profile.ID,
		&profile.Email,
		&role,
		&profile.FirstName,
		&profile.LastName,
		&profile.ProfileCompleted,
		&profile.TutorProfileCompleted,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	parsed, ok := model.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("user %s has unknown role %q", profile.ID, role)
	}
	profile.Role = parsed
	return &profile, nil
}
