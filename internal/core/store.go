package core

import (
	"context"
	"time"

	"github.com/ccodesido/zentiumassist-all/pkg"
)

// The store interfaces are split per collection so each service asks only
// for what it touches.  Implementations return errors wrapping
// pkg.ErrNotFound for missing ids and pkg.ErrConflict for duplicate keys.
// Writes are atomic per record only.

type UserStore interface {
	CreateUser(ctx context.Context, u *pkg.User) error
	GetUserByEmail(ctx context.Context, email string) (*pkg.User, error)
	// DeleteUser removes a user that has no profile yet.
	DeleteUser(ctx context.Context, id string) error
}

type ProfessionalStore interface {
	CreateProfessional(ctx context.Context, p *pkg.Professional) error
	GetProfessional(ctx context.Context, id string) (*pkg.Professional, error)
	GetProfessionalByUserID(ctx context.Context, userID string) (*pkg.Professional, error)
	// FirstProfessional returns the earliest registered professional.
	FirstProfessional(ctx context.Context) (*pkg.Professional, error)
}

type PatientStore interface {
	CreatePatient(ctx context.Context, p *pkg.Patient) error
	GetPatient(ctx context.Context, id string) (*pkg.Patient, error)
	GetPatientByUserID(ctx context.Context, userID string) (*pkg.Patient, error)
	ListPatientsByProfessional(ctx context.Context, professionalID string, limit int) ([]pkg.Patient, error)
	// RecordPatientSession increments session_count and sets last_session.
	RecordPatientSession(ctx context.Context, patientID string, at time.Time) error
}

type SessionStore interface {
	CreateSession(ctx context.Context, s *pkg.Session) error
	GetSession(ctx context.Context, id string) (*pkg.Session, error)
	// ListSessionsByPatient orders by session_date, newest first.
	ListSessionsByPatient(ctx context.Context, patientID string, limit int) ([]pkg.Session, error)
	// ListSessionsByProfessional orders by created_at, newest first.
	ListSessionsByProfessional(ctx context.Context, professionalID string, limit int) ([]pkg.Session, error)
	CompleteSession(ctx context.Context, id, transcript string, analysis pkg.SessionAnalysis, at time.Time) error
}

type TaskStore interface {
	CreateTask(ctx context.Context, t *pkg.Task) error
	GetTask(ctx context.Context, id string) (*pkg.Task, error)
	// ListTasksByPatient orders by created_at, newest first.
	ListTasksByPatient(ctx context.Context, patientID string, limit int) ([]pkg.Task, error)
	CompleteTask(ctx context.Context, id string, notes *string, at time.Time) error
}

type MessageStore interface {
	// AppendMessage inserts a new message.  Messages are never updated.
	AppendMessage(ctx context.Context, m *pkg.ChatMessage) error
	// ListMessages returns a patient's messages newest first; messages with
	// equal timestamps come back in reverse insertion order.
	ListMessages(ctx context.Context, patientID string, limit int) ([]pkg.ChatMessage, error)
	// ListCrisisMessages returns flagged messages of the given patients,
	// newest first.
	ListCrisisMessages(ctx context.Context, patientIDs []string, limit int) ([]pkg.ChatMessage, error)
}

// Store is the full record store.
type Store interface {
	UserStore
	ProfessionalStore
	PatientStore
	SessionStore
	TaskStore
	MessageStore
	Counts(ctx context.Context) (pkg.Counts, error)
	Ping(ctx context.Context) error
}
