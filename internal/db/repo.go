package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ccodesido/zentiumassist-all/pkg"
	"github.com/lib/pq"
)

// Repository implements the record store on PostgreSQL.
type Repository struct {
	DB *sql.DB
}

// NewRepository constructs a new Repository from an existing sql.DB.
// The caller is responsible for managing the DB connection lifecycle.
func NewRepository(db *sql.DB) *Repository { return &Repository{DB: db} }

func (r *Repository) Ping(ctx context.Context) error { return r.DB.PingContext(ctx) }

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// wrap maps driver errors onto the domain errors.
func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, pkg.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%s: %w", what, pkg.ErrConflict)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// mustAffect turns an UPDATE that matched nothing into ErrNotFound.
func mustAffect(what string, res sql.Result, err error) error {
	if err != nil {
		return wrap(what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, pkg.ErrNotFound)
	}
	return nil
}

// Users

const userColumns = `id, email, name, role, active, password_hash, created_at, updated_at`

func (r *Repository) CreateUser(ctx context.Context, u *pkg.User) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.Name, u.Role, u.Active, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	return wrap("user "+u.Email, err)
}

func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return mustAffect("user "+id, res, err)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*pkg.User, error) {
	var u pkg.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Active, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, wrap("user "+email, err)
	}
	return &u, nil
}

// Professionals

const professionalColumns = `id, user_id, license_number, specialization, institution, created_at`

func scanProfessional(row scanner) (*pkg.Professional, error) {
	var p pkg.Professional
	if err := row.Scan(&p.ID, &p.UserID, &p.LicenseNumber, &p.Specialization, &p.Institution, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) CreateProfessional(ctx context.Context, p *pkg.Professional) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO professionals (`+professionalColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.UserID, p.LicenseNumber, p.Specialization, p.Institution, p.CreatedAt)
	return wrap("professional "+p.ID, err)
}

func (r *Repository) GetProfessional(ctx context.Context, id string) (*pkg.Professional, error) {
	p, err := scanProfessional(r.DB.QueryRowContext(ctx,
		`SELECT `+professionalColumns+` FROM professionals WHERE id = $1`, id))
	return p, wrap("professional "+id, err)
}

func (r *Repository) GetProfessionalByUserID(ctx context.Context, userID string) (*pkg.Professional, error) {
	p, err := scanProfessional(r.DB.QueryRowContext(ctx,
		`SELECT `+professionalColumns+` FROM professionals WHERE user_id = $1 ORDER BY created_at LIMIT 1`, userID))
	return p, wrap("professional for user "+userID, err)
}

func (r *Repository) FirstProfessional(ctx context.Context) (*pkg.Professional, error) {
	p, err := scanProfessional(r.DB.QueryRowContext(ctx,
		`SELECT `+professionalColumns+` FROM professionals ORDER BY created_at, id LIMIT 1`))
	return p, wrap("professional", err)
}

// Patients

const patientColumns = `id, user_id, professional_id, age, gender, diagnosis, risk_level,
	emergency_contact, session_count, last_session, created_at`

func scanPatient(row scanner) (*pkg.Patient, error) {
	var p pkg.Patient
	err := row.Scan(&p.ID, &p.UserID, &p.ProfessionalID, &p.Age, &p.Gender, &p.Diagnosis, &p.RiskLevel,
		&p.EmergencyContact, &p.SessionCount, &p.LastSession, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) CreatePatient(ctx context.Context, p *pkg.Patient) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO patients (`+patientColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.UserID, p.ProfessionalID, p.Age, p.Gender, p.Diagnosis, p.RiskLevel,
		p.EmergencyContact, p.SessionCount, p.LastSession, p.CreatedAt)
	return wrap("patient "+p.ID, err)
}

func (r *Repository) GetPatient(ctx context.Context, id string) (*pkg.Patient, error) {
	p, err := scanPatient(r.DB.QueryRowContext(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE id = $1`, id))
	return p, wrap("patient "+id, err)
}

func (r *Repository) GetPatientByUserID(ctx context.Context, userID string) (*pkg.Patient, error) {
	p, err := scanPatient(r.DB.QueryRowContext(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE user_id = $1 ORDER BY created_at LIMIT 1`, userID))
	return p, wrap("patient for user "+userID, err)
}

func (r *Repository) ListPatientsByProfessional(ctx context.Context, professionalID string, limit int) ([]pkg.Patient, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE professional_id = $1
		 ORDER BY created_at DESC, id LIMIT $2`, professionalID, limit)
	if err != nil {
		return nil, wrap("list patients", err)
	}
	defer rows.Close()
	out := []pkg.Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, wrap("scan patient", err)
		}
		out = append(out, *p)
	}
	return out, wrap("list patients", rows.Err())
}

func (r *Repository) RecordPatientSession(ctx context.Context, patientID string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE patients SET session_count = session_count + 1, last_session = $2 WHERE id = $1`,
		patientID, at)
	return mustAffect("patient "+patientID, res, err)
}

// Sessions
//
// ai_analysis is sent as text: lib/pq encodes []byte as bytea, which jsonb
// does not accept.

const sessionColumns = `id, patient_id, professional_id, session_type, transcript, ai_analysis,
	mood_before, mood_after, notes, duration_minutes, status, session_date, created_at, updated_at`

func scanSession(row scanner) (*pkg.Session, error) {
	var (
		s        pkg.Session
		analysis []byte
	)
	err := row.Scan(&s.ID, &s.PatientID, &s.ProfessionalID, &s.SessionType, &s.Transcript, &analysis,
		&s.MoodBefore, &s.MoodAfter, &s.Notes, &s.DurationMinutes, &s.Status, &s.SessionDate, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(analysis) > 0 {
		s.AIAnalysis = new(pkg.SessionAnalysis)
		if err := json.Unmarshal(analysis, s.AIAnalysis); err != nil {
			return nil, fmt.Errorf("decode ai_analysis: %w", err)
		}
	}
	return &s, nil
}

func (r *Repository) CreateSession(ctx context.Context, s *pkg.Session) error {
	var analysis *string
	if s.AIAnalysis != nil {
		raw, err := json.Marshal(s.AIAnalysis)
		if err != nil {
			return fmt.Errorf("encode ai_analysis: %w", err)
		}
		encoded := string(raw)
		analysis = &encoded
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		s.ID, s.PatientID, s.ProfessionalID, s.SessionType, s.Transcript, analysis,
		s.MoodBefore, s.MoodAfter, s.Notes, s.DurationMinutes, s.Status, s.SessionDate, s.CreatedAt, s.UpdatedAt)
	return wrap("session "+s.ID, err)
}

func (r *Repository) GetSession(ctx context.Context, id string) (*pkg.Session, error) {
	s, err := scanSession(r.DB.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	return s, wrap("session "+id, err)
}

func (r *Repository) listSessions(ctx context.Context, query string, args ...any) ([]pkg.Session, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("list sessions", err)
	}
	defer rows.Close()
	out := []pkg.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, wrap("scan session", err)
		}
		out = append(out, *s)
	}
	return out, wrap("list sessions", rows.Err())
}

func (r *Repository) ListSessionsByPatient(ctx context.Context, patientID string, limit int) ([]pkg.Session, error) {
	return r.listSessions(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE patient_id = $1
		 ORDER BY session_date DESC, id LIMIT $2`, patientID, limit)
}

func (r *Repository) ListSessionsByProfessional(ctx context.Context, professionalID string, limit int) ([]pkg.Session, error) {
	return r.listSessions(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE professional_id = $1
		 ORDER BY created_at DESC, id LIMIT $2`, professionalID, limit)
}

func (r *Repository) CompleteSession(ctx context.Context, id, transcript string, analysis pkg.SessionAnalysis, at time.Time) error {
	raw, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encode ai_analysis: %w", err)
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE sessions SET transcript = $2, ai_analysis = $3, status = $4, updated_at = $5 WHERE id = $1`,
		id, transcript, string(raw), pkg.SessionCompleted, at)
	return mustAffect("session "+id, res, err)
}

// Tasks

const taskColumns = `id, patient_id, professional_id, title, description, task_type, status,
	due_date, completion_notes, created_at, completed_at`

func scanTask(row scanner) (*pkg.Task, error) {
	var t pkg.Task
	err := row.Scan(&t.ID, &t.PatientID, &t.ProfessionalID, &t.Title, &t.Description, &t.TaskType, &t.Status,
		&t.DueDate, &t.CompletionNotes, &t.CreatedAt, &t.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) CreateTask(ctx context.Context, t *pkg.Task) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.PatientID, t.ProfessionalID, t.Title, t.Description, t.TaskType, t.Status,
		t.DueDate, t.CompletionNotes, t.CreatedAt, t.CompletedAt)
	return wrap("task "+t.ID, err)
}

func (r *Repository) GetTask(ctx context.Context, id string) (*pkg.Task, error) {
	t, err := scanTask(r.DB.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	return t, wrap("task "+id, err)
}

func (r *Repository) ListTasksByPatient(ctx context.Context, patientID string, limit int) ([]pkg.Task, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE patient_id = $1
		 ORDER BY created_at DESC, id LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, wrap("list tasks", err)
	}
	defer rows.Close()
	out := []pkg.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, wrap("scan task", err)
		}
		out = append(out, *t)
	}
	return out, wrap("list tasks", rows.Err())
}

func (r *Repository) CompleteTask(ctx context.Context, id string, notes *string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE tasks SET status = $2, completion_notes = $3, completed_at = $4 WHERE id = $1`,
		id, pkg.TaskCompleted, notes, at)
	return mustAffect("task "+id, res, err)
}

// Chat messages

const messageColumns = `id, patient_id, message, sender, ai_response, sentiment, is_crisis, timestamp`

func (r *Repository) AppendMessage(ctx context.Context, m *pkg.ChatMessage) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO chat_messages (`+messageColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.PatientID, m.Message, m.Sender, m.AIResponse, m.Sentiment, m.IsCrisis, m.Timestamp)
	return wrap("message "+m.ID, err)
}

func (r *Repository) listMessages(ctx context.Context, query string, args ...any) ([]pkg.ChatMessage, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("list messages", err)
	}
	defer rows.Close()
	out := []pkg.ChatMessage{}
	for rows.Next() {
		var m pkg.ChatMessage
		if err := rows.Scan(&m.ID, &m.PatientID, &m.Message, &m.Sender, &m.AIResponse, &m.Sentiment, &m.IsCrisis, &m.Timestamp); err != nil {
			return nil, wrap("scan message", err)
		}
		m.Timestamp = m.Timestamp.UTC()
		out = append(out, m)
	}
	return out, wrap("list messages", rows.Err())
}

func (r *Repository) ListMessages(ctx context.Context, patientID string, limit int) ([]pkg.ChatMessage, error) {
	return r.listMessages(ctx,
		`SELECT `+messageColumns+` FROM chat_messages WHERE patient_id = $1
		 ORDER BY timestamp DESC, seq DESC LIMIT $2`, patientID, limit)
}

func (r *Repository) ListCrisisMessages(ctx context.Context, patientIDs []string, limit int) ([]pkg.ChatMessage, error) {
	return r.listMessages(ctx,
		`SELECT `+messageColumns+` FROM chat_messages WHERE is_crisis AND patient_id = ANY($1)
		 ORDER BY timestamp DESC, seq DESC LIMIT $2`, pq.Array(patientIDs), limit)
}

func (r *Repository) Counts(ctx context.Context) (pkg.Counts, error) {
	var c pkg.Counts
	err := r.DB.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM patients),
		(SELECT COUNT(*) FROM professionals),
		(SELECT COUNT(*) FROM sessions),
		(SELECT COUNT(*) FROM chat_messages WHERE is_crisis)`,
	).Scan(&c.Users, &c.Patients, &c.Professionals, &c.Sessions, &c.CrisisAlerts)
	return c, wrap("counts", err)
}
