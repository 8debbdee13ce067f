package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ccodesido/zentiumassist-all/internal/auth"
	"github.com/ccodesido/zentiumassist-all/pkg"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	patientListLimit   = 100
	recordListLimit    = 50
	dashboardSessions  = 10
	dashboardCrisisMsg = 5
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID, role string) (string, error)
}

// RecordService implements the account, professional, patient, session and
// task operations.  References between records (patient to professional,
// session or task to patient) are checked when a record is created; nothing
// keeps them consistent afterwards.
type RecordService struct {
	Store    Store
	Analyzer *Analyzer
	Tokens   TokenIssuer
	Logger   *zap.Logger
	Now      func() time.Time
}

func NewRecordService(store Store, analyzer *Analyzer, tokens TokenIssuer, logger *zap.Logger) *RecordService {
	return &RecordService{Store: store, Analyzer: analyzer, Tokens: tokens, Logger: logger, Now: time.Now}
}

func (s *RecordService) now() time.Time {
	return s.Now().UTC().Truncate(time.Microsecond)
}

// Register creates a user.  Professionals get a provisional profile;
// patients are attached to the earliest professional, and a system
// professional is created when there is none yet.
func (s *RecordService) Register(ctx context.Context, in pkg.UserCreate) (*pkg.AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := pkg.Validate(in); err != nil {
		return nil, err
	}
	if _, err := s.Store.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%w: el email ya está registrado en el sistema", pkg.ErrConflict)
	} else if !errors.Is(err, pkg.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &pkg.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Name:         in.Name,
		Role:         in.Role,
		Active:       true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	var profile any
	switch user.Role {
	case pkg.RoleProfessional:
		prof := &pkg.Professional{
			ID:             uuid.NewString(),
			UserID:         user.ID,
			LicenseNumber:  "TEMP-" + uuid.NewString()[:8],
			Specialization: "Psicología Clínica",
			Institution:    "Zentium Assist",
			CreatedAt:      now,
		}
		if err := s.Store.CreateProfessional(ctx, prof); err != nil {
			s.discardUser(ctx, user.ID)
			return nil, fmt.Errorf("create professional profile: %w", err)
		}
		profile = prof
	case pkg.RolePatient:
		prof, err := s.defaultProfessional(ctx)
		if err != nil {
			s.discardUser(ctx, user.ID)
			return nil, err
		}
		patient := &pkg.Patient{
			ID:               uuid.NewString(),
			UserID:           user.ID,
			ProfessionalID:   prof.ID,
			Age:              25,
			Gender:           "no especificado",
			RiskLevel:        pkg.RiskLow,
			EmergencyContact: "Contacto de emergencia no especificado",
			CreatedAt:        now,
		}
		if err := s.Store.CreatePatient(ctx, patient); err != nil {
			s.discardUser(ctx, user.ID)
			return nil, fmt.Errorf("create patient profile: %w", err)
		}
		profile = patient
	}

	s.Logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return s.authResult(user, profile)
}

// discardUser removes a user whose profile could not be created, so the
// email can be registered again.  Writes are not transactional.
func (s *RecordService) discardUser(ctx context.Context, userID string) {
	if err := s.Store.DeleteUser(ctx, userID); err != nil {
		s.Logger.Error("failed to remove user without profile",
			zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *RecordService) defaultProfessional(ctx context.Context) (*pkg.Professional, error) {
	prof, err := s.Store.FirstProfessional(ctx)
	if err == nil {
		return prof, nil
	}
	if !errors.Is(err, pkg.ErrNotFound) {
		return nil, fmt.Errorf("find professional: %w", err)
	}
	prof = &pkg.Professional{
		ID:             uuid.NewString(),
		UserID:         "system",
		LicenseNumber:  "SYSTEM-DEFAULT",
		Specialization: "Psicología General",
		Institution:    "Zentium Assist",
		CreatedAt:      s.now(),
	}
	if err := s.Store.CreateProfessional(ctx, prof); err != nil {
		return nil, fmt.Errorf("create default professional: %w", err)
	}
	s.Logger.Info("created default professional", zap.String("professional_id", prof.ID))
	return prof, nil
}

// Login checks the credentials and returns the user with their profile.
func (s *RecordService) Login(ctx context.Context, in pkg.UserLogin) (*pkg.AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := pkg.Validate(in); err != nil {
		return nil, err
	}
	invalid := fmt.Errorf("%w: email o contraseña incorrectos", pkg.ErrUnauthorized)
	user, err := s.Store.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user.PasswordHash == "" || !auth.CheckPassword(user.PasswordHash, in.Password) {
		return nil, invalid
	}
	if !user.Active {
		return nil, fmt.Errorf("%w: usuario desactivado", pkg.ErrForbidden)
	}

	var profile any
	switch user.Role {
	case pkg.RoleProfessional:
		if p, err := s.Store.GetProfessionalByUserID(ctx, user.ID); err == nil {
			profile = p
		} else if !errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("load professional profile: %w", err)
		}
	case pkg.RolePatient:
		if p, err := s.Store.GetPatientByUserID(ctx, user.ID); err == nil {
			profile = p
		} else if !errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("load patient profile: %w", err)
		}
	}
	return s.authResult(user, profile)
}

func (s *RecordService) authResult(user *pkg.User, profile any) (*pkg.AuthResult, error) {
	token, err := s.Tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &pkg.AuthResult{AccessToken: token, TokenType: "bearer", User: *user, Profile: profile}, nil
}

// CreatePatient creates a placeholder patient account and profile owned by
// professionalID.
func (s *RecordService) CreatePatient(ctx context.Context, professionalID string, in pkg.PatientCreate) (*pkg.Patient, error) {
	if err := pkg.Validate(in); err != nil {
		return nil, err
	}
	if in.ProfessionalID != "" && in.ProfessionalID != professionalID {
		return nil, fmt.Errorf("%w: professional_id does not match the path", pkg.ErrValidation)
	}
	if _, err := s.Store.GetProfessional(ctx, professionalID); err != nil {
		return nil, fmt.Errorf("profesional %s: %w", professionalID, err)
	}

	now := s.now()
	tag := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	user := &pkg.User{
		ID:        uuid.NewString(),
		Email:     "patient_" + tag + "@zentium.temp",
		Name:      "Paciente " + strings.ToUpper(tag),
		Role:      pkg.RolePatient,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create patient user: %w", err)
	}
	patient := &pkg.Patient{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		ProfessionalID:   professionalID,
		Age:              in.Age,
		Gender:           strings.TrimSpace(in.Gender),
		RiskLevel:        pkg.RiskLow,
		EmergencyContact: strings.TrimSpace(in.EmergencyContact),
		CreatedAt:        now,
	}
	if err := s.Store.CreatePatient(ctx, patient); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return patient, nil
}

// ListPatients returns the professional's patients.  An unknown professional
// simply has none.
func (s *RecordService) ListPatients(ctx context.Context, professionalID string) ([]pkg.Patient, error) {
	return s.Store.ListPatientsByProfessional(ctx, professionalID, patientListLimit)
}

func (s *RecordService) GetPatient(ctx context.Context, patientID string) (*pkg.Patient, error) {
	p, err := s.Store.GetPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("patient %s: %w", patientID, err)
	}
	return p, nil
}

func (s *RecordService) ListPatientSessions(ctx context.Context, patientID string) ([]pkg.Session, error) {
	return s.Store.ListSessionsByPatient(ctx, patientID, recordListLimit)
}

func (s *RecordService) ListPatientTasks(ctx context.Context, patientID string) ([]pkg.Task, error) {
	return s.Store.ListTasksByPatient(ctx, patientID, recordListLimit)
}

// ProfessionalDashboard gathers the professional's caseload, recent sessions
// and the latest flagged messages of their patients.
func (s *RecordService) ProfessionalDashboard(ctx context.Context, professionalID string) (*pkg.ProfessionalDashboard, error) {
	if _, err := s.Store.GetProfessional(ctx, professionalID); err != nil {
		return nil, fmt.Errorf("profesional %s: %w", professionalID, err)
	}
	patients, err := s.Store.ListPatientsByProfessional(ctx, professionalID, patientListLimit)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	sessions, err := s.Store.ListSessionsByProfessional(ctx, professionalID, dashboardSessions)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	alerts := []pkg.ChatMessage{}
	if len(patients) > 0 {
		ids := lo.Map(patients, func(p pkg.Patient, _ int) string { return p.ID })
		alerts, err = s.Store.ListCrisisMessages(ctx, ids, dashboardCrisisMsg)
		if err != nil {
			return nil, fmt.Errorf("list crisis messages: %w", err)
		}
	}
	active := lo.CountBy(sessions, func(sess pkg.Session) bool { return sess.Status == pkg.SessionInProgress })
	return &pkg.ProfessionalDashboard{
		ProfessionalID: professionalID,
		PatientsCount:  len(patients),
		Patients:       patients,
		RecentSessions: sessions,
		CrisisAlerts:   alerts,
		Stats: pkg.DashboardStats{
			TotalPatients:  len(patients),
			ActiveSessions: active,
			CrisisAlerts:   len(alerts),
		},
	}, nil
}

// CreateSession schedules a session for an existing patient with the
// patient's professional.
func (s *RecordService) CreateSession(ctx context.Context, in pkg.SessionCreate) (*pkg.Session, error) {
	if err := pkg.Validate(in); err != nil {
		return nil, err
	}
	if in.SessionDate.IsZero() {
		return nil, fmt.Errorf("%w: session_date is required", pkg.ErrValidation)
	}
	patient, err := s.Store.GetPatient(ctx, in.PatientID)
	if err != nil {
		return nil, fmt.Errorf("patient %s: %w", in.PatientID, err)
	}
	if in.SessionType == "" {
		in.SessionType = pkg.SessionTherapy
	}
	now := s.now()
	session := &pkg.Session{
		ID:             uuid.NewString(),
		PatientID:      patient.ID,
		ProfessionalID: patient.ProfessionalID,
		SessionType:    in.SessionType,
		Notes:          in.Notes,
		Status:         pkg.SessionScheduled,
		SessionDate:    in.SessionDate.UTC(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// UpdateTranscript stores the transcript, analyses it and completes the
// session.  The first completion also bumps the patient's session counter.
func (s *RecordService) UpdateTranscript(ctx context.Context, sessionID string, in pkg.TranscriptUpdate) (*pkg.Session, error) {
	if err := pkg.Validate(in); err != nil {
		return nil, err
	}
	session, err := s.Store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	analysis := s.Analyzer.Analyze(ctx, in.Transcript)
	now := s.now()
	if err := s.Store.CompleteSession(ctx, sessionID, in.Transcript, analysis, now); err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	if session.Status != pkg.SessionCompleted {
		if err := s.Store.RecordPatientSession(ctx, session.PatientID, now); err != nil && !errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("update patient session count: %w", err)
		}
	}
	transcript := in.Transcript
	session.Transcript = &transcript
	session.AIAnalysis = &analysis
	session.Status = pkg.SessionCompleted
	session.UpdatedAt = now
	return session, nil
}

// CreateTask assigns a task to an existing patient.
func (s *RecordService) CreateTask(ctx context.Context, in pkg.TaskCreate) (*pkg.Task, error) {
	if err := pkg.Validate(in); err != nil {
		return nil, err
	}
	patient, err := s.Store.GetPatient(ctx, in.PatientID)
	if err != nil {
		return nil, fmt.Errorf("patient %s: %w", in.PatientID, err)
	}
	task := &pkg.Task{
		ID:             uuid.NewString(),
		PatientID:      patient.ID,
		ProfessionalID: patient.ProfessionalID,
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		TaskType:       in.TaskType,
		Status:         pkg.TaskAssigned,
		DueDate:        in.DueDate,
		CreatedAt:      s.now(),
	}
	if err := s.Store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// CompleteTask marks a task completed with optional notes.
func (s *RecordService) CompleteTask(ctx context.Context, taskID string, in pkg.TaskCompletion) (*pkg.Task, error) {
	task, err := s.Store.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", taskID, err)
	}
	now := s.now()
	if err := s.Store.CompleteTask(ctx, taskID, in.CompletionNotes, now); err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}
	task.Status = pkg.TaskCompleted
	task.CompletionNotes = in.CompletionNotes
	task.CompletedAt = &now
	return task, nil
}

func (s *RecordService) Analytics(ctx context.Context) (pkg.Counts, error) {
	return s.Store.Counts(ctx)
}
