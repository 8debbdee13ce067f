package pkg

import "time"

// Role identifies what kind of account a user holds.
type Role string

const (
	RoleProfessional Role = "professional"
	RolePatient      Role = "patient"
	RoleAdmin        Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleProfessional, RolePatient, RoleAdmin:
		return true
	}
	return false
}

// User is an account on the platform.  The password hash never leaves the
// server.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Professional is the clinical profile attached to a professional user.
type Professional struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	LicenseNumber  string    `json:"license_number"`
	Specialization string    `json:"specialization"`
	Institution    string    `json:"institution"`
	CreatedAt      time.Time `json:"created_at"`
}

// RiskLevel is set by professionals or external processes.  Chat crisis
// detection never writes it.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Patient is the profile of a patient user, owned by one professional.
type Patient struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	ProfessionalID   string     `json:"professional_id"`
	Age              int        `json:"age"`
	Gender           string     `json:"gender"`
	Diagnosis        *string    `json:"diagnosis,omitempty"`
	RiskLevel        RiskLevel  `json:"risk_level"`
	EmergencyContact string     `json:"emergency_contact"`
	SessionCount     int        `json:"session_count"`
	LastSession      *time.Time `json:"last_session,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type SessionType string

const (
	SessionTherapy    SessionType = "therapy"
	SessionEvaluation SessionType = "evaluation"
	SessionFollowUp   SessionType = "follow_up"
)

type SessionStatus string

const (
	SessionScheduled  SessionStatus = "scheduled"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

// SessionAnalysis is the structured output of transcript analysis.
type SessionAnalysis struct {
	Summary            string `json:"summary"`
	EmotionalState     string `json:"emotional_state"`
	ProgressIndicators string `json:"progress_indicators"`
	Recommendations    string `json:"recommendations"`
	RiskLevel          string `json:"risk_level"`
}

// Session is a therapy session between a patient and their professional.
type Session struct {
	ID              string           `json:"id"`
	PatientID       string           `json:"patient_id"`
	ProfessionalID  string           `json:"professional_id"`
	SessionType     SessionType      `json:"session_type"`
	Transcript      *string          `json:"transcript,omitempty"`
	AIAnalysis      *SessionAnalysis `json:"ai_analysis,omitempty"`
	MoodBefore      *int             `json:"mood_before,omitempty"`
	MoodAfter       *int             `json:"mood_after,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	DurationMinutes *int             `json:"duration_minutes,omitempty"`
	Status          SessionStatus    `json:"status"`
	SessionDate     time.Time        `json:"session_date"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type TaskType string

const (
	TaskHomework    TaskType = "homework"
	TaskExercise    TaskType = "exercise"
	TaskReflection  TaskType = "reflection"
	TaskMindfulness TaskType = "mindfulness"
)

type TaskStatus string

const (
	TaskAssigned   TaskStatus = "assigned"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskSkipped    TaskStatus = "skipped"
)

// Task is a therapeutic assignment given to a patient.
type Task struct {
	ID              string     `json:"id"`
	PatientID       string     `json:"patient_id"`
	ProfessionalID  string     `json:"professional_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	TaskType        TaskType   `json:"task_type"`
	Status          TaskStatus `json:"status"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	CompletionNotes *string    `json:"completion_notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Sender describes who authored a chat message.
type Sender string

const (
	SenderPatient   Sender = "patient"
	SenderAssistant Sender = "assistant"
)

// ChatMessage is one turn of a patient's conversation with the assistant.
// Messages are appended and never edited.
type ChatMessage struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patient_id"`
	Message    string    `json:"message"`
	Sender     Sender    `json:"sender"`
	AIResponse *string   `json:"ai_response,omitempty"`
	Sentiment  *string   `json:"sentiment,omitempty"`
	IsCrisis   bool      `json:"is_crisis"`
	Timestamp  time.Time `json:"timestamp"`
}

// ChatResult is returned to the patient after each message.
type ChatResult struct {
	UserMessage     ChatMessage `json:"user_message"`
	AIResponse      ChatMessage `json:"ai_response"`
	IsCrisis        bool        `json:"is_crisis"`
	CrisisLevel     *string     `json:"crisis_level"`
	Recommendations []string    `json:"recommendations"`
}

// CrisisAlert is emitted when a known patient's message is flagged.
type CrisisAlert struct {
	PatientID      string    `json:"patient_id"`
	ProfessionalID string    `json:"professional_id"`
	MessageID      string    `json:"message_id"`
	Keyword        string    `json:"keyword,omitempty"`
	Label          string    `json:"label,omitempty"`
	DetectedAt     time.Time `json:"detected_at"`
}

// Counts aggregates collection sizes for the analytics dashboard.
type Counts struct {
	Users         int `json:"total_users"`
	Patients      int `json:"total_patients"`
	Professionals int `json:"total_professionals"`
	Sessions      int `json:"total_sessions"`
	CrisisAlerts  int `json:"crisis_alerts"`
}

// Request payloads.  Tags are checked by Validate.

type UserCreate struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Password string `json:"password" validate:"required,min=8"`
	Role     Role   `json:"role" validate:"required,oneof=professional patient admin"`
}

type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type PatientCreate struct {
	Age              int    `json:"age" validate:"range=1:120"`
	Gender           string `json:"gender" validate:"required"`
	EmergencyContact string `json:"emergency_contact" validate:"required"`
	ProfessionalID   string `json:"professional_id"`
}

type SessionCreate struct {
	PatientID   string      `json:"patient_id" validate:"required"`
	SessionType SessionType `json:"session_type" validate:"oneof=therapy evaluation follow_up"`
	SessionDate time.Time   `json:"session_date"`
	Notes       *string     `json:"notes,omitempty"`
}

type TranscriptUpdate struct {
	Transcript string `json:"transcript" validate:"required"`
}

type TaskCreate struct {
	PatientID   string     `json:"patient_id" validate:"required"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"required"`
	TaskType    TaskType   `json:"task_type" validate:"required,oneof=homework exercise reflection mindfulness"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

type TaskCompletion struct {
	CompletionNotes *string `json:"completion_notes,omitempty"`
}

type ChatMessageCreate struct {
	Message string `json:"message"`
}

// QuickChatRequest is the body of the session-less chat.  SessionID is
// echoed back; one is generated when it is empty.
type QuickChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// QuickChatResult answers a session-less chat message.  Nothing is stored.
type QuickChatResult struct {
	Response        string   `json:"response"`
	SessionID       string   `json:"session_id"`
	CrisisDetected  bool     `json:"crisis_detected"`
	CrisisLevel     *string  `json:"crisis_level"`
	Recommendations []string `json:"recommendations"`
}

// AnalyticsDashboard is the system-wide analytics response.
type AnalyticsDashboard struct {
	Counts
	SystemStatus string `json:"system_status"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
	Profile     any    `json:"profile,omitempty"`
}

// ProfessionalDashboard is the professional's overview of their caseload.
type ProfessionalDashboard struct {
	ProfessionalID string         `json:"professional_id"`
	PatientsCount  int            `json:"patients_count"`
	Patients       []Patient      `json:"patients"`
	RecentSessions []Session      `json:"recent_sessions"`
	CrisisAlerts   []ChatMessage  `json:"crisis_alerts"`
	Stats          DashboardStats `json:"stats"`
}

type DashboardStats struct {
	TotalPatients  int `json:"total_patients"`
	ActiveSessions int `json:"active_sessions"`
	CrisisAlerts   int `json:"crisis_alerts"`
}
