package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ccodesido/zentiumassist-all/internal/llm"
	"github.com/ccodesido/zentiumassist-all/pkg"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MaxMessageLength bounds a patient message, in characters.
	MaxMessageLength = 1000
	// MaxHistoryLimit caps a single history page.
	MaxHistoryLimit = 200
)

// PatientLookup is the part of the patient store the chat needs.
type PatientLookup interface {
	GetPatient(ctx context.Context, id string) (*pkg.Patient, error)
}

// ChatService handles a patient's conversation with the assistant: it gets
// the agent's reply, applies the crisis policy, raises alerts and appends
// both turns to the patient's message log.
type ChatService struct {
	LLM      llm.Client
	Messages MessageStore
	Patients PatientLookup
	Policy   *CrisisPolicy
	Alerter  Alerter
	Logger   *zap.Logger
	// Timeout bounds each agent call.
	Timeout time.Duration
	// HistoryLimit is used when History is called without a limit.
	HistoryLimit int
	Now          func() time.Time
}

// NewChatService constructs a ChatService with the default crisis policy, a
// log-only alerter, a 30 second agent timeout and a history page of 50.
func NewChatService(client llm.Client, messages MessageStore, patients PatientLookup, logger *zap.Logger) *ChatService {
	return &ChatService{
		LLM:          client,
		Messages:     messages,
		Patients:     patients,
		Policy:       NewCrisisPolicy(),
		Alerter:      LogAlerter{Logger: logger},
		Logger:       logger,
		Timeout:      30 * time.Second,
		HistoryLimit: 50,
		Now:          time.Now,
	}
}

// ValidateMessage checks the patient text: non-blank, at most
// MaxMessageLength characters.
func ValidateMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: message is required", pkg.ErrValidation)
	}
	if n := utf8.RuneCountInString(text); n > MaxMessageLength {
		return fmt.Errorf("%w: message must be at most %d characters, got %d", pkg.ErrValidation, MaxMessageLength, n)
	}
	return nil
}

// SendMessage processes one patient message.  The patient does not have to
// exist; alerts are only raised for known patients.  Agent failures never
// surface as errors: the reply falls back to FallbackReply and the message
// is not flagged.  Errors are returned only for invalid input and store
// failures.
func (s *ChatService) SendMessage(ctx context.Context, patientID, text string) (*pkg.ChatResult, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, fmt.Errorf("%w: patient id is required", pkg.ErrValidation)
	}
	if err := ValidateMessage(text); err != nil {
		return nil, err
	}

	userMsg := pkg.ChatMessage{
		ID:        uuid.NewString(),
		PatientID: patientID,
		Message:   text,
		Sender:    pkg.SenderPatient,
		Timestamp: s.now(),
	}

	var (
		assessment      Assessment
		sentiment       *string
		recommendations []string
	)
	reply, err := s.reply(ctx, text)
	if err != nil {
		s.Logger.Warn("agent unavailable, sending fallback reply",
			zap.String("patient_id", patientID), zap.Error(err))
		reply = FallbackReply
		recommendations = FallbackRecommendations
	} else {
		label, err := s.classify(ctx, text)
		if err != nil {
			s.Logger.Warn("sentiment classifier unavailable, keyword check only",
				zap.String("patient_id", patientID), zap.Error(err))
		}
		assessment = s.Policy.Evaluate(text, label)
		if assessment.Label != "" {
			sentiment = &assessment.Label
		}
		recommendations = SupportRecommendations
		if assessment.Crisis {
			recommendations = CrisisRecommendations
		}
	}

	aiMsg := pkg.ChatMessage{
		ID:        uuid.NewString(),
		PatientID: patientID,
		Message:   reply,
		Sender:    pkg.SenderAssistant,
		Sentiment: sentiment,
		IsCrisis:  assessment.Crisis,
		Timestamp: s.after(userMsg.Timestamp),
	}

	if assessment.Crisis {
		s.raiseAlert(ctx, aiMsg, assessment)
	}

	if err := s.Messages.AppendMessage(ctx, &userMsg); err != nil {
		return nil, fmt.Errorf("save patient message: %w", err)
	}
	if err := s.Messages.AppendMessage(ctx, &aiMsg); err != nil {
		return nil, fmt.Errorf("save assistant message: %w", err)
	}

	result := &pkg.ChatResult{
		UserMessage:     userMsg,
		AIResponse:      aiMsg,
		IsCrisis:        assessment.Crisis,
		Recommendations: append([]string(nil), recommendations...),
	}
	if level := assessment.Level(); level != "" {
		result.CrisisLevel = &level
	}
	return result, nil
}

// QuickChat answers a message outside any patient record.  Only the
// keyword check runs: there is no classifier call, no alert and no store
// write.  When the agent fails the reply is QuickChatFallbackReply and the
// message is not flagged.  An empty sessionID is replaced by a new
// "session-<uuid>" id.
func (s *ChatService) QuickChat(ctx context.Context, text, sessionID string) (*pkg.QuickChatResult, error) {
	if err := ValidateMessage(text); err != nil {
		return nil, err
	}
	if strings.TrimSpace(sessionID) == "" {
		sessionID = "session-" + uuid.NewString()
	}

	result := &pkg.QuickChatResult{SessionID: sessionID}
	reply, err := s.reply(ctx, text)
	if err != nil {
		s.Logger.Warn("agent unavailable, sending quick chat fallback",
			zap.String("session_id", sessionID), zap.Error(err))
		result.Response = QuickChatFallbackReply
		result.Recommendations = append([]string(nil), QuickChatFallbackRecommendations...)
		return result, nil
	}

	assessment := s.Policy.Evaluate(text, "")
	result.Response = reply
	result.CrisisDetected = assessment.Crisis
	recommendations := SupportRecommendations
	if assessment.Crisis {
		level := assessment.Level()
		result.CrisisLevel = &level
		recommendations = CrisisRecommendations
		s.Logger.Warn("crisis keyword in quick chat",
			zap.String("session_id", sessionID), zap.String("keyword", assessment.Keyword))
	}
	result.Recommendations = append([]string(nil), recommendations...)
	return result, nil
}

// History returns the patient's messages newest first.  A non-positive
// limit selects HistoryLimit; limits above MaxHistoryLimit are capped.
func (s *ChatService) History(ctx context.Context, patientID string, limit int) ([]pkg.ChatMessage, error) {
	if limit <= 0 {
		limit = s.HistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	msgs, err := s.Messages.ListMessages(ctx, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// reply makes the single persona call.
func (s *ChatService) reply(ctx context.Context, text string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	out, err := s.LLM.Chat(ctx, []llm.Message{
		{Role: "system", Content: AssistantPersona},
		{Role: "user", Content: text},
	})
	if err != nil {
		return "", asUpstream("chat", err)
	}
	return strings.TrimSpace(out), nil
}

// classify makes the single classifier call and returns the raw label.
func (s *ChatService) classify(ctx context.Context, text string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	out, err := s.LLM.Classify(ctx, []llm.Message{
		{Role: "system", Content: ClassifierPersona},
		{Role: "user", Content: fmt.Sprintf(classifierPromptFormat, text)},
	})
	if err != nil {
		return "", asUpstream("classify", err)
	}
	return out, nil
}

func (s *ChatService) raiseAlert(ctx context.Context, msg pkg.ChatMessage, a Assessment) {
	patient, err := s.Patients.GetPatient(ctx, msg.PatientID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			s.Logger.Info("crisis detected for unknown patient, no alert raised",
				zap.String("patient_id", msg.PatientID))
		} else {
			s.Logger.Error("crisis alert: patient lookup failed",
				zap.String("patient_id", msg.PatientID), zap.Error(err))
		}
		return
	}
	alert := pkg.CrisisAlert{
		PatientID:      patient.ID,
		ProfessionalID: patient.ProfessionalID,
		MessageID:      msg.ID,
		Keyword:        a.Keyword,
		Label:          a.Label,
		DetectedAt:     msg.Timestamp,
	}
	if err := s.Alerter.CrisisAlert(ctx, alert); err != nil {
		s.Logger.Error("crisis alert delivery failed",
			zap.String("patient_id", patient.ID), zap.Error(err))
	}
}

func (s *ChatService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}

// now is truncated to microseconds, the resolution Postgres stores.
func (s *ChatService) now() time.Time {
	clock := s.Now
	if clock == nil {
		clock = time.Now
	}
	return clock().UTC().Truncate(time.Microsecond)
}

// after returns a timestamp strictly later than t so the assistant turn
// always sorts after the patient turn.
func (s *ChatService) after(t time.Time) time.Time {
	if n := s.now(); n.After(t) {
		return n
	}
	return t.Add(time.Microsecond)
}

func asUpstream(op string, err error) error {
	var upstream *llm.UpstreamError
	if errors.As(err, &upstream) {
		return err
	}
	return &llm.UpstreamError{Op: op, Err: err}
}
