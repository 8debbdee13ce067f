package db

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ccodesido/zentiumassist-all/pkg"
)

// openTestRepository connects to TEST_DATABASE_URL and applies the schema.
// Rows are keyed by fresh uuids so runs against a shared database do not
// collide.
func openTestRepository(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	ctx := context.Background()
	if err := conn.PingContext(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := Migrate(ctx, conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepository(conn)
}

func TestRepositoryMessagesNewestFirst(t *testing.T) {
	r := openTestRepository(t)
	ctx := context.Background()
	patientID := "p-" + uuid.NewString()
	at := time.Now().UTC().Truncate(time.Microsecond)

	// Two rows share a timestamp; the later insert must come first.
	for _, m := range []pkg.ChatMessage{
		{ID: uuid.NewString(), PatientID: patientID, Message: "primero", Sender: pkg.SenderPatient, Timestamp: at},
		{ID: uuid.NewString(), PatientID: patientID, Message: "segundo", Sender: pkg.SenderAssistant, Timestamp: at},
		{ID: uuid.NewString(), PatientID: patientID, Message: "antes", Sender: pkg.SenderPatient, Timestamp: at.Add(-time.Second)},
	} {
		if err := r.AppendMessage(ctx, &m); err != nil {
			t.Fatalf("append %q: %v", m.Message, err)
		}
	}

	got, err := r.ListMessages(ctx, patientID, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var order []string
	for _, m := range got {
		order = append(order, m.Message)
	}
	if len(order) != 3 || order[0] != "segundo" || order[1] != "primero" || order[2] != "antes" {
		t.Fatalf("order = %v", order)
	}

	dup := got[0]
	if err := r.AppendMessage(ctx, &dup); !errors.Is(err, pkg.ErrConflict) {
		t.Fatalf("duplicate id: expected ErrConflict, got %v", err)
	}
}

func TestRepositoryCrisisMessagesByPatients(t *testing.T) {
	r := openTestRepository(t)
	ctx := context.Background()
	mine, other := "p-"+uuid.NewString(), "p-"+uuid.NewString()
	now := time.Now().UTC().Truncate(time.Microsecond)

	for _, m := range []pkg.ChatMessage{
		{ID: uuid.NewString(), PatientID: mine, Message: "alerta", Sender: pkg.SenderAssistant, IsCrisis: true, Timestamp: now},
		{ID: uuid.NewString(), PatientID: mine, Message: "normal", Sender: pkg.SenderAssistant, Timestamp: now},
		{ID: uuid.NewString(), PatientID: other, Message: "ajena", Sender: pkg.SenderAssistant, IsCrisis: true, Timestamp: now},
	} {
		if err := r.AppendMessage(ctx, &m); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := r.ListCrisisMessages(ctx, []string{mine}, 5)
	if err != nil {
		t.Fatalf("crisis list: %v", err)
	}
	if len(got) != 1 || got[0].Message != "alerta" {
		t.Fatalf("crisis messages = %+v", got)
	}
}

func TestRepositorySessionAnalysisRoundTrip(t *testing.T) {
	r := openTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	patient := pkg.Patient{
		ID: uuid.NewString(), UserID: uuid.NewString(), ProfessionalID: uuid.NewString(),
		Age: 30, Gender: "femenino", RiskLevel: pkg.RiskLow, EmergencyContact: "Luis", CreatedAt: now,
	}
	if err := r.CreatePatient(ctx, &patient); err != nil {
		t.Fatalf("create patient: %v", err)
	}
	session := pkg.Session{
		ID: uuid.NewString(), PatientID: patient.ID, ProfessionalID: patient.ProfessionalID,
		SessionType: pkg.SessionTherapy, Status: pkg.SessionScheduled,
		SessionDate: now, CreatedAt: now, UpdatedAt: now,
	}
	if err := r.CreateSession(ctx, &session); err != nil {
		t.Fatalf("create session: %v", err)
	}

	analysis := pkg.SessionAnalysis{Summary: "Buen avance", EmotionalState: "estable", RiskLevel: "bajo"}
	if err := r.CompleteSession(ctx, session.ID, "Paciente: mejor.", analysis, now); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, err := r.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Status != pkg.SessionCompleted || got.AIAnalysis == nil || *got.AIAnalysis != analysis {
		t.Fatalf("session = %+v", got)
	}

	if err := r.RecordPatientSession(ctx, patient.ID, now); err != nil {
		t.Fatalf("record session: %v", err)
	}
	p, err := r.GetPatient(ctx, patient.ID)
	if err != nil || p.SessionCount != 1 || p.LastSession == nil {
		t.Fatalf("patient = %+v, %v", p, err)
	}

	if err := r.CompleteSession(ctx, uuid.NewString(), "x", analysis, now); !errors.Is(err, pkg.ErrNotFound) {
		t.Fatalf("unknown session: expected ErrNotFound, got %v", err)
	}
}

func TestRepositoryDeleteUser(t *testing.T) {
	r := openTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()
	u := pkg.User{
		ID: uuid.NewString(), Email: uuid.NewString() + "@example.com", Name: "Ana",
		Role: pkg.RoleProfessional, Active: true, CreatedAt: now, UpdatedAt: now,
	}
	if err := r.CreateUser(ctx, &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := r.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := r.GetUserByEmail(ctx, u.Email); !errors.Is(err, pkg.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
