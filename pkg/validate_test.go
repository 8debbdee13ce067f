package pkg

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateUserCreate(t *testing.T) {
	tests := []struct {
		name    string
		in      UserCreate
		wantErr string
	}{
		{"ok", UserCreate{Email: "ana@example.com", Name: "Ana", Password: "longenough", Role: RolePatient}, ""},
		{"missing email", UserCreate{Name: "Ana", Password: "longenough", Role: RolePatient}, "email is required"},
		{"bad email", UserCreate{Email: "not-an-email", Name: "Ana", Password: "longenough", Role: RolePatient}, "valid email"},
		{"short name", UserCreate{Email: "ana@example.com", Name: "A", Password: "longenough", Role: RolePatient}, "name must be at least 2"},
		{"short password", UserCreate{Email: "ana@example.com", Name: "Ana", Password: "short", Role: RolePatient}, "password must be at least 8"},
		{"bad role", UserCreate{Email: "ana@example.com", Name: "Ana", Password: "longenough", Role: "nurse"}, "role must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q in %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestValidateRange(t *testing.T) {
	in := PatientCreate{Age: 0, Gender: "F", EmergencyContact: "+34 600 000 000"}
	if err := Validate(&in); err == nil || !strings.Contains(err.Error(), "age must be between 1 and 120") {
		t.Fatalf("expected age range error, got %v", err)
	}
	in.Age = 121
	if err := Validate(&in); err == nil {
		t.Fatal("expected error for age 121")
	}
	in.Age = 30
	if err := Validate(&in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateOneOfSkipsEmpty(t *testing.T) {
	in := SessionCreate{PatientID: "p1"}
	if err := Validate(in); err != nil {
		t.Fatalf("empty session_type should be accepted: %v", err)
	}
	in.SessionType = "group"
	if err := Validate(in); err == nil {
		t.Fatal("expected error for unknown session_type")
	}
}

func TestValidateMaxCountsRunes(t *testing.T) {
	type msg struct {
		Text string `json:"text" validate:"max=3"`
	}
	if err := Validate(msg{Text: "ñña"}); err != nil {
		t.Fatalf("three runes should pass: %v", err)
	}
	if err := Validate(msg{Text: "ññañ"}); err == nil {
		t.Fatal("four runes should fail")
	}
}
