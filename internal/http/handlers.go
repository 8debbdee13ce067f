package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ccodesido/zentiumassist-all/pkg"
)

// Auth

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in pkg.UserCreate
	if err := decodeJSON(r, &in, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.Records.Register(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in pkg.UserLogin
	if err := decodeJSON(r, &in, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.Records.Login(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Professionals

func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := s.Records.ListPatients(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

func (s *Server) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	var in pkg.PatientCreate
	if err := decodeJSON(r, &in, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	patient, err := s.Records.CreatePatient(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, patient)
}

func (s *Server) handleProfessionalDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := s.Records.ProfessionalDashboard(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// Patients

func (s *Server) handlePatientProfile(w http.ResponseWriter, r *http.Request) {
	patient, err := s.Records.GetPatient(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

func (s *Server) handlePatientSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.Records.ListPatientSessions(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handlePatientTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.Records.ListPatientTasks(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Chat

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var in pkg.ChatMessageCreate
	if err := decodeJSON(r, &in, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.Chat.SendMessage(r.Context(), mux.Vars(r)["patientId"], in.Message)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleQuickChat(w http.ResponseWriter, r *http.Request) {
	var in pkg.QuickChatRequest
	if err := decodeJSON(r, &in, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.Chat.QuickChat(r.Context(), in.Message, in.SessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", pkg.ErrValidation))
			return
		}
		limit = n
	}
	msgs, err := s.Chat.History(r.Context(), mux.Vars(r)["patientId"], limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// Sessions

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var in pkg.SessionCreate
	if err := decodeJSON(r, &in, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.Records.CreateSession(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleUpdateTranscript(w http.ResponseWriter, r *http.Request) {
	var in pkg.TranscriptUpdate
	if err := decodeJSON(r, &in, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.Records.UpdateTranscript(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Transcripción actualizada y analizada",
		"analysis": session.AIAnalysis,
		"session":  session,
	})
}

// Tasks

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in pkg.TaskCreate
	if err := decodeJSON(r, &in, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	task, err := s.Records.CreateTask(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	var in pkg.TaskCompletion
	if err := decodeJSON(r, &in, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	task, err := s.Records.CompleteTask(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Tarea completada exitosamente",
		"task":    task,
	})
}

// Analytics

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	counts, err := s.Records.Analytics(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pkg.AnalyticsDashboard{Counts: counts, SystemStatus: "operational"})
}
