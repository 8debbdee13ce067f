package db

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ccodesido/zentiumassist-all/pkg"
	"github.com/samber/lo"
)

// MemoryStore keeps every collection in process memory.  It backs local
// development when DATABASE_URL is empty, and the tests.  Records are copied
// in and out so callers never share state with the store.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]pkg.User
	professionals map[string]pkg.Professional
	patients      map[string]pkg.Patient
	sessions      map[string]pkg.Session
	tasks         map[string]pkg.Task
	messages      []storedMessage
	profOrder     []string
	seq           int64
}

type storedMessage struct {
	seq int64
	msg pkg.ChatMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]pkg.User),
		professionals: make(map[string]pkg.Professional),
		patients:      make(map[string]pkg.Patient),
		sessions:      make(map[string]pkg.Session),
		tasks:         make(map[string]pkg.Task),
	}
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) CreateUser(_ context.Context, u *pkg.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; ok {
		return fmt.Errorf("user %s: %w", u.ID, pkg.ErrConflict)
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return fmt.Errorf("email %s: %w", u.Email, pkg.ErrConflict)
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, pkg.ErrNotFound)
	}
	delete(m.users, id)
	return nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*pkg.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, pkg.ErrNotFound)
}

func (m *MemoryStore) CreateProfessional(_ context.Context, p *pkg.Professional) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.professionals[p.ID]; ok {
		return fmt.Errorf("professional %s: %w", p.ID, pkg.ErrConflict)
	}
	m.professionals[p.ID] = *p
	m.profOrder = append(m.profOrder, p.ID)
	return nil
}

func (m *MemoryStore) GetProfessional(_ context.Context, id string) (*pkg.Professional, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.professionals[id]
	if !ok {
		return nil, fmt.Errorf("professional %s: %w", id, pkg.ErrNotFound)
	}
	return &p, nil
}

func (m *MemoryStore) GetProfessionalByUserID(_ context.Context, userID string) (*pkg.Professional, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := lo.Find(lo.Values(m.professionals), func(p pkg.Professional) bool { return p.UserID == userID })
	if !ok {
		return nil, fmt.Errorf("professional for user %s: %w", userID, pkg.ErrNotFound)
	}
	return &p, nil
}

func (m *MemoryStore) FirstProfessional(context.Context) (*pkg.Professional, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.profOrder) == 0 {
		return nil, fmt.Errorf("professional: %w", pkg.ErrNotFound)
	}
	p := m.professionals[m.profOrder[0]]
	return &p, nil
}

func (m *MemoryStore) CreatePatient(_ context.Context, p *pkg.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patients[p.ID]; ok {
		return fmt.Errorf("patient %s: %w", p.ID, pkg.ErrConflict)
	}
	m.patients[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetPatient(_ context.Context, id string) (*pkg.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("patient %s: %w", id, pkg.ErrNotFound)
	}
	return &p, nil
}

func (m *MemoryStore) GetPatientByUserID(_ context.Context, userID string) (*pkg.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := lo.Find(lo.Values(m.patients), func(p pkg.Patient) bool { return p.UserID == userID })
	if !ok {
		return nil, fmt.Errorf("patient for user %s: %w", userID, pkg.ErrNotFound)
	}
	return &p, nil
}

func (m *MemoryStore) ListPatientsByProfessional(_ context.Context, professionalID string, limit int) ([]pkg.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := lo.Filter(lo.Values(m.patients), func(p pkg.Patient, _ int) bool { return p.ProfessionalID == professionalID })
	slices.SortFunc(out, func(a, b pkg.Patient) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return head(out, limit), nil
}

func (m *MemoryStore) RecordPatientSession(_ context.Context, patientID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[patientID]
	if !ok {
		return fmt.Errorf("patient %s: %w", patientID, pkg.ErrNotFound)
	}
	p.SessionCount++
	p.LastSession = &at
	m.patients[patientID] = p
	return nil
}

func (m *MemoryStore) CreateSession(_ context.Context, s *pkg.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; ok {
		return fmt.Errorf("session %s: %w", s.ID, pkg.ErrConflict)
	}
	m.sessions[s.ID] = *s
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, id string) (*pkg.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, pkg.ErrNotFound)
	}
	return &s, nil
}

func (m *MemoryStore) ListSessionsByPatient(_ context.Context, patientID string, limit int) ([]pkg.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := lo.Filter(lo.Values(m.sessions), func(s pkg.Session, _ int) bool { return s.PatientID == patientID })
	slices.SortFunc(out, func(a, b pkg.Session) int {
		return cmp.Or(b.SessionDate.Compare(a.SessionDate), cmp.Compare(a.ID, b.ID))
	})
	return head(out, limit), nil
}

func (m *MemoryStore) ListSessionsByProfessional(_ context.Context, professionalID string, limit int) ([]pkg.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := lo.Filter(lo.Values(m.sessions), func(s pkg.Session, _ int) bool { return s.ProfessionalID == professionalID })
	slices.SortFunc(out, func(a, b pkg.Session) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return head(out, limit), nil
}

func (m *MemoryStore) CompleteSession(_ context.Context, id, transcript string, analysis pkg.SessionAnalysis, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, pkg.ErrNotFound)
	}
	s.Transcript = &transcript
	s.AIAnalysis = &analysis
	s.Status = pkg.SessionCompleted
	s.UpdatedAt = at
	m.sessions[id] = s
	return nil
}

func (m *MemoryStore) CreateTask(_ context.Context, t *pkg.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; ok {
		return fmt.Errorf("task %s: %w", t.ID, pkg.ErrConflict)
	}
	m.tasks[t.ID] = *t
	return nil
}

func (m *MemoryStore) GetTask(_ context.Context, id string) (*pkg.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, pkg.ErrNotFound)
	}
	return &t, nil
}

func (m *MemoryStore) ListTasksByPatient(_ context.Context, patientID string, limit int) ([]pkg.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := lo.Filter(lo.Values(m.tasks), func(t pkg.Task, _ int) bool { return t.PatientID == patientID })
	slices.SortFunc(out, func(a, b pkg.Task) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return head(out, limit), nil
}

func (m *MemoryStore) CompleteTask(_ context.Context, id string, notes *string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return fmt.Errorf("task %s: %w", id, pkg.ErrNotFound)
	}
	t.Status = pkg.TaskCompleted
	t.CompletionNotes = notes
	t.CompletedAt = &at
	m.tasks[id] = t
	return nil
}

func (m *MemoryStore) AppendMessage(_ context.Context, msg *pkg.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lo.ContainsBy(m.messages, func(s storedMessage) bool { return s.msg.ID == msg.ID }) {
		return fmt.Errorf("message %s: %w", msg.ID, pkg.ErrConflict)
	}
	m.seq++
	m.messages = append(m.messages, storedMessage{seq: m.seq, msg: *msg})
	return nil
}

func (m *MemoryStore) ListMessages(_ context.Context, patientID string, limit int) ([]pkg.ChatMessage, error) {
	return m.listMessages(func(msg pkg.ChatMessage) bool { return msg.PatientID == patientID }, limit), nil
}

func (m *MemoryStore) ListCrisisMessages(_ context.Context, patientIDs []string, limit int) ([]pkg.ChatMessage, error) {
	return m.listMessages(func(msg pkg.ChatMessage) bool {
		return msg.IsCrisis && lo.Contains(patientIDs, msg.PatientID)
	}, limit), nil
}

// listMessages orders by timestamp then insertion sequence, newest first.
func (m *MemoryStore) listMessages(keep func(pkg.ChatMessage) bool, limit int) []pkg.ChatMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := lo.Filter(m.messages, func(s storedMessage, _ int) bool { return keep(s.msg) })
	slices.SortFunc(matched, func(a, b storedMessage) int {
		return cmp.Or(b.msg.Timestamp.Compare(a.msg.Timestamp), cmp.Compare(b.seq, a.seq))
	})
	return lo.Map(head(matched, limit), func(s storedMessage, _ int) pkg.ChatMessage { return s.msg })
}

func (m *MemoryStore) Counts(context.Context) (pkg.Counts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return pkg.Counts{
		Users:         len(m.users),
		Patients:      len(m.patients),
		Professionals: len(m.professionals),
		Sessions:      len(m.sessions),
		CrisisAlerts:  lo.CountBy(m.messages, func(s storedMessage) bool { return s.msg.IsCrisis }),
	}, nil
}

// head returns at most limit elements; a non-positive limit keeps them all.
// The result is never nil so it encodes as an empty JSON array.
func head[T any](items []T, limit int) []T {
	if items == nil {
		items = []T{}
	}
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
