// ABOUTME: In-memory Store implementation backed by adjacency maps.
// ABOUTME: Used in tests and single-process deployments without SQLite.

package provenance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shopnserve/blackboard/internal/capability"
)

type memSession struct {
	id        string
	startedAt time.Time
	stepIDs   []string // chain order: head first
}

type memStep struct {
	id          string
	sessionID   string
	capability  string
	status      StepStatus
	errMsg      string
	createdAt   time.Time
	updatedAt   *time.Time
	eventID     string
	ui, backend string
	payload     string
}

// MemoryStore is an in-memory Store. All operations run under one mutex,
// which makes the chain append trivially atomic.
type MemoryStore struct {
	mu           sync.Mutex
	sessions     map[string]*memSession
	steps        map[string]*memStep
	eventOrder   []string // step ids in creation order, for ListRecentEvents
	participants map[string]participantView
	facts        map[string]edgeView
	lastSession  string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:     make(map[string]*memSession),
		steps:        make(map[string]*memStep),
		participants: make(map[string]participantView),
		facts:        make(map[string]edgeView),
	}
}

// EnsureSession creates the session if absent. Idempotent.
func (m *MemoryStore) EnsureSession(ctx context.Context, id string) (string, error) {
	if id == "" {
		id = uuid.New().String()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; !exists {
		m.sessions[id] = &memSession{id: id, startedAt: time.Now().UTC()}
		m.lastSession = id
	}
	return id, nil
}

// CreateStep appends a working step to the session's chain.
func (m *MemoryStore) CreateStep(ctx context.Context, sessionID string, cap capability.Capability, rec EventRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return "", ErrNotFound
	}

	step := &memStep{
		id:         uuid.New().String(),
		sessionID:  sessionID,
		capability: cap.String(),
		status:     StepWorking,
		createdAt:  time.Now().UTC(),
		eventID:    uuid.New().String(),
		ui:         rec.UIComponent,
		backend:    rec.BackendComponent,
		payload:    string(rec.Payload),
	}
	m.steps[step.id] = step
	sess.stepIDs = append(sess.stepIDs, step.id)
	m.eventOrder = append(m.eventOrder, step.id)
	return step.id, nil
}

// SetStepStatus transitions the step; terminal states stick.
func (m *MemoryStore) SetStepStatus(ctx context.Context, stepID string, status StepStatus, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	step, ok := m.steps[stepID]
	if !ok {
		return ErrNotFound
	}
	if step.status != StepWorking {
		return nil
	}

	now := time.Now().UTC()
	step.status = status
	step.updatedAt = &now
	if status == StepFailed {
		step.errMsg = errMsg
	}
	return nil
}

// RecordParticipant upserts a named component node.
func (m *MemoryStore) RecordParticipant(ctx context.Context, kind Kind, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants[nodeID(kind, name)] = participantView{Kind: kind, Name: name}
	return nil
}

// RecordEdge upserts a typed relationship between two named nodes.
func (m *MemoryStore) RecordEdge(ctx context.Context, fromKind Kind, fromName string, toKind Kind, toName, edgeType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := edgeView{FromKind: fromKind, FromName: fromName, ToKind: toKind, ToName: toName, Type: edgeType}
	key := nodeID(fromKind, fromName) + "->" + nodeID(toKind, toName) + "#" + edgeType
	m.facts[key] = e
	m.participants[nodeID(fromKind, fromName)] = participantView{Kind: fromKind, Name: fromName}
	m.participants[nodeID(toKind, toName)] = participantView{Kind: toKind, Name: toName}
	return nil
}

// QueryGraph builds the visualization graph for the session.
func (m *MemoryStore) QueryGraph(ctx context.Context, sessionID string) (*Graph, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sessionID == "" {
		sessionID = m.lastSession
	}
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}

	steps := make([]stepView, 0, len(sess.stepIDs))
	for _, id := range sess.stepIDs {
		st := m.steps[id]
		steps = append(steps, stepView{
			ID:         st.id,
			Capability: st.capability,
			Status:     st.status,
			EventID:    st.eventID,
			UI:         st.ui,
			Backend:    st.backend,
		})
	}

	participants := make([]participantView, 0, len(m.participants))
	for _, p := range m.participants {
		participants = append(participants, p)
	}
	facts := make([]edgeView, 0, len(m.facts))
	for _, e := range m.facts {
		facts = append(facts, e)
	}

	return buildGraph(sessionID, steps, participants, facts), nil
}

// ListRecentEvents returns events newest first.
func (m *MemoryStore) ListRecentEvents(ctx context.Context, limit int, sessionID string) ([]*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}

	var out []*Event
	for i := len(m.eventOrder) - 1; i >= 0 && len(out) < limit; i-- {
		st := m.steps[m.eventOrder[i]]
		if sessionID != "" && st.sessionID != sessionID {
			continue
		}
		out = append(out, &Event{
			ID:         st.eventID,
			SessionID:  st.sessionID,
			StepID:     st.id,
			Capability: st.capability,
			Status:     st.status,
			Payload:    st.payload,
			Error:      st.errMsg,
			Sender:     st.ui,
			Receiver:   st.backend,
			CreatedAt:  st.createdAt,
			UpdatedAt:  st.updatedAt,
		})
	}
	return out, nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error { return nil }
