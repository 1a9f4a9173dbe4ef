// ABOUTME: Store interface and data types for the provenance graph.
// ABOUTME: Sessions, steps, events, participants, and typed edges with upsert semantics.

package provenance

import (
	"context"
	"errors"
	"time"

	"github.com/shopnserve/blackboard/internal/capability"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// StepStatus is the lifecycle state of a step. Transitions are monotone:
// once complete or failed, a step is never re-set.
type StepStatus string

const (
	StepWorking  StepStatus = "working"
	StepComplete StepStatus = "complete"
	StepFailed   StepStatus = "failed"
)

// Kind names a node type in the provenance graph.
type Kind string

const (
	KindSession          Kind = "Session"
	KindStep             Kind = "Step"
	KindEvent            Kind = "MessageEvent"
	KindUIComponent      Kind = "UIComponent"
	KindBackendComponent Kind = "BackendComponent"
	KindCapability       Kind = "Capability"
	KindApplication      Kind = "MicroClient"
)

// Edge types between graph nodes.
const (
	EdgeRequires         = "REQUIRES"
	EdgeProvides         = "PROVIDES"
	EdgeSends            = "SENDS"
	EdgeHandledBy        = "HANDLED_BY"
	EdgeCommunicatesWith = "COMMUNICATES_WITH"
	EdgeAbout            = "ABOUT"
	EdgePartOf           = "PART_OF"
	EdgeHasStep          = "HAS_STEP"
	EdgeFirstStep        = "FIRST_STEP"
	EdgeNext             = "NEXT"
	EdgeHasEvent         = "HAS_EVENT"
)

// EventRecord is the snapshot captured when a step is created: the request
// payload plus the requesting and handling components, when known.
type EventRecord struct {
	Payload          []byte
	UIComponent      string
	BackendComponent string
}

// Event is one recorded provenance event, the read-side view of a step's
// message.
type Event struct {
	ID         string     `json:"id"`
	SessionID  string     `json:"sessionId"`
	StepID     string     `json:"stepId"`
	Capability string     `json:"capability"`
	Status     StepStatus `json:"status"`
	Payload    string     `json:"payload,omitempty"`
	Error      string     `json:"error,omitempty"`
	Sender     string     `json:"sender,omitempty"`
	Receiver   string     `json:"receiver,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// Node is a graph node in the visualization view.
type Node struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Type   string `json:"type"`
	Status string `json:"status,omitempty"`
}

// Edge is a typed relationship between two nodes.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// Graph is the read-side traversal result for one session plus the
// global architecture facts recorded by handlers.
type Graph struct {
	SessionID string `json:"sessionId"`
	Nodes     []Node `json:"nodes"`
	Edges     []Edge `json:"edges"`
}

// Store is the provenance graph interface. All write operations are
// merge/upserts: calling twice with identical keys must not duplicate
// nodes or edges.
type Store interface {
	// EnsureSession creates a Session node with a start timestamp if
	// absent and returns its id. A blank id generates a fresh one.
	EnsureSession(ctx context.Context, id string) (string, error)

	// CreateStep creates a Step in working status for the session, chains
	// it after the most recently created step (the first step becomes the
	// session's head), and records the step's provenance event. The
	// chain append is atomic: concurrent calls for one session serialize
	// and the chain stays linear with exactly one head.
	CreateStep(ctx context.Context, sessionID string, cap capability.Capability, rec EventRecord) (string, error)

	// SetStepStatus transitions a step out of working. Complete stamps a
	// completion time; failed stamps a failure time and the error text.
	// A step already in a terminal state is left untouched.
	SetStepStatus(ctx context.Context, stepID string, status StepStatus, errMsg string) error

	// RecordParticipant upserts a named component node.
	RecordParticipant(ctx context.Context, kind Kind, name string) error

	// RecordEdge upserts a typed relationship between two named nodes.
	RecordEdge(ctx context.Context, fromKind Kind, fromName string, toKind Kind, toName, edgeType string) error

	// QueryGraph returns the graph for the given session, or for the most
	// recently started session when the id is blank. ErrNotFound when no
	// such session exists.
	QueryGraph(ctx context.Context, sessionID string) (*Graph, error)

	// ListRecentEvents returns up to limit events, newest first,
	// optionally scoped to a session (blank id means all sessions).
	ListRecentEvents(ctx context.Context, limit int, sessionID string) ([]*Event, error)

	// Close releases any resources held by the store.
	Close() error
}
