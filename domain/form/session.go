package form

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prasetyowira/qrtag/constant"
	"github.com/prasetyowira/qrtag/domain/export"
	"github.com/prasetyowira/qrtag/domain/symbol"
)

var (
	ErrEmptySessionID       = errors.New(constant.ErrEmptySessionID)
	ErrSessionNotFound      = errors.New(constant.ErrSessionNotFound)
	ErrGenerationInProgress = errors.New(constant.ErrGenerationInProgress)
)

// State of a form session
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateReady      State = "ready"
)

// Snapshot is the stored part of a session. A session in the middle of a
// generation is stored as it was before the generation started.
type Snapshot struct {
	ID        string
	Input     string
	TaggedURL string
	Counter   int
	Format    symbol.Format
	Color     string
	Size      int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Generation records one completed tagging within a session.
type Generation struct {
	ID        uint          `json:"-"`
	SessionID string        `json:"session_id"`
	Sequence  int           `json:"sequence"`
	Reference string        `json:"reference"`
	TaggedURL string        `json:"tagged_url"`
	Format    symbol.Format `json:"format"`
	CreatedAt time.Time     `json:"created_at"`
}

// Repository defines the interface for session storage
type Repository interface {
	SaveSession(ctx context.Context, snap *Snapshot) error
	FindSession(ctx context.Context, id string) (*Snapshot, error)
	DeleteSession(ctx context.Context, id string) error
	AppendGeneration(ctx context.Context, gen *Generation) error
	ListGenerations(ctx context.Context, sessionID string) ([]Generation, error)
}

// View is what clients see of a session
type View struct {
	ID         string        `json:"id"`
	State      State         `json:"state"`
	Input      string        `json:"input"`
	TaggedURL  string        `json:"tagged_url,omitempty"`
	Reference  string        `json:"reference,omitempty"`
	Counter    int           `json:"counter"`
	Generation uint64        `json:"generation"`
	Format     symbol.Format `json:"format"`
	Color      string        `json:"color"`
	ColorDraft string        `json:"color_draft"`
	Size       int           `json:"size"`
}

// Pending tracks a deferred generation
type Pending struct {
	Generation uint64
	done       chan struct{}
	abandoned  bool
}

// Done is closed once the generation has completed or been abandoned.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Abandoned reports whether the result was discarded. Only valid after Done.
func (p *Pending) Abandoned() bool {
	return p.abandoned
}

type session struct {
	mu sync.Mutex

	snap       Snapshot
	colorDraft string
	state      State
	// restored when a generation is abandoned
	prevState  State
	generation uint64
	pending    *Pending
	timer      *time.Timer
	sym        symbol.Symbol
	deleted    bool

	// held by in-flight operations and by a pending generation; a pinned
	// session is never evicted from the live cache
	pins atomic.Int32
}

// Pinned implements cache.Pinner
func (s *session) Pinned() bool {
	return s.pins.Load() > 0
}

func newSession(snap Snapshot) *session {
	state := StateIdle
	if snap.TaggedURL != "" {
		state = StateReady
	}
	return &session{
		snap:       snap,
		colorDraft: snap.Color,
		state:      state,
		prevState:  state,
	}
}

func (s *session) view() View {
	v := View{
		ID:         s.snap.ID,
		State:      s.state,
		Input:      s.snap.Input,
		TaggedURL:  s.snap.TaggedURL,
		Counter:    s.snap.Counter,
		Generation: s.generation,
		Format:     s.snap.Format,
		Color:      s.snap.Color,
		ColorDraft: s.colorDraft,
		Size:       s.snap.Size,
	}
	if v.TaggedURL != "" {
		v.Reference = export.ReferenceFromURL(v.TaggedURL)
	}
	return v
}

// resolve settles the pending generation. Callers hold s.mu.
func (s *session) resolve(abandoned bool) *Pending {
	p := s.pending
	if p == nil {
		return nil
	}
	p.abandoned = abandoned
	s.pending = nil
	s.pins.Add(-1)
	s.timer = nil
	close(p.done)
	return p
}
