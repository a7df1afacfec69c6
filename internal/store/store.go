// Package store is the single source of truth shared by the traversal engine,
// the editor session controller and the presentation layer.
package store

import (
	"sync"
	"time"

	"github.com/vvka-141/fsedit/internal/tree"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// Session is the editor session record.
type Session struct {
	State    fsedit.SessionState
	Selected *fsedit.Capability
	// Seq identifies the selection. Every Select issues a new one, even for
	// the capability already selected.
	Seq uint64
	// Path is the slash-separated tree path of the selected entry, for display.
	Path   string
	Buffer string
	// Dirty is true iff Buffer has diverged from the last loaded or saved content.
	Dirty bool
}

// Snapshot is a point-in-time copy of everything the presentation layer reads.
// Entries are shared with the store and must be treated as read-only.
type Snapshot struct {
	Root        *fsedit.Capability
	Entries     []*tree.Entry
	LastUpdated time.Time
	Session     Session
	CanApply    bool
	// Version increases with every applied transition.
	Version uint64
}

// SaveTicket identifies one save started by BeginSave.
type SaveTicket struct {
	Capability *fsedit.Capability
	Path       string
	Content    string
	seq        uint64
	rev        uint64
}

// Store holds the tree snapshot and the editor session.
// State is changed only through the transition methods, each of which runs
// under a single lock and notifies subscribers when it applies.
//
// Actions carry sequence numbers. The most recently started refresh and the
// most recent selection win; completions of superseded actions are rejected
// with fsedit.ErrSuperseded.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	root        *fsedit.Capability
	entries     []*tree.Entry
	lastUpdated time.Time
	refreshSeq  uint64
	published   uint64
	inFlight    map[uint64]struct{}

	session    Session
	sessionSeq uint64
	rev        uint64

	version uint64
	subs    map[int]chan Snapshot
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for last-updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty store: no tree, Idle session.
func New(opts ...Option) *Store {
	s := &Store{
		now:      time.Now,
		subs:     make(map[int]chan Snapshot),
		inFlight: make(map[uint64]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Root:        s.root,
		Entries:     s.entries,
		LastUpdated: s.lastUpdated,
		Session:     s.session,
		CanApply:    s.session.State == fsedit.StateDirty,
		Version:     s.version,
	}
}

// Subscribe returns a channel receiving the latest snapshot after every
// transition. Slow readers only miss intermediate snapshots, never the latest
// one. The returned func unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// changedLocked bumps the version and publishes to subscribers.
// Callers hold s.mu, which makes this the only sender on every channel.
func (s *Store) changedLocked() {
	s.version++
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// BeginRefresh starts a refresh and returns its ticket.
// Starting a refresh supersedes every refresh started before it.
func (s *Store) BeginRefresh() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshSeq++
	s.inFlight[s.refreshSeq] = struct{}{}
	return s.refreshSeq
}

// AbandonRefresh withdraws a refresh that will not publish, so it no longer
// supersedes older refreshes still in flight.
func (s *Store) AbandonRefresh(ticket uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, ticket)
}

// PublishTree replaces the tree snapshot unless a newer refresh has already
// published or is still in flight. The recorded timestamp strictly increases
// across publications.
func (s *Store) PublishTree(ticket uint64, root *fsedit.Capability, entries []*tree.Entry) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, ticket)
	if ticket < s.published {
		return time.Time{}, fsedit.ErrSuperseded
	}
	for t := range s.inFlight {
		if t > ticket {
			return time.Time{}, fsedit.ErrSuperseded
		}
	}

	now := s.now()
	if !now.After(s.lastUpdated) {
		now = s.lastUpdated.Add(time.Nanosecond)
	}

	s.root = root
	s.entries = entries
	s.lastUpdated = now
	s.published = ticket
	s.changedLocked()
	return now, nil
}

// Select replaces the session with a Loading session for c, discarding any
// unsaved buffer, and returns the selection ticket for Loaded/LoadFailed.
func (s *Store) Select(c *fsedit.Capability, path string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionSeq++
	s.rev = 0
	s.session = Session{
		State:    fsedit.StateLoading,
		Selected: c,
		Seq:      s.sessionSeq,
		Path:     path,
	}
	s.changedLocked()
	return s.sessionSeq
}

// Loaded completes the read for the selection ticket: Loading → Clean.
func (s *Store) Loaded(ticket uint64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket != s.sessionSeq || s.session.State != fsedit.StateLoading {
		return fsedit.ErrSuperseded
	}
	s.session.State = fsedit.StateClean
	s.session.Buffer = text
	s.session.Dirty = false
	s.changedLocked()
	return nil
}

// LoadFailed records a failed read for the selection ticket: Loading → Idle.
// The selection is kept so the presentation layer can show what failed.
func (s *Store) LoadFailed(ticket uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket != s.sessionSeq || s.session.State != fsedit.StateLoading {
		return fsedit.ErrSuperseded
	}
	s.session.State = fsedit.StateIdle
	s.session.Buffer = ""
	s.session.Dirty = false
	s.changedLocked()
	return nil
}

// Edit replaces the buffer. Any edit marks the session dirty, even one that
// restores the loaded text. Returns false when no buffer is loaded.
func (s *Store) Edit(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.session.State {
	case fsedit.StateClean, fsedit.StateDirty:
		s.session.State = fsedit.StateDirty
	case fsedit.StateSaving:
		// stays Saving; Saved sees the new revision and lands in Dirty
	default:
		return false
	}
	s.rev++
	s.session.Buffer = text
	s.session.Dirty = true
	s.changedLocked()
	return true
}

// BeginSave moves a Dirty session to Saving and returns what to write.
// Returns false, without changing anything, unless the session is Dirty.
func (s *Store) BeginSave() (SaveTicket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.State != fsedit.StateDirty {
		return SaveTicket{}, false
	}
	s.session.State = fsedit.StateSaving
	s.changedLocked()
	return SaveTicket{
		Capability: s.session.Selected,
		Path:       s.session.Path,
		Content:    s.session.Buffer,
		seq:        s.sessionSeq,
		rev:        s.rev,
	}, true
}

// Saved completes a save: Saving → Clean, or → Dirty if the buffer was edited
// while the write was in flight.
func (s *Store) Saved(t SaveTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.seq != s.sessionSeq || s.session.State != fsedit.StateSaving {
		return fsedit.ErrSuperseded
	}
	if t.rev == s.rev {
		s.session.State = fsedit.StateClean
		s.session.Dirty = false
	} else {
		s.session.State = fsedit.StateDirty
	}
	s.changedLocked()
	return nil
}

// SaveFailed records a failed save: Saving → Dirty with the buffer preserved.
func (s *Store) SaveFailed(t SaveTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.seq != s.sessionSeq || s.session.State != fsedit.StateSaving {
		return fsedit.ErrSuperseded
	}
	s.session.State = fsedit.StateDirty
	s.session.Dirty = true
	s.changedLocked()
	return nil
}
