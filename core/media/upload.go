package media

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/GraduateProjectPTIT/lms-backend/core"
)

// Session states
const (
	StateInitiated = "initiated"
	StateReceiving = "receiving"
	StateUploaded  = "uploaded"
	StateReady     = "ready"
	StateCancelled = "cancelled"
	StateFailed    = "failed"
)

var (
	ErrNotFound    = errors.New("upload session not found")
	ErrBadState    = errors.New("operation not valid in the session's current state")
	ErrBadPart     = errors.New("part index out of range")
	ErrNotComplete = errors.New("not all parts have been received")
	ErrEmptyUpload = errors.New("upload size must be positive")
)

type (
	// Session is the observable state of one chunked video upload. Snapshots
	// are returned by value; the manager owns the mutable record.
	Session struct {
		ID                  string    `json:"id"`
		Filename            string    `json:"filename"`
		ContentType         string    `json:"contentType"`
		Size                int64     `json:"size"`
		ChunkSize           int64     `json:"chunkSize"`
		TotalParts          int       `json:"totalParts"`
		State               string    `json:"state"`
		Progress            int       `json:"progress"`
		DurationSeconds     int       `json:"durationSeconds"`
		NeedsManualDuration bool      `json:"needsManualDuration"`
		PublicID            string    `json:"publicId,omitempty"`
		URL                 string    `json:"url,omitempty"`
		CreatedAt           time.Time `json:"createdAt"`
	}

	// ProgressFunc observes upload progress. Reported percentages are
	// monotonically non-decreasing within one session epoch.
	ProgressFunc func(sessionID string, percent int)

	session struct {
		Session
		epoch         uint64
		received      []bool
		bytesReceived int64
		path          string
		durationSet   bool
	}

	Manager struct {
		mu       sync.Mutex
		sessions map[string]*session

		dir          string
		chunkSize    int64
		probeTimeout time.Duration
		log          core.Logger
		onProgress   ProgressFunc
	}
)

func NewManager(dir string, chunkSize int64, probeTimeout time.Duration, log core.Logger) *Manager {
	return &Manager{
		sessions:     make(map[string]*session),
		dir:          dir,
		chunkSize:    chunkSize,
		probeTimeout: probeTimeout,
		log:          log,
	}
}

// SetOnProgress installs the progress observer. Set it before uploads start.
func (m *Manager) SetOnProgress(fn ProgressFunc) { m.onProgress = fn }

// Init opens a new upload session and its scratch file.
func (m *Manager) Init(ctx context.Context, filename, contentType string, size int64) (Session, error) {
	if size <= 0 {
		return Session{}, ErrEmptyUpload
	}

	id := uuid.New().String()
	path := filepath.Join(m.dir, id+".part")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Session{}, errors.Wrap(err, "creating scratch file")
	}
	f.Close()

	totalParts := int((size + m.chunkSize - 1) / m.chunkSize)
	s := &session{
		Session: Session{
			ID:          id,
			Filename:    filepath.Base(filename),
			ContentType: contentType,
			Size:        size,
			ChunkSize:   m.chunkSize,
			TotalParts:  totalParts,
			State:       StateInitiated,
			CreatedAt:   time.Now().UTC(),
		},
		received: make([]bool, totalParts),
		path:     path,
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return s.Session, nil
}

// PutChunk streams one part into the scratch file. Chunks arriving for a
// cancelled session are discarded silently: no state change, no progress
// callback, no error. A cancellation racing the write is caught by the
// session epoch and the late write is likewise discarded.
func (m *Manager) PutChunk(ctx context.Context, id string, index int, r io.Reader) (Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return Session{}, ErrNotFound
	}
	if s.State == StateCancelled {
		snap := s.Session
		m.mu.Unlock()
		return snap, nil
	}
	if s.State != StateInitiated && s.State != StateReceiving {
		snap := s.Session
		m.mu.Unlock()
		return snap, ErrBadState
	}
	if index < 0 || index >= s.TotalParts {
		snap := s.Session
		m.mu.Unlock()
		return snap, ErrBadPart
	}
	epoch := s.epoch
	path := s.path
	offset := int64(index) * s.ChunkSize
	m.mu.Unlock()

	n, err := writeAt(path, offset, r)

	m.mu.Lock()
	defer m.mu.Unlock()
	if s.epoch != epoch || s.State == StateCancelled {
		// cancelled while writing; the scratch file is already gone or going
		return s.Session, nil
	}
	if err != nil {
		s.State = StateFailed
		return s.Session, errors.Wrap(err, "writing part")
	}

	if !s.received[index] {
		s.received[index] = true
		s.bytesReceived += n
	}
	s.State = StateReceiving
	if s.done() {
		s.State = StateUploaded
	}

	if pct := int(s.bytesReceived * 100 / s.Size); pct > s.Progress {
		s.Progress = pct
		if m.onProgress != nil {
			// delivered under the manager lock so observers see percentages
			// in order; observers must not call back into the manager
			m.onProgress(s.ID, pct)
		}
	}
	return s.Session, nil
}

// Complete assembles the session: it probes the video duration and publishes
// the asset. A failed probe is non-fatal; the session becomes ready with
// duration 0 and NeedsManualDuration set.
func (m *Manager) Complete(ctx context.Context, id string) (Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return Session{}, ErrNotFound
	}
	if s.State == StateCancelled {
		snap := s.Session
		m.mu.Unlock()
		return snap, ErrBadState
	}
	if s.State != StateUploaded {
		snap := s.Session
		err := ErrBadState
		if !s.done() {
			err = ErrNotComplete
		}
		m.mu.Unlock()
		return snap, err
	}
	epoch := s.epoch
	path := s.path
	durationSet := s.durationSet
	m.mu.Unlock()

	var seconds int
	var probeErr error
	if !durationSet {
		probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
		seconds, probeErr = ProbeDuration(probeCtx, path)
		cancel()
	}

	publicID := uuid.New().String()
	finalPath := filepath.Join(m.dir, publicID+filepath.Ext(s.Filename))
	if err := os.Rename(path, finalPath); err != nil {
		m.fail(id, epoch)
		return Session{}, errors.Wrap(err, "publishing upload")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s.epoch != epoch || s.State == StateCancelled {
		os.Remove(finalPath)
		return s.Session, ErrBadState
	}

	if !s.durationSet {
		if probeErr != nil {
			m.log.Warn("video duration probe failed", "session", id, "err", probeErr)
			s.NeedsManualDuration = true
		} else {
			s.DurationSeconds = seconds
			s.durationSet = true
		}
	}
	s.State = StateReady
	s.Progress = 100
	s.PublicID = publicID
	s.URL = "/media/video/" + publicID + filepath.Ext(s.Filename)
	s.path = finalPath
	return s.Session, nil
}

// SetDuration records an author-provided duration, overriding whatever the
// probe found. The manual value sticks even if the probe later succeeds.
func (m *Manager) SetDuration(ctx context.Context, id string, seconds int) (Session, error) {
	if seconds <= 0 {
		return Session{}, core.NewValidationError(nil,
			core.FieldError{Field: "durationSeconds", Error: "duration must be positive"})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if s.State == StateCancelled || s.State == StateFailed {
		return s.Session, ErrBadState
	}
	s.DurationSeconds = seconds
	s.durationSet = true
	s.NeedsManualDuration = false
	return s.Session, nil
}

// Cancel aborts the session and invalidates in-flight work. Chunk writes and
// completions racing the cancel observe the bumped epoch and discard their
// results.
func (m *Manager) Cancel(ctx context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if s.State == StateReady {
		return s.Session, ErrBadState
	}
	if s.State == StateCancelled {
		return s.Session, nil
	}

	s.epoch++
	s.State = StateCancelled
	s.Progress = 0
	os.Remove(s.path)
	return s.Session, nil
}

// Status returns a snapshot of the session.
func (m *Manager) Status(ctx context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s.Session, nil
}

// fail marks a session failed after a publish error. Only a session still
// waiting in StateUploaded may transition: a concurrent Complete that already
// published (or a cancellation) must not be overwritten by the loser.
func (m *Manager) fail(id string, epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok && s.epoch == epoch && s.State == StateUploaded {
		s.State = StateFailed
	}
}

func (s *session) done() bool {
	for _, ok := range s.received {
		if !ok {
			return false
		}
	}
	return true
}

func writeAt(path string, offset int64, r io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if _, err = f.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}
	return io.Copy(f, r)
}
