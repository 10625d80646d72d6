package media

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testLogger struct{}

func (testLogger) Debug(msg string, args ...interface{}) {}
func (testLogger) Info(msg string, args ...interface{})  {}
func (testLogger) Warn(msg string, args ...interface{})  {}
func (testLogger) Error(msg string, args ...interface{}) {}
func (testLogger) Fatal(msg string, args ...interface{}) {}

type progressRecorder struct {
	mu    sync.Mutex
	percs []int
}

func (pr *progressRecorder) record(_ string, pct int) {
	pr.mu.Lock()
	pr.percs = append(pr.percs, pct)
	pr.mu.Unlock()
}

func (pr *progressRecorder) snapshot() []int {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return append([]int(nil), pr.percs...)
}

func newTestManager(t *testing.T) (*Manager, *progressRecorder) {
	t.Helper()
	pr := &progressRecorder{}
	m := NewManager(t.TempDir(), 4, 5*time.Second, testLogger{})
	m.SetOnProgress(pr.record)
	return m, pr
}

func putAll(t *testing.T, m *Manager, id string, data []byte, chunkSize int) Session {
	t.Helper()
	ctx := context.Background()
	var s Session
	var err error
	for i := 0; i*chunkSize < len(data); i++ {
		hi := (i + 1) * chunkSize
		if hi > len(data) {
			hi = len(data)
		}
		s, err = m.PutChunk(ctx, id, i, bytes.NewReader(data[i*chunkSize:hi]))
		assert.NoError(t, err)
	}
	return s
}

func TestUploadLifecycle(t *testing.T) {
	ctx := context.Background()
	m, pr := newTestManager(t)

	data := mp4Bytes(1000, 90000) // 90s clip
	s, err := m.Init(ctx, "clip.mp4", "video/mp4", int64(len(data)))
	assert.NoError(t, err)
	assert.Equal(t, StateInitiated, s.State)
	assert.Equal(t, (len(data)+3)/4, s.TotalParts)

	s = putAll(t, m, s.ID, data, 4)
	assert.Equal(t, StateUploaded, s.State)
	assert.Equal(t, 100, s.Progress)

	s, err = m.Complete(ctx, s.ID)
	assert.NoError(t, err)
	assert.Equal(t, StateReady, s.State)
	assert.Equal(t, 90, s.DurationSeconds)
	assert.False(t, s.NeedsManualDuration)
	assert.NotEmpty(t, s.PublicID)
	assert.Contains(t, s.URL, s.PublicID)

	// progress never decreased
	percs := pr.snapshot()
	for i := 1; i < len(percs); i++ {
		assert.GreaterOrEqual(t, percs[i], percs[i-1])
	}
}

func TestUploadOutOfOrderAndDuplicateChunks(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	data := []byte("0123456789ab") // 3 parts of 4
	s, err := m.Init(ctx, "clip.mp4", "video/mp4", int64(len(data)))
	assert.NoError(t, err)

	for _, idx := range []int{2, 0, 0, 1} { // duplicate part 0
		s, err = m.PutChunk(ctx, s.ID, idx, bytes.NewReader(data[idx*4:idx*4+4]))
		assert.NoError(t, err)
	}
	assert.Equal(t, StateUploaded, s.State)
	assert.Equal(t, 100, s.Progress)

	_, err = m.PutChunk(ctx, s.ID, 5, bytes.NewReader(data))
	assert.Equal(t, ErrBadPart, err)
}

func TestCompleteRequiresAllParts(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	s, _ := m.Init(ctx, "clip.mp4", "video/mp4", 12)
	_, err := m.PutChunk(ctx, s.ID, 0, bytes.NewReader([]byte("0123")))
	assert.NoError(t, err)

	_, err = m.Complete(ctx, s.ID)
	assert.Equal(t, ErrNotComplete, err)
}

func TestCancelDiscardsLateChunks(t *testing.T) {
	ctx := context.Background()
	m, pr := newTestManager(t)

	s, _ := m.Init(ctx, "clip.mp4", "video/mp4", 12)
	_, err := m.PutChunk(ctx, s.ID, 0, bytes.NewReader([]byte("0123")))
	assert.NoError(t, err)

	s, err = m.Cancel(ctx, s.ID)
	assert.NoError(t, err)
	assert.Equal(t, StateCancelled, s.State)
	assert.Equal(t, 0, s.Progress)
	before := len(pr.snapshot())

	// a chunk landing after the cancel is swallowed whole
	s, err = m.PutChunk(ctx, s.ID, 1, bytes.NewReader([]byte("4567")))
	assert.NoError(t, err)
	assert.Equal(t, StateCancelled, s.State)
	assert.Equal(t, 0, s.Progress)
	assert.Len(t, pr.snapshot(), before)

	_, err = m.Complete(ctx, s.ID)
	assert.Equal(t, ErrBadState, err)

	// cancelling twice is fine, cancelling a published session is not
	_, err = m.Cancel(ctx, s.ID)
	assert.NoError(t, err)
}

func TestProbeFailureNeedsManualDuration(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	data := []byte("not a video, just twenty-odd bytes")
	s, _ := m.Init(ctx, "clip.mp4", "video/mp4", int64(len(data)))
	s = putAll(t, m, s.ID, data, 4)

	s, err := m.Complete(ctx, s.ID)
	assert.NoError(t, err)
	assert.Equal(t, StateReady, s.State)
	assert.Equal(t, 0, s.DurationSeconds)
	assert.True(t, s.NeedsManualDuration)

	// the author fills the duration in by hand
	s, err = m.SetDuration(ctx, s.ID, 420)
	assert.NoError(t, err)
	assert.Equal(t, 420, s.DurationSeconds)
	assert.False(t, s.NeedsManualDuration)

	_, err = m.SetDuration(ctx, s.ID, -1)
	assert.Error(t, err)
}

func TestManualDurationHeldThroughUpload(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	data := mp4Bytes(1000, 90000)
	s, _ := m.Init(ctx, "clip.mp4", "video/mp4", int64(len(data)))

	// duration fixed up front; the probe at completion must not overwrite it
	_, err := m.SetDuration(ctx, s.ID, 33)
	assert.NoError(t, err)

	putAll(t, m, s.ID, data, 4)
	s, err = m.Complete(ctx, s.ID)
	assert.NoError(t, err)
	assert.Equal(t, 33, s.DurationSeconds)
}

func TestPublishFailureKeepsReadySession(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	data := mp4Bytes(1000, 60000)
	s, err := m.Init(ctx, "clip.mp4", "video/mp4", int64(len(data)))
	assert.NoError(t, err)
	s = putAll(t, m, s.ID, data, 4)

	epoch := m.sessions[s.ID].epoch
	s, err = m.Complete(ctx, s.ID)
	assert.NoError(t, err)
	assert.Equal(t, StateReady, s.State)

	// a concurrent Complete that passed the uploaded check but lost the
	// rename reports its failure after the session is already published
	m.fail(s.ID, epoch)

	s, err = m.Status(ctx, s.ID)
	assert.NoError(t, err)
	assert.Equal(t, StateReady, s.State)

	// a plain second Complete is rejected without corrupting the session
	_, err = m.Complete(ctx, s.ID)
	assert.Equal(t, ErrBadState, err)
	s, _ = m.Status(ctx, s.ID)
	assert.Equal(t, StateReady, s.State)

	// the failure path still applies to a session that never published
	s2, err := m.Init(ctx, "other.mp4", "video/mp4", int64(len(data)))
	assert.NoError(t, err)
	putAll(t, m, s2.ID, data, 4)
	m.fail(s2.ID, m.sessions[s2.ID].epoch)
	s2, _ = m.Status(ctx, s2.ID)
	assert.Equal(t, StateFailed, s2.State)
}

func TestStatusUnknownSession(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Status(context.Background(), "missing")
	assert.Equal(t, ErrNotFound, err)
}
