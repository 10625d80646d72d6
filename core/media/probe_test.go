package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// mp4Bytes builds a minimal valid MP4: an ftyp box followed by a moov box
// holding a version-0 mvhd with the given timescale and duration.
func mp4Bytes(timescale, duration uint32) []byte {
	ftyp := make([]byte, 16)
	binary.BigEndian.PutUint32(ftyp[:4], 16)
	copy(ftyp[4:8], "ftyp")
	copy(ftyp[8:12], "isom")

	mvhd := make([]byte, 8+100)
	binary.BigEndian.PutUint32(mvhd[:4], uint32(len(mvhd)))
	copy(mvhd[4:8], "mvhd")
	// version 0, flags 0, creation, modification
	binary.BigEndian.PutUint32(mvhd[8+12:], timescale)
	binary.BigEndian.PutUint32(mvhd[8+16:], duration)

	moov := make([]byte, 8, 8+len(mvhd))
	binary.BigEndian.PutUint32(moov[:4], uint32(8+len(mvhd)))
	copy(moov[4:8], "moov")
	moov = append(moov, mvhd...)

	return append(ftyp, moov...)
}

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProbeDuration(t *testing.T) {
	ctx := context.Background()

	t.Run("reads mvhd", func(t *testing.T) {
		path := writeTemp(t, mp4Bytes(1000, 125400)) // 125.4s
		secs, err := ProbeDuration(ctx, path)
		assert.NoError(t, err)
		assert.Equal(t, 125, secs)
	})

	t.Run("rounds up", func(t *testing.T) {
		path := writeTemp(t, mp4Bytes(600, 45300)) // 75.5s
		secs, err := ProbeDuration(ctx, path)
		assert.NoError(t, err)
		assert.Equal(t, 76, secs)
	})

	t.Run("rejects non-video input", func(t *testing.T) {
		path := writeTemp(t, []byte("definitely not an mp4 file, just text padding"))
		_, err := ProbeDuration(ctx, path)
		assert.Equal(t, ErrNotVideo, err)
	})

	t.Run("rejects missing duration", func(t *testing.T) {
		path := writeTemp(t, mp4Bytes(1000, 0))
		_, err := ProbeDuration(ctx, path)
		assert.Equal(t, ErrNoDuration, err)
	})

	t.Run("rejects truncated file without hanging", func(t *testing.T) {
		data := mp4Bytes(1000, 9000)
		path := writeTemp(t, data[:20])

		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_, err := ProbeDuration(ctx, path)
		assert.Error(t, err)
		assert.NoError(t, ctx.Err()) // finished well before the deadline
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ProbeDuration(ctx, filepath.Join(t.TempDir(), "nope.mp4"))
		assert.Error(t, err)
	})

	t.Run("expired context wins over a slow parse", func(t *testing.T) {
		// an ftyp followed by a long run of padding boxes keeps the parser
		// walking while the context is already dead
		var buf bytes.Buffer
		ftyp := make([]byte, 16)
		binary.BigEndian.PutUint32(ftyp[:4], 16)
		copy(ftyp[4:8], "ftyp")
		copy(ftyp[8:12], "isom")
		buf.Write(ftyp)

		pad := make([]byte, 8)
		binary.BigEndian.PutUint32(pad[:4], 8)
		copy(pad[4:8], "free")
		for i := 0; i < 1<<18; i++ {
			buf.Write(pad)
		}
		path := writeTemp(t, buf.Bytes())

		cctx, cancel := context.WithCancel(context.Background())
		cancel()

		// ProbeDuration closes the file and drains the parser goroutine
		// before returning
		secs, err := ProbeDuration(cctx, path)
		assert.Equal(t, context.Canceled, err)
		assert.Zero(t, secs)
	})
}
