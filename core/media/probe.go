package media

import (
	"context"
	"encoding/binary"
	"math"
	"os"

	"github.com/pkg/errors"
)

var (
	ErrNotVideo   = errors.New("file is not an MP4 video")
	ErrNoDuration = errors.New("no duration metadata found")
)

// ProbeDuration reads the duration of an MP4 file from its moov/mvhd box,
// in whole seconds. It never outlives ctx: on timeout the file handle is
// closed out from under the parser, which forces any pending read to fail.
func ProbeDuration(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "opening video file")
	}

	type result struct {
		seconds int
		err     error
	}
	done := make(chan result, 1)
	go func() {
		secs, perr := parseMvhd(f)
		f.Close()
		done <- result{secs, perr}
	}()

	select {
	case res := <-done:
		return res.seconds, res.err
	case <-ctx.Done():
		f.Close()
		<-done
		return 0, ctx.Err()
	}
}

// parseMvhd walks the top-level MP4 box structure looking for moov, then
// scans moov's children for mvhd and derives duration/timescale.
func parseMvhd(f *os.File) (int, error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}
	end := fi.Size()

	sawFtyp := false
	var pos int64
	for pos+8 <= end {
		size, boxType, headerLen, err := readBoxHeader(f, pos, end)
		if err != nil {
			return 0, err
		}

		switch boxType {
		case "ftyp":
			sawFtyp = true
		case "moov":
			if !sawFtyp {
				return 0, ErrNotVideo
			}
			return scanMoov(f, pos+headerLen, pos+size)
		default:
			if !sawFtyp {
				// the first box of a valid MP4 is ftyp
				return 0, ErrNotVideo
			}
		}
		pos += size
	}
	if !sawFtyp {
		return 0, ErrNotVideo
	}
	return 0, ErrNoDuration
}

func scanMoov(f *os.File, pos, end int64) (int, error) {
	for pos+8 <= end {
		size, boxType, headerLen, err := readBoxHeader(f, pos, end)
		if err != nil {
			return 0, err
		}
		if boxType == "mvhd" {
			return readMvhd(f, pos+headerLen)
		}
		pos += size
	}
	return 0, ErrNoDuration
}

// readBoxHeader decodes one box header at pos: 32-bit size + 4-char type,
// with size==1 meaning a 64-bit largesize follows.
func readBoxHeader(f *os.File, pos, end int64) (size int64, boxType string, headerLen int64, err error) {
	var hdr [8]byte
	if _, err = f.ReadAt(hdr[:], pos); err != nil {
		return 0, "", 0, err
	}
	size = int64(binary.BigEndian.Uint32(hdr[:4]))
	boxType = string(hdr[4:8])
	headerLen = 8

	if size == 1 {
		var large [8]byte
		if _, err = f.ReadAt(large[:], pos+8); err != nil {
			return 0, "", 0, err
		}
		size = int64(binary.BigEndian.Uint64(large[:]))
		headerLen = 16
	} else if size == 0 {
		// box extends to end of file
		size = end - pos
	}
	if size < headerLen || pos+size > end {
		return 0, "", 0, ErrNotVideo
	}
	return size, boxType, headerLen, nil
}

func readMvhd(f *os.File, pos int64) (int, error) {
	var version [1]byte
	if _, err := f.ReadAt(version[:], pos); err != nil {
		return 0, err
	}

	var timescale uint32
	var duration uint64
	switch version[0] {
	case 0:
		// 1 version + 3 flags + 4 creation + 4 modification
		var buf [8]byte
		if _, err := f.ReadAt(buf[:], pos+12); err != nil {
			return 0, err
		}
		timescale = binary.BigEndian.Uint32(buf[:4])
		duration = uint64(binary.BigEndian.Uint32(buf[4:]))
	case 1:
		// 1 version + 3 flags + 8 creation + 8 modification
		var buf [12]byte
		if _, err := f.ReadAt(buf[:], pos+20); err != nil {
			return 0, err
		}
		timescale = binary.BigEndian.Uint32(buf[:4])
		duration = binary.BigEndian.Uint64(buf[4:])
	default:
		return 0, ErrNoDuration
	}

	if timescale == 0 || duration == 0 || duration == math.MaxUint32 {
		return 0, ErrNoDuration
	}
	return int(math.Round(float64(duration) / float64(timescale))), nil
}
