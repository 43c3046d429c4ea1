package pack

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// codec compresses payloads into zlib streams at a fixed level.
// Writers are pooled; it is safe for concurrent use.
type codec struct {
	level   int
	writers sync.Pool
}

func newCodec(level int) (*codec, error) {
	// reject bad levels up front so the pool never has to
	if _, err := zlib.NewWriterLevel(io.Discard, level); err != nil {
		return nil, fmt.Errorf("compression level %d: %w", level, err)
	}
	return &codec{level: level}, nil
}

func (c *codec) compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data)/2 + 64)

	w, _ := c.writers.Get().(*zlib.Writer)
	if w == nil {
		var err error
		w, err = zlib.NewWriterLevel(&buf, c.level)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCompressFail, err)
		}
	} else {
		w.Reset(&buf)
	}
	defer c.writers.Put(w)

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompressFail, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompressFail, err)
	}
	return buf.Bytes(), nil
}

// decompress inflates data, which must expand to exactly orgSize bytes
func (c *codec) decompress(data []byte, orgSize uint32) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompressFail, err)
	}
	defer r.Close()

	out := make([]byte, orgSize)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("%w: inflating %d bytes: %w", ErrDecompressFail, orgSize, err)
	}

	// the stream must end exactly at orgSize and pass its adler32 check
	var extra [1]byte
	n, err := r.Read(extra[:])
	for n == 0 && err == nil {
		n, err = r.Read(extra[:])
	}
	if n > 0 {
		return nil, fmt.Errorf("%w: payload larger than recorded size %d", ErrDecompressFail, orgSize)
	}
	if !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrDecompressFail, err)
	}
	return out, nil
}
