package chunked

import (
	"bytes"
	"fmt"
	"io"

	"github.com/maxiofs/sigv4/internal/keys"
)

// StreamReader wraps an io.Reader of raw payload bytes and produces
// the framed, signed aws-chunked wire format on demand: it buffers
// input into exact chunkLength-sized pieces, signs each while
// buffering, and serves the framed bytes (including the mandatory
// terminal chunk) through Read. This is the §4.6 "stream adapter"
// entry point for callers who would rather hand an io.Reader to an
// HTTP client than drive Signer.Sign themselves.
type StreamReader struct {
	src    io.Reader
	signer *Signer

	bodyLength  int64
	chunkLength int64
	consumed    int64

	out      bytes.Buffer
	finished bool
}

// NewStreamReader builds a StreamReader over src, which must yield
// exactly bodyLength bytes before EOF.
func NewStreamReader(src io.Reader, bodyLength, chunkLength int64, seedSignatureHex, timestamp string, signing keys.SigningData) (*StreamReader, error) {
	signer, err := NewSigner(bodyLength, chunkLength, seedSignatureHex, timestamp, signing)
	if err != nil {
		return nil, err
	}
	return &StreamReader{src: src, signer: signer, bodyLength: bodyLength, chunkLength: chunkLength}, nil
}

// Read implements io.Reader.
func (s *StreamReader) Read(p []byte) (int, error) {
	for s.out.Len() == 0 && !s.finished {
		if err := s.fillNextFrame(); err != nil {
			return 0, err
		}
	}
	if s.out.Len() == 0 && s.finished {
		return 0, io.EOF
	}
	return s.out.Read(p)
}

func (s *StreamReader) fillNextFrame() error {
	if s.signer.Done() {
		s.finished = true
		return nil
	}

	want := s.chunkLength
	if remaining := s.bodyLength - s.consumed; remaining < want {
		want = remaining
	}

	buf := make([]byte, want)
	n, err := io.ReadFull(s.src, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return err
	}
	if int64(n) != want {
		return fmt.Errorf("chunked: source produced %d bytes, expected %d (total consumed %d of %d)",
			n, want, s.consumed+int64(n), s.bodyLength)
	}
	s.consumed += int64(n)

	frame, err := s.signer.Sign(buf[:n])
	if err != nil {
		return err
	}
	s.out.WriteString(frame)
	return nil
}
