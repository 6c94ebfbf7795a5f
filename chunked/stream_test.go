package chunked

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/maxiofs/sigv4/internal/keys"
)

func TestStreamReaderRoundTripsThroughChunkReader(t *testing.T) {
	signing := keys.Derive("20190901", "secret", "us-east-1", "s3")
	body := s3Body()

	sr, err := NewStreamReader(bytes.NewReader(body), int64(len(body)), 64*1024, strings.Repeat("0", 64), "20190901T084743Z", signing)
	if err != nil {
		t.Fatalf("NewStreamReader: %v", err)
	}

	framed, err := io.ReadAll(sr)
	if err != nil {
		t.Fatalf("reading framed stream: %v", err)
	}

	decoded, err := io.ReadAll(NewChunkReader(bytes.NewReader(framed)))
	if err != nil {
		t.Fatalf("ChunkReader round trip: %v", err)
	}
	if !bytes.Equal(decoded, body) {
		t.Errorf("decoded body does not match original: got %d bytes, want %d", len(decoded), len(body))
	}
}

func TestStreamReaderEmptyBody(t *testing.T) {
	signing := keys.Derive("20190901", "secret", "us-east-1", "s3")
	sr, err := NewStreamReader(bytes.NewReader(nil), 0, 8192, strings.Repeat("0", 64), "20190901T084743Z", signing)
	if err != nil {
		t.Fatalf("NewStreamReader: %v", err)
	}
	framed, err := io.ReadAll(sr)
	if err != nil {
		t.Fatalf("reading framed stream: %v", err)
	}
	if !strings.HasPrefix(string(framed), "0;chunk-signature=") {
		t.Errorf("framed = %q, want a single terminal frame", framed)
	}
}

func TestStreamReaderShortSourceFails(t *testing.T) {
	signing := keys.Derive("20190901", "secret", "us-east-1", "s3")
	sr, err := NewStreamReader(bytes.NewReader([]byte("short")), 100, 8192, strings.Repeat("0", 64), "20190901T084743Z", signing)
	if err != nil {
		t.Fatalf("NewStreamReader: %v", err)
	}
	if _, err := io.ReadAll(sr); err == nil {
		t.Fatal("expected an error when the source yields fewer bytes than bodyLength")
	}
}
