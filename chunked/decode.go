package chunked

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// ChunkReader strips aws-chunked framing from an already-signed
// stream without re-verifying the embedded chunk signatures — a
// caller that received a stream signed elsewhere and just needs the
// raw payload back. It is adapted from the teacher's
// pkg/s3compat.AwsChunkedReader, which serves the same non-verifying
// role on the receiving side of an S3-compatible gateway.
type ChunkReader struct {
	reader  *bufio.Reader
	buffer  bytes.Buffer
	eof     bool
	decoded int64
}

// NewChunkReader wraps r, whose bytes are assumed to already be in
// aws-chunked wire format.
func NewChunkReader(r io.Reader) *ChunkReader {
	return &ChunkReader{reader: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (r *ChunkReader) Read(p []byte) (int, error) {
	if r.eof && r.buffer.Len() == 0 {
		return 0, io.EOF
	}
	if r.buffer.Len() > 0 {
		return r.buffer.Read(p)
	}
	if err := r.readNextChunk(); err != nil {
		if err == io.EOF {
			r.eof = true
		}
		if r.buffer.Len() > 0 {
			return r.buffer.Read(p)
		}
		return 0, err
	}
	return r.buffer.Read(p)
}

func (r *ChunkReader) readNextChunk() error {
	sizeLine, err := r.reader.ReadString('\n')
	if err != nil {
		return err
	}
	sizeLine = strings.TrimSpace(sizeLine)
	if idx := strings.Index(sizeLine, ";"); idx != -1 {
		sizeLine = sizeLine[:idx]
	}

	chunkSize, err := strconv.ParseInt(sizeLine, 16, 64)
	if err != nil {
		logrus.WithError(err).WithField("size_line", sizeLine).Error("chunked: failed to parse chunk size")
		return fmt.Errorf("chunked: invalid chunk size %q", sizeLine)
	}

	logrus.WithFields(logrus.Fields{
		"chunk_size_hex": sizeLine,
		"chunk_size_dec": chunkSize,
		"total_decoded":  r.decoded,
	}).Debug("chunked: read chunk header")

	if chunkSize == 0 {
		for {
			trailerLine, err := r.reader.ReadString('\n')
			if err != nil && err != io.EOF {
				return err
			}
			if strings.TrimSpace(trailerLine) == "" || err == io.EOF {
				break
			}
		}
		return io.EOF
	}

	data := make([]byte, chunkSize)
	if _, err := io.ReadFull(r.reader, data); err != nil {
		return fmt.Errorf("chunked: reading chunk data: %w", err)
	}
	r.buffer.Write(data)
	r.decoded += chunkSize

	if _, err := r.reader.ReadString('\n'); err != nil {
		return err
	}
	return nil
}
