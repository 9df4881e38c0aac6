package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// ChunkSource is the pull side of the object storage collaborator: an
// order-preserving sequence of byte chunks ending with io.EOF.
type ChunkSource interface {
	Next(ctx context.Context) ([]byte, error)
}

// LineScanner reassembles text lines from a chunked byte stream. Buffering is
// done on raw bytes and each complete line is decoded on its own, so a chunk
// boundary may fall in the middle of a line or of a multi-byte character
// without corrupting either. A line that fails to decode is skipped with a
// warning; the stream continues.
type LineScanner struct {
	src    ChunkSource
	logger zerolog.Logger

	codec   Codec
	sniffed bool

	buf []byte
	eof bool
}

// NewLineScanner wraps src. The text codec is detected on the first non-empty
// chunk pulled from it.
func NewLineScanner(src ChunkSource, logger zerolog.Logger) *LineScanner {
	return &LineScanner{src: src, logger: logger}
}

// Codec reports the codec chosen for this stream. Valid once the first chunk
// has been pulled.
func (s *LineScanner) Codec() Codec {
	return s.codec
}

// Next returns the next complete line with its terminator stripped, or io.EOF
// once the stream and the trailing partial line are exhausted. Any other
// error is a stream-level failure wrapped with ErrStreamFailed.
func (s *LineScanner) Next(ctx context.Context) (string, error) {
	for {
		if idx := bytes.IndexByte(s.buf, '\n'); idx >= 0 {
			raw := s.buf[:idx]
			s.buf = s.buf[idx+1:]
			line, ok := s.decodeLine(raw)
			if !ok {
				continue
			}
			return line, nil
		}

		if s.eof {
			if len(s.buf) == 0 {
				return "", io.EOF
			}
			// Trailing partial text flushes as a final line.
			raw := s.buf
			s.buf = nil
			line, ok := s.decodeLine(raw)
			if !ok {
				return "", io.EOF
			}
			return line, nil
		}

		chunk, err := s.src.Next(ctx)
		if err == io.EOF {
			s.eof = true
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrStreamFailed, err)
		}
		if !s.sniffed && len(chunk) > 0 {
			s.codec = DetectEncoding(chunk)
			s.sniffed = true
			s.logger.Debug().
				Str("encoding", s.codec.Name).
				Bool("lossy", s.codec.Lossy).
				Msg("Detected text encoding")
		}
		s.buf = append(s.buf, chunk...)
	}
}

func (s *LineScanner) decodeLine(raw []byte) (string, bool) {
	line, err := s.codec.Decode(raw)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("encoding", s.codec.Name).
			Msg("Skipping undecodable line")
		return "", false
	}
	return strings.TrimSuffix(line, "\r"), true
}
