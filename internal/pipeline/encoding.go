package pipeline

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Codec is a text encoding chosen for one file. Detection runs exactly once,
// on the first non-empty chunk; the chosen codec stays fixed for the rest of
// the stream even if later chunks would have detected differently.
type Codec struct {
	Name string

	// Lossy marks the fallback case where no candidate accepted the chunk:
	// decoding then substitutes U+FFFD for undecodable bytes instead of
	// failing.
	Lossy bool
}

// Candidate order mirrors the tracker vendor's file ecosystem: UTF-8 first,
// then the single-byte Western codecs seen in the wild.
var codecCandidates = []Codec{
	{Name: "utf-8"},
	{Name: "iso-8859-1"},
	{Name: "windows-1252"},
}

// DetectEncoding picks the first candidate codec that decodes chunk without
// error. If every candidate rejects it, the default (UTF-8) is returned in
// lossy mode.
func DetectEncoding(chunk []byte) Codec {
	for _, c := range codecCandidates {
		if c.accepts(chunk) {
			return c
		}
	}
	return Codec{Name: "utf-8", Lossy: true}
}

func (c Codec) accepts(chunk []byte) bool {
	switch c.Name {
	case "utf-8":
		return validUTF8Chunk(chunk)
	default:
		// The single-byte codecs assign a code point to every byte value.
		return true
	}
}

// validUTF8Chunk reports whether chunk is valid UTF-8, tolerating one
// multi-byte character cut off by the chunk boundary at the tail.
func validUTF8Chunk(chunk []byte) bool {
	if utf8.Valid(chunk) {
		return true
	}
	for i := 1; i < utf8.UTFMax && i <= len(chunk); i++ {
		b := chunk[len(chunk)-i]
		if !utf8.RuneStart(b) {
			continue
		}
		if b >= 0xC0 && !utf8.FullRune(chunk[len(chunk)-i:]) {
			// Truncated sequence at the tail; judge the rest.
			return utf8.Valid(chunk[:len(chunk)-i])
		}
		return false
	}
	return false
}

// Decode turns raw bytes into text using the chosen codec. Only strict UTF-8
// can fail; the single-byte codecs and lossy UTF-8 accept any input.
func (c Codec) Decode(raw []byte) (string, error) {
	switch c.Name {
	case "iso-8859-1":
		return decodeCharmap(charmap.ISO8859_1, raw)
	case "windows-1252":
		return decodeCharmap(charmap.Windows1252, raw)
	default:
		if utf8.Valid(raw) {
			return string(raw), nil
		}
		if c.Lossy {
			return strings.ToValidUTF8(string(raw), string(utf8.RuneError)), nil
		}
		return "", errInvalidUTF8
	}
}

func decodeCharmap(cm *charmap.Charmap, raw []byte) (string, error) {
	out, err := cm.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
