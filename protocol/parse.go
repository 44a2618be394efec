package protocol

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// BufferSize is the maximum number of bytes read from a connection per request.
// Anything past it is never seen by the parser.
const BufferSize = 1024

const (
	getPrefix = "GET /get?key="
	setPrefix = "GET /set?"
)

// Parse converts the first line of buf into a Command.
// It returns ErrNoRequest if buf is empty, ErrUnrecognized if the line is not a
// get or set request, and a *MalformedError if it is one but can't be parsed.
func Parse(buf []byte) (Command, error) {
	if len(buf) == 0 {
		return Command{}, ErrNoRequest
	}

	line := firstLine(decodeLossy(buf))

	switch {
	case strings.HasPrefix(line, getPrefix):
		key, err := parseGet(line)
		if err != nil {
			return Command{}, err
		}
		return NewGetCommand(key), nil
	case strings.HasPrefix(line, setPrefix):
		key, val, err := parseSet(line)
		if err != nil {
			return Command{}, err
		}
		return NewSetCommand(key, val), nil
	}

	return Command{}, ErrUnrecognized
}

// decodeLossy converts buf to a string, replacing each invalid byte sequence
// with a single U+FFFD. A sequence is the longest prefix of a well-formed
// encoding, or one byte if there is none.
func decodeLossy(buf []byte) string {
	if utf8.Valid(buf) {
		return string(buf)
	}

	var sb strings.Builder
	sb.Grow(len(buf) + 8)
	for len(buf) > 0 {
		r, size := utf8.DecodeRune(buf)
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
			buf = buf[invalidPrefixLen(buf):]
			continue
		}
		sb.Write(buf[:size])
		buf = buf[size:]
	}

	return sb.String()
}

// invalidPrefixLen returns the length of the truncated sequence at the start
// of buf, which is known not to hold a complete rune.
func invalidPrefixLen(buf []byte) int {
	lo, hi := byte(0x80), byte(0xBF)
	var need int
	switch b := buf[0]; {
	case b >= 0xC2 && b <= 0xDF:
		need = 1
	case b == 0xE0:
		need, lo = 2, 0xA0
	case b == 0xED:
		need, hi = 2, 0x9F
	case b >= 0xE1 && b <= 0xEF:
		need = 2
	case b == 0xF0:
		need, lo = 3, 0x90
	case b == 0xF4:
		need, hi = 3, 0x8F
	case b >= 0xF1 && b <= 0xF3:
		need = 3
	default:
		return 1
	}

	n := 1
	for ; n <= need && n < len(buf); n++ {
		c := buf[n]
		if c < lo || c > hi {
			break
		}
		lo, hi = 0x80, 0xBF
	}

	return n
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSuffix(line, "\r")
}

func parseGet(line string) (string, error) {
	parts := strings.Split(line, "key=")
	if len(parts) != 2 {
		return "", malformed(CodeGetSegments)
	}

	key := leadingToken(parts[1])
	if key == "" {
		return "", malformed(CodeMissingKey)
	}

	return key, nil
}

func parseSet(line string) (key, val string, err error) {
	parts := strings.Split(line, "set?")
	if len(parts) != 2 {
		return "", "", malformed(CodeSetSegments)
	}

	pair := leadingToken(parts[1])
	if pair == "" {
		return "", "", malformed(CodeSetMissingPair)
	}

	kv := strings.Split(pair, "=")
	if len(kv) != 2 {
		return "", "", malformed(CodeSetPair)
	}

	return kv[0], kv[1], nil
}

// leadingToken returns the text of s up to the first whitespace. It's empty if
// s starts with whitespace.
func leadingToken(s string) string {
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		return s[:i]
	}
	return s
}
