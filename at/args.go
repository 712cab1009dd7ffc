package at

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrSyntax is returned by ParseArgs when an unquoted argument is not
	// an integer or arguments are not separated by commas.
	ErrSyntax = errors.New("at: argument syntax error")

	// ErrUnterminatedString is returned by ParseArgs when a quoted argument
	// has no closing quote.
	ErrUnterminatedString = errors.New("at: unterminated string argument")
)

type ArgKind uint8

const (
	KindInt ArgKind = iota
	KindString
)

// Arg is a single command or response argument. ESP-AT arguments are either
// integers or double quoted strings.
type Arg struct {
	Kind ArgKind
	Int  int
	Str  string
}

// Int returns an integer argument.
func Int(v int) Arg { return Arg{Kind: KindInt, Int: v} }

// String returns a string argument.
func String(s string) Arg { return Arg{Kind: KindString, Str: s} }

// String returns the argument as it appears on the wire.
func (a Arg) String() string {
	if a.Kind == KindString {
		return quote(a.Str)
	}
	return strconv.Itoa(a.Int)
}

// Command formats an AT command line without the trailing CRLF. An empty
// name yields the bare "AT" attention command.
//
//	Command("CWJAP", String("home"), String("")) == `AT+CWJAP="home",""`
func Command(name string, args ...Arg) string {
	if name == "" {
		return Prefix
	}
	var sb strings.Builder
	sb.WriteString(Prefix)
	sb.WriteByte('+')
	sb.WriteString(name)
	for i, a := range args {
		if i == 0 {
			sb.WriteByte('=')
		} else {
			sb.WriteByte(',')
		}
		sb.WriteString(a.String())
	}
	return sb.String()
}

func quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', ',', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// ParseArgs tokenizes a comma separated list of mixed integer and quoted
// string arguments, e.g. `3,"Home",-45`. Backslash escapes inside quoted
// strings are resolved. Returned strings never alias b.
func ParseArgs(b []byte) ([]Arg, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}
	var args []Arg
	i := 0
	for {
		if i < len(b) && b[i] == '"' {
			s, n, err := unquote(b[i:])
			if err != nil {
				return nil, err
			}
			args = append(args, String(s))
			i += n
		} else {
			j := i
			for j < len(b) && b[j] != ',' {
				j++
			}
			tok := bytes.TrimSpace(b[i:j])
			v, err := strconv.Atoi(string(tok))
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not an integer", ErrSyntax, tok)
			}
			args = append(args, Int(v))
			i = j
		}

		if i == len(b) {
			return args, nil
		}
		if b[i] != ',' {
			return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, b[i], i)
		}
		i++
	}
}

// unquote reads a quoted string starting at b[0] and reports how many bytes
// it consumed including both quotes.
func unquote(b []byte) (string, int, error) {
	var sb strings.Builder
	for k := 1; k < len(b); k++ {
		c := b[k]
		if c == '\\' && k+1 < len(b) {
			k++
			sb.WriteByte(b[k])
			continue
		}
		if c == '"' {
			return sb.String(), k + 1, nil
		}
		sb.WriteByte(c)
	}
	return "", 0, ErrUnterminatedString
}
