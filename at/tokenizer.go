package at

import (
	"bufio"
	"bytes"
	"iter"
	"strings"
)

// Splitter is used for tokenizing AT command modem responses. It uses
// the signature of bufio.SplitFunc so it can be directly used with bufio.Scanner.
//
// It splits the input by CRLF line endings and also
// recognizes the data input prompt ("> ").
//
// The atEOF parameter indicates whether any more data will be available.
// When true, any remaining data is returned as the final token.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	// 1. Match data prompt
	if bytes.HasPrefix(data, []byte(Prompt)) {
		return len(Prompt), data[0:len(Prompt)], nil
	}

	// 2. Match standard line ending with CRLF
	if i := bytes.Index(data, []byte(CRLF)); i >= 0 {
		return i + len(CRLF), data[0:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter

// Classify identifies the nature of the modem output
func Classify(line string) ResponseType {
	if line == Prompt || line == ">" {
		return TypePrompt
	}

	// Direct matches for final results
	switch line {
	case OK, ERROR, FAIL, SendOK, SendFail:
		return TypeFinal
	case BusyP, BusyS:
		return TypeBusy
	case UrcReady:
		return TypeURC
	}

	if strings.HasPrefix(line, UrcWifi) {
		return TypeURC
	}
	return TypeData
}

// Lines yields every non-empty line of buf. Lines are split on '\n' only; a
// trailing '\r' is not part of the yielded line. Each call rescans buf from the
// start and the yielded slices alias buf.
func Lines(buf []byte) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		rest := buf
		for len(rest) > 0 {
			var line []byte
			if i := bytes.IndexByte(rest, '\n'); i >= 0 {
				line, rest = rest[:i], rest[i+1:]
			} else {
				line, rest = rest, nil
			}
			line = bytes.TrimSuffix(line, []byte{'\r'})
			if len(line) == 0 {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}
