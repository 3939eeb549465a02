// Package canary renders arbitrary values as bounded, human-readable text for
// trace output.
//
// Values are rendered with the following notation, elements and entries
// being rendered the same way to any depth:
//
//	slice or array   [element1, element2, element3]
//	collection       (element1, element2, element3)
//	map              {key1 => value1, key2 => value2}
//	nil, Char(0)     null
//	anything else    fmt.Sprint(value)
//
// Containers stop rendering once their text exceeds the maximum length and
// are then left unclosed.
package canary

import (
	"fmt"
	"io"
	"unicode/utf8"
)

// DefaultMaxLength is the maximum length used when none is configured.
const DefaultMaxLength = 200

// Ellipsis is appended to lines cut by Truncate.
const Ellipsis = "..."

// Represent renders value alone.
func Represent(value any, max int) (string, error) {
	return NewRenderer(max).Represent(value)
}

// Render renders value as "<identifier>: <representation>", truncated to max
// characters.
func Render(identifier string, value any, max int) (string, error) {
	repr, err := Represent(value, max)
	if err != nil {
		return "", fmt.Errorf("error rendering %s: %w", identifier, err)
	}
	return Truncate(identifier+": "+repr, max), nil
}

func Write(w io.Writer, identifier string, value any, max int) error {
	line, err := Render(identifier, value, max)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, line)
	return err
}

// Truncate cuts s to max characters and appends Ellipsis when anything was
// cut. The ellipsis is not counted in max.
func Truncate(s string, max int) string {
	if max < 0 {
		max = 0
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	end := 0
	for range max {
		_, size := utf8.DecodeRuneInString(s[end:])
		end += size
	}
	return s[:end] + Ellipsis
}
