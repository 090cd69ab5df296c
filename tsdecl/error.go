package tsdecl

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/notion-schema/errors"
)

// LoadError is a fatal lexing or parsing error with its source position.
// It matches errors.ErrLoad under errors.Is.
type LoadError struct {
	Path    string // file the library was read from, if any
	Message string
	Line    int    // 1-based
	Col     int    // 1-based
	Offset  int    // byte offset
	Snippet string // the offending source line
}

func newLoadError(source string, line, col, offset int, format string, args ...any) *LoadError {
	return &LoadError{
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Col:     col,
		Offset:  offset,
		Snippet: sourceLine(source, offset),
	}
}

func newLoadErrorAt(source string, tok Token, format string, args ...any) *LoadError {
	return newLoadError(source, tok.Line, tok.Col, tok.Pos, format, args...)
}

// Error implements error.
func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Col, e.Message)
	}
	return fmt.Sprintf("line %d col %d: %s", e.Line, e.Col, e.Message)
}

// Unwrap returns errors.ErrLoad.
func (e *LoadError) Unwrap() error {
	return errors.ErrLoad
}

// FormatTerminal renders the error with the offending line and a caret.
func (e *LoadError) FormatTerminal() string {
	var sb strings.Builder

	location := fmt.Sprintf("line %d, col %d", e.Line, e.Col)
	if e.Path != "" {
		location = fmt.Sprintf("%s:%d:%d", e.Path, e.Line, e.Col)
	}
	sb.WriteString(pterm.Red(e.Message))
	sb.WriteString("\n  ")
	sb.WriteString(pterm.Gray(location))

	if e.Snippet != "" {
		sb.WriteString("\n\n  ")
		sb.WriteString(e.Snippet)
		sb.WriteString("\n  ")
		sb.WriteString(strings.Repeat(" ", max(e.Col-1, 0)))
		sb.WriteString(pterm.Yellow("^"))
	}

	return sb.String()
}

// sourceLine returns the line containing offset, tabs expanded to one space
// so the caret lines up with the column.
func sourceLine(source string, offset int) string {
	if offset > len(source) {
		offset = len(source)
	}
	start := strings.LastIndexByte(source[:offset], '\n') + 1
	end := strings.IndexByte(source[offset:], '\n')
	if end < 0 {
		end = len(source)
	} else {
		end += offset
	}
	line := strings.TrimRight(source[start:end], "\r")
	return strings.ReplaceAll(line, "\t", " ")
}
