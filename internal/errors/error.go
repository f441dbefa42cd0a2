package errors

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig    Category = "config"
	CategoryRuntime   Category = "runtime"
	CategoryTransport Category = "transport"
	CategoryStorage   Category = "storage"
	CategoryCLI       Category = "cli"
)

// Location is a position in a file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// TetherError is a structured error with an optional file location and a
// suggestion.
type TetherError struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is where in a file the error occurred.
	Location *Location

	// Context contains the lines around Location.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *TetherError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *TetherError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds a file location and reads the lines around it.
func (e *TetherError) WithLocation(file string, line, column int) *TetherError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// WithLocationFromError takes the line number out of a YAML parse error
// ("yaml: line 3: mapping values are not allowed in this context").
func (e *TetherError) WithLocationFromError(file string, err error) *TetherError {
	if err == nil {
		return e
	}
	m := yamlLine.FindStringSubmatch(err.Error())
	if m == nil {
		return e
	}
	if line, _ := strconv.Atoi(m[1]); line > 0 {
		e.WithLocation(file, line, 0)
	}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *TetherError) WithSuggestion(s string) *TetherError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *TetherError) WithDetail(d string) *TetherError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *TetherError) Wrap(err error) *TetherError {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around the specified line number from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}

// New creates a TetherError from a registered error code.
func New(code string) *TetherError {
	template, ok := GetTemplate(code)
	if !ok {
		return &TetherError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &TetherError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new TetherError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *TetherError {
	return &TetherError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a TetherError.
func FromError(err error, code string) *TetherError {
	if err == nil {
		return nil
	}
	if te, ok := err.(*TetherError); ok {
		return te
	}
	return New(code).Wrap(err)
}
