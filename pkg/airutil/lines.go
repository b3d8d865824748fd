package airutil

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// ReadError is returned when an input list
// could not be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading %s: %s", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

var errInvalidUTF8 = errors.New("invalid utf-8")

// ReadLines appends the lines of each file to initial.
// Blank lines and lines starting with '#' are skipped.
func ReadLines(initial []string, paths ...string) ([]string, error) {
	out := initial
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &ReadError{Path: path, Err: err}
		}
		if !utf8.Valid(data) {
			return nil, &ReadError{Path: path, Err: errInvalidUTF8}
		}
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			out = append(out, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, &ReadError{Path: path, Err: err}
		}
	}
	return out, nil
}
