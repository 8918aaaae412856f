// Package segment splits local novel text files into chapter records.
package segment

import "fmt"

// DecodeError means no candidate character encoding produced a clean decode
// of the file. The file is skipped, never partially imported.
type DecodeError struct {
	Path string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: no candidate encoding matched %s", e.Path)
}

// NoChaptersError means the heading pattern matched nothing in the document.
type NoChaptersError struct {
	Path string
}

func (e *NoChaptersError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("no chapter headings found in %s", e.Path)
	}
	return "no chapter headings found"
}
