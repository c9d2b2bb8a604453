// Package extract converts resume PDFs into normalized plain text.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dslipak/pdf"
)

// Error reports that a byte sequence could not be turned into resume text:
// either it is not a parseable PDF or it has no extractable text layer
// (a scanned image with no OCR layer, typically).
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract resume text: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extract resume text: %s", e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Text extracts the text layer of a PDF, collapses newlines to single spaces,
// and trims surrounding whitespace. A PDF with no extractable text fails
// rather than returning an empty string: feeding empty text to the LLM parser
// produces misleading structured output downstream.
func Text(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", &Error{Reason: "empty input"}
	}

	// The pdf reader panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &Error{Reason: "not a parseable PDF", Err: fmt.Errorf("%v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &Error{Reason: "not a parseable PDF", Err: err}
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", &Error{Reason: "no extractable text layer", Err: err}
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", &Error{Reason: "failed to read text layer", Err: err}
	}

	text = Normalize(buf.String())
	if text == "" {
		return "", &Error{Reason: "no extractable text layer"}
	}
	return text, nil
}

// Normalize collapses newlines to single spaces and trims leading/trailing
// whitespace.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
