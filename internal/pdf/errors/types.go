package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ExtractionError is a non-fatal failure in one stage of text acquisition.
// It carries enough context to be shown to an operator as a warning.
type ExtractionError struct {
	Stage    Stage  `json:"stage"`
	Document string `json:"document,omitempty"`
	Page     int    `json:"page,omitempty"`
	Err      error  `json:"-"`
}

// Stage identifies where in the pipeline an error happened.
type Stage int

const (
	StageUnknown Stage = iota
	StageValidate
	StageOpen
	StagePageText
	StageTables
	StageRender
	StageOCR
)

// Severity indicates how an error affects the extracted record.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a string representation of the Stage
func (s Stage) String() string {
	switch s {
	case StageValidate:
		return "VALIDATE"
	case StageOpen:
		return "OPEN"
	case StagePageText:
		return "PAGE_TEXT"
	case StageTables:
		return "TABLES"
	case StageRender:
		return "RENDER"
	case StageOCR:
		return "OCR"
	default:
		return "UNKNOWN"
	}
}

// Severity returns the severity level for a stage. A failed page or table
// only degrades a document; a failed open, render or OCR can leave it
// without text.
func (s Stage) Severity() Severity {
	switch s {
	case StageValidate:
		return SeverityInfo
	case StagePageText, StageTables:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// Error implements the error interface
func (e *ExtractionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", e.Stage)
	if e.Document != "" {
		fmt.Fprintf(&b, " %s", e.Document)
	}
	if e.Page > 0 {
		fmt.Fprintf(&b, " page %d", e.Page)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsRecoverable reports whether processing can continue after the error.
// Every acquisition stage is recoverable: a document that loses all of its
// text still yields a defaulted record.
func (e *ExtractionError) IsRecoverable() bool {
	return true
}

// New creates an ExtractionError for a stage.
func New(stage Stage, err error) *ExtractionError {
	return &ExtractionError{Stage: stage, Err: err}
}

// Newf creates an ExtractionError with a formatted cause.
func Newf(stage Stage, format string, args ...interface{}) *ExtractionError {
	return &ExtractionError{Stage: stage, Err: fmt.Errorf(format, args...)}
}

// WithPage adds page number information to an existing ExtractionError
func (e *ExtractionError) WithPage(page int) *ExtractionError {
	e.Page = page
	return e
}

// WithDocument adds the document name to an existing ExtractionError
func (e *ExtractionError) WithDocument(name string) *ExtractionError {
	e.Document = name
	return e
}

// StageOf returns the stage of err if it wraps an ExtractionError.
func StageOf(err error) Stage {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Stage
	}
	return StageUnknown
}

// Collection accumulates the warnings of one document.
type Collection struct {
	Document string
	errs     []error
}

// NewCollection creates a new error collection
func NewCollection(document string) *Collection {
	return &Collection{Document: document}
}

// Add records err. ExtractionErrors without a document name inherit the
// collection's. Nil errors are ignored.
func (c *Collection) Add(err error) {
	if err == nil {
		return
	}
	var ee *ExtractionError
	if errors.As(err, &ee) && ee.Document == "" {
		ee.Document = c.Document
	}
	c.errs = append(c.errs, err)
}

// Errors returns the recorded errors in the order they were added.
func (c *Collection) Errors() []error {
	return c.errs
}

// Len returns the number of recorded errors.
func (c *Collection) Len() int {
	return len(c.errs)
}

// Has reports whether any recorded error belongs to stage.
func (c *Collection) Has(stage Stage) bool {
	for _, err := range c.errs {
		if StageOf(err) == stage {
			return true
		}
	}
	return false
}

// Summary returns a text summary of the recorded errors
func (c *Collection) Summary() string {
	if len(c.errs) == 0 {
		return "No warnings"
	}
	return fmt.Sprintf("Found %d warning(s)", len(c.errs))
}
