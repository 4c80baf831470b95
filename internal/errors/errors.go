// Package errors provides the error handling used across herdwatch-go.
// It re-exports the standard library helpers so callers need a single import,
// and adds a builder that attaches a component, a category, and key/value
// context to errors for structured logging and failure-domain routing.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Category classifies an error by its failure domain. Network and
// notification errors are contained at their origin; storage errors abort
// the operation; only storage initialization failures are fatal.
type Category string

const (
	CategoryNetwork      Category = "network"
	CategoryStorage      Category = "storage"
	CategoryNotification Category = "notification"
	CategoryValidation   Category = "validation"
	CategoryConfig       Category = "config"
	CategoryGeneric      Category = "generic"
)

// Standard library re-exports.
var (
	Is     = errors.Is
	As     = errors.As
	New    = errors.New
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// EnhancedError carries a component, category, and context alongside the
// underlying error.
type EnhancedError struct {
	Err       error
	Comp      string
	Cat       Category
	ContextKV map[string]any
}

// Error renders the underlying message with context pairs appended.
// Context order is unspecified; it is meant for logs, not parsing.
func (e *EnhancedError) Error() string {
	if len(e.ContextKV) == 0 {
		return e.Err.Error()
	}
	var sb strings.Builder
	sb.WriteString(e.Err.Error())
	for k, v := range e.ContextKV {
		fmt.Fprintf(&sb, " %s=%v", k, v)
	}
	return sb.String()
}

func (e *EnhancedError) Unwrap() error { return e.Err }

// GetCategory returns the category of err, or CategoryGeneric when err is not
// an EnhancedError.
func GetCategory(err error) Category {
	var ee *EnhancedError
	if errors.As(err, &ee) {
		return ee.Cat
	}
	return CategoryGeneric
}

// GetComponent returns the component that produced err, or "" when unknown.
func GetComponent(err error) string {
	var ee *EnhancedError
	if errors.As(err, &ee) {
		return ee.Comp
	}
	return ""
}

// Builder assembles an EnhancedError fluently.
type Builder struct {
	e *EnhancedError
}

// Newf starts a builder from a formatted message.
func Newf(format string, args ...any) *Builder {
	return &Builder{e: &EnhancedError{
		Err: fmt.Errorf(format, args...),
		Cat: CategoryGeneric,
	}}
}

// Wrap starts a builder around an existing error.
func Wrap(err error) *Builder {
	return &Builder{e: &EnhancedError{
		Err: err,
		Cat: CategoryGeneric,
	}}
}

// Component records which subsystem produced the error.
func (b *Builder) Component(name string) *Builder {
	b.e.Comp = name
	return b
}

// Category records the failure domain.
func (b *Builder) Category(cat Category) *Builder {
	b.e.Cat = cat
	return b
}

// Context attaches a key/value pair for structured logging.
func (b *Builder) Context(key string, value any) *Builder {
	if b.e.ContextKV == nil {
		b.e.ContextKV = make(map[string]any)
	}
	b.e.ContextKV[key] = value
	return b
}

// Build finalizes the error.
func (b *Builder) Build() error {
	return b.e
}
