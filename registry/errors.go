package registry

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedFrontmatter = errors.New("registry: malformed frontmatter")
	ErrDuplicateRoute       = errors.New("registry: duplicate route")
)

// MalformedFrontmatterError reports a content file whose header is missing,
// lacks a required field or carries a value that does not parse.
type MalformedFrontmatterError struct {
	File  string
	Field string
	Err   error
}

func (e *MalformedFrontmatterError) Error() string {
	if e == nil {
		return ErrMalformedFrontmatter.Error()
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: field %q: %v", ErrMalformedFrontmatter.Error(), e.File, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrMalformedFrontmatter.Error(), e.File, e.Err)
}

func (e *MalformedFrontmatterError) Unwrap() []error {
	if e == nil || e.Err == nil {
		return []error{ErrMalformedFrontmatter}
	}
	return []error{ErrMalformedFrontmatter, e.Err}
}

// DuplicateRouteError reports two sources claiming the same path. Second is
// the later file in lexical order, or an alias declaration.
type DuplicateRouteError struct {
	Path   string
	First  string
	Second string
}

func (e *DuplicateRouteError) Error() string {
	if e == nil {
		return ErrDuplicateRoute.Error()
	}
	return fmt.Sprintf("%s: %s claimed by %s and %s", ErrDuplicateRoute.Error(), e.Path, e.First, e.Second)
}

func (e *DuplicateRouteError) Unwrap() error {
	return ErrDuplicateRoute
}
