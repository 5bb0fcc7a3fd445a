package redirects

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCyclicRedirect   = errors.New("redirects: cyclic redirect")
	ErrRedirectLoop     = errors.New("redirects: redirect chain exceeds hop limit")
	ErrDuplicateRule    = errors.New("redirects: duplicate source")
	ErrDanglingRedirect = errors.New("redirects: target does not exist")
	ErrInvalidRule      = errors.New("redirects: invalid rule")
)

// CyclicRedirectError is raised at construction when following a rule's
// target leads back to that rule.
type CyclicRedirectError struct {
	// Chain lists the rule sources in visiting order, ending with the source
	// that closes the cycle.
	Chain []string
}

func (e *CyclicRedirectError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCyclicRedirect.Error(), strings.Join(e.Chain, " -> "))
}

func (e *CyclicRedirectError) Unwrap() error {
	return ErrCyclicRedirect
}

// RedirectLoopError is raised at resolution time when a chain needs more
// than the configured number of hops.
type RedirectLoopError struct {
	Path    string
	MaxHops int
}

func (e *RedirectLoopError) Error() string {
	return fmt.Sprintf("%s: %s (max %d hops)", ErrRedirectLoop.Error(), e.Path, e.MaxHops)
}

func (e *RedirectLoopError) Unwrap() error {
	return ErrRedirectLoop
}

// DuplicateRuleError reports two rules sharing a source pattern.
type DuplicateRuleError struct {
	Source string
	Origin string
}

func (e *DuplicateRuleError) Error() string {
	if e.Origin != "" {
		return fmt.Sprintf("%s: %s (%s)", ErrDuplicateRule.Error(), e.Source, e.Origin)
	}
	return fmt.Sprintf("%s: %s", ErrDuplicateRule.Error(), e.Source)
}

func (e *DuplicateRuleError) Unwrap() error {
	return ErrDuplicateRule
}

// DanglingRedirectError reports a rule whose target is neither a route, a
// rule source nor an external URL.
type DanglingRedirectError struct {
	Rule Rule
}

func (e *DanglingRedirectError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrDanglingRedirect.Error(), e.Rule.Source, e.Rule.Target)
}

func (e *DanglingRedirectError) Unwrap() error {
	return ErrDanglingRedirect
}

// InvalidRuleError reports a rule that cannot be interpreted.
type InvalidRuleError struct {
	Rule   Rule
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("%s: %q -> %q: %s", ErrInvalidRule.Error(), e.Rule.Source, e.Rule.Target, e.Reason)
}

func (e *InvalidRuleError) Unwrap() error {
	return ErrInvalidRule
}
