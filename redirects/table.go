// Package redirects resolves legacy and alias paths to canonical routes.
//
// A Table is built once from declarative rules, validated for cycles, and is
// read-only afterwards. Resolution is a pure function of the table.
package redirects

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/eringen/pubnav/registry"
)

// DefaultMaxHops bounds how many chained rules a single resolution follows.
const DefaultMaxHops = 5

// Intent is the status intent of a rule.
type Intent int

const (
	Permanent Intent = iota
	Temporary
)

func (i Intent) String() string {
	if i == Temporary {
		return "temporary"
	}
	return "permanent"
}

// StatusCode maps the intent to the HTTP redirect status.
func (i Intent) StatusCode() int {
	if i == Temporary {
		return http.StatusFound
	}
	return http.StatusMovedPermanently
}

// ParseIntent accepts "permanent"/"temporary", their HTTP status codes, or
// an empty string (permanent).
func ParseIntent(s string) (Intent, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "permanent", "301", "308":
		return Permanent, nil
	case "temporary", "302", "307":
		return Temporary, nil
	default:
		return Permanent, fmt.Errorf("unknown redirect intent %q", s)
	}
}

// Precedence decides between an exact rule and a prefix rule that both match.
type Precedence int

const (
	// PrecedenceExactFirst consults exact rules before any prefix rule.
	PrecedenceExactFirst Precedence = iota
	// PrecedencePrefixFirst lets the longest matching prefix rule win over an
	// exact rule.
	PrecedencePrefixFirst
)

// ParsePrecedence reads "exact-first" or "prefix-first".
func ParsePrecedence(s string) (Precedence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact-first":
		return PrecedenceExactFirst, nil
	case "prefix-first":
		return PrecedencePrefixFirst, nil
	default:
		return PrecedenceExactFirst, fmt.Errorf("unknown redirect precedence %q", s)
	}
}

// Rule maps a source pattern to a target. A source ending in "/*" is a prefix
// rule; a prefix rule whose target also ends in "/*" carries the remainder of
// the matched path over to the target.
type Rule struct {
	Source string
	Target string
	Intent Intent
	// Origin names where the rule was declared, for diagnostics.
	Origin string
}

// Resolution is the outcome of resolving a path.
type Resolution struct {
	Path     string
	Matched  bool
	External bool
	Hops     int
	// Intent is Temporary when any hop of the chain was temporary.
	Intent Intent
}

// Known reports whether a path is an existing route.
type Known interface {
	Has(path string) bool
}

type compiled struct {
	Rule
	prefix   string
	wildcard bool
}

// Table holds validated rules.
type Table struct {
	rules      []Rule
	exact      map[string]*compiled
	prefixes   []*compiled
	maxHops    int
	precedence Precedence
}

type config struct {
	maxHops    int
	precedence Precedence
	known      Known
}

// Option configures New.
type Option func(*config)

// WithMaxHops sets the resolution hop bound (default 5).
func WithMaxHops(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxHops = n
		}
	}
}

// WithPrecedence sets exact/prefix precedence.
func WithPrecedence(p Precedence) Option {
	return func(c *config) {
		c.precedence = p
	}
}

// WithRoutes makes New reject internal targets that are neither a known
// route nor the source of another rule.
func WithRoutes(known Known) Option {
	return func(c *config) {
		c.known = known
	}
}

// New compiles and validates rules.
func New(rules []Rule, opts ...Option) (*Table, error) {
	cfg := config{maxHops: DefaultMaxHops}
	for _, opt := range opts {
		opt(&cfg)
	}

	t := &Table{
		exact:      make(map[string]*compiled),
		maxHops:    cfg.maxHops,
		precedence: cfg.precedence,
	}
	seenPrefix := make(map[string]bool)
	for _, r := range rules {
		c, err := compile(r)
		if err != nil {
			return nil, err
		}
		if c.prefix != "" {
			if seenPrefix[c.prefix] {
				return nil, &DuplicateRuleError{Source: c.Source, Origin: c.Origin}
			}
			seenPrefix[c.prefix] = true
			t.prefixes = append(t.prefixes, c)
		} else {
			if _, ok := t.exact[c.Source]; ok {
				return nil, &DuplicateRuleError{Source: c.Source, Origin: c.Origin}
			}
			t.exact[c.Source] = c
		}
		t.rules = append(t.rules, c.Rule)
	}
	sort.SliceStable(t.prefixes, func(i, j int) bool {
		return len(t.prefixes[i].prefix) > len(t.prefixes[j].prefix)
	})

	if err := t.checkCycles(); err != nil {
		return nil, err
	}
	if cfg.known != nil {
		if err := t.checkTargets(cfg.known); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func compile(r Rule) (*compiled, error) {
	src := strings.TrimSpace(r.Source)
	dst := strings.TrimSpace(r.Target)
	switch {
	case src == "" || dst == "":
		return nil, &InvalidRuleError{Rule: r, Reason: "source and target are required"}
	case !strings.HasPrefix(src, "/"):
		return nil, &InvalidRuleError{Rule: r, Reason: "source must be a site path"}
	}

	c := &compiled{Rule: r}
	if strings.HasSuffix(src, "/*") {
		base := registry.CleanPath(strings.TrimSuffix(src, "*"))
		if strings.Contains(base, "*") {
			return nil, &InvalidRuleError{Rule: r, Reason: "wildcard is only allowed as a trailing /*"}
		}
		c.prefix = strings.TrimSuffix(base, "/") + "/"
		c.Source = c.prefix + "*"
	} else {
		if strings.Contains(src, "*") {
			return nil, &InvalidRuleError{Rule: r, Reason: "wildcard is only allowed as a trailing /*"}
		}
		c.Source = registry.CleanPath(src)
	}

	if isExternal(dst) {
		c.Target = dst
		return c, nil
	}
	if !strings.HasPrefix(dst, "/") {
		return nil, &InvalidRuleError{Rule: r, Reason: "target must be a site path or an absolute http(s) URL"}
	}
	if strings.HasSuffix(dst, "/*") {
		if c.prefix == "" {
			return nil, &InvalidRuleError{Rule: r, Reason: "wildcard target requires a prefix source"}
		}
		c.wildcard = true
		c.Target = strings.TrimSuffix(registry.CleanPath(strings.TrimSuffix(dst, "*")), "/") + "/*"
		return c, nil
	}
	c.Target = registry.CleanPath(dst)
	return c, nil
}

func isExternal(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// matches reports whether p falls under the prefix rule, returning the
// remainder after the prefix.
func (c *compiled) matches(p string) (string, bool) {
	if c.prefix == "/" {
		return strings.TrimPrefix(p, "/"), true
	}
	if p == strings.TrimSuffix(c.prefix, "/") {
		return "", true
	}
	if strings.HasPrefix(p, c.prefix) {
		return strings.TrimPrefix(p, c.prefix), true
	}
	return "", false
}

func (c *compiled) apply(remainder string) string {
	if !c.wildcard {
		return c.Target
	}
	return registry.CleanPath(strings.TrimSuffix(c.Target, "*") + remainder)
}

// match finds the rule governing p and the path it redirects to.
func (t *Table) match(p string) (*compiled, string, bool) {
	exact, hasExact := t.exact[p]
	if hasExact && t.precedence == PrecedenceExactFirst {
		return exact, exact.Target, true
	}
	for _, c := range t.prefixes {
		if rest, ok := c.matches(p); ok {
			return c, c.apply(rest), true
		}
	}
	if hasExact {
		return exact, exact.Target, true
	}
	return nil, "", false
}

// Resolve follows the rules matching path. A path no rule matches resolves to
// itself with Matched false.
func (t *Table) Resolve(path string) (Resolution, error) {
	start := registry.CleanPath(path)
	res := Resolution{Path: start}
	cur := start
	for {
		c, next, ok := t.match(cur)
		if !ok {
			break
		}
		if res.Hops == t.maxHops {
			return Resolution{}, &RedirectLoopError{Path: start, MaxHops: t.maxHops}
		}
		res.Hops++
		res.Matched = true
		if c.Intent == Temporary {
			res.Intent = Temporary
		}
		if isExternal(next) {
			res.Path = next
			res.External = true
			return res, nil
		}
		cur = next
	}
	res.Path = cur
	return res, nil
}

// checkCycles walks the chain starting at every rule and fails when a rule
// is reached twice. Prefix rules are checked against their bare prefix.
func (t *Table) checkCycles() error {
	starts := make([]string, 0, len(t.rules))
	for _, c := range t.prefixes {
		starts = append(starts, registry.CleanPath(c.prefix))
	}
	for _, r := range t.rules {
		if !strings.HasSuffix(r.Source, "/*") {
			starts = append(starts, r.Source)
		}
	}
	sort.Strings(starts)

	for _, start := range starts {
		visited := make(map[*compiled]bool)
		var chain []string
		cur := start
		for {
			c, next, ok := t.match(cur)
			if !ok {
				break
			}
			chain = append(chain, c.Source)
			if visited[c] {
				return &CyclicRedirectError{Chain: chain}
			}
			visited[c] = true
			if isExternal(next) {
				break
			}
			cur = next
		}
	}
	return nil
}

func (t *Table) checkTargets(known Known) error {
	for _, r := range t.rules {
		if isExternal(r.Target) || strings.HasSuffix(r.Target, "/*") {
			continue
		}
		if known.Has(r.Target) {
			continue
		}
		if _, _, ok := t.match(r.Target); ok {
			continue
		}
		return &DanglingRedirectError{Rule: r}
	}
	return nil
}

// Rules returns the compiled rules in declaration order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Len returns the number of rules.
func (t *Table) Len() int {
	return len(t.rules)
}

// MaxHops returns the resolution hop bound.
func (t *Table) MaxHops() int {
	return t.maxHops
}

// FromAliases converts frontmatter aliases into permanent rules.
func FromAliases(aliases []registry.Alias) []Rule {
	rules := make([]Rule, 0, len(aliases))
	for _, a := range aliases {
		rules = append(rules, Rule{
			Source: a.From,
			Target: a.To,
			Intent: Permanent,
			Origin: a.File + " (aliases)",
		})
	}
	return rules
}
