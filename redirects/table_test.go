package redirects

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routeSet map[string]bool

func (s routeSet) Has(p string) bool { return s[p] }

func TestResolve_ExactRule(t *testing.T) {
	table, err := New([]Rule{{Source: "/old-post", Target: "/posts/new-post"}})
	require.NoError(t, err)

	res, err := table.Resolve("/old-post/")
	require.NoError(t, err)
	assert.Equal(t, Resolution{Path: "/posts/new-post", Matched: true, Hops: 1, Intent: Permanent}, res)
}

func TestResolve_IdempotentOnCanonicalPaths(t *testing.T) {
	table, err := New([]Rule{{Source: "/old-post", Target: "/posts/new-post"}})
	require.NoError(t, err)

	for _, p := range []string{"/posts/new-post", "/", "/unknown"} {
		res, err := table.Resolve(p)
		require.NoError(t, err)
		assert.False(t, res.Matched)
		assert.Equal(t, p, res.Path)
	}
}

func chain(n int) []Rule {
	rules := make([]Rule, 0, n)
	for i := 0; i < n; i++ {
		rules = append(rules, Rule{Source: hopPath(i), Target: hopPath(i + 1)})
	}
	return rules
}

func hopPath(i int) string {
	return "/hop/" + string(rune('a'+i))
}

func TestResolve_HopBound(t *testing.T) {
	table, err := New(chain(DefaultMaxHops))
	require.NoError(t, err)
	res, err := table.Resolve(hopPath(0))
	require.NoError(t, err)
	assert.Equal(t, hopPath(DefaultMaxHops), res.Path)
	assert.Equal(t, DefaultMaxHops, res.Hops)

	table, err = New(chain(DefaultMaxHops + 1))
	require.NoError(t, err)
	_, err = table.Resolve(hopPath(0))
	var loop *RedirectLoopError
	require.ErrorAs(t, err, &loop)
	assert.Equal(t, DefaultMaxHops, loop.MaxHops)
	assert.ErrorIs(t, err, ErrRedirectLoop)

	table, err = New(chain(DefaultMaxHops+1), WithMaxHops(DefaultMaxHops+1))
	require.NoError(t, err)
	res, err = table.Resolve(hopPath(0))
	require.NoError(t, err)
	assert.Equal(t, hopPath(DefaultMaxHops+1), res.Path)
}

func TestNew_RejectsCycles(t *testing.T) {
	tests := []struct {
		name  string
		rules []Rule
	}{
		{"two node", []Rule{{Source: "/a", Target: "/b"}, {Source: "/b", Target: "/a"}}},
		{"self", []Rule{{Source: "/a", Target: "/a/"}}},
		{"three node", []Rule{{Source: "/a", Target: "/b"}, {Source: "/b", Target: "/c"}, {Source: "/c", Target: "/a"}}},
		{"prefix", []Rule{{Source: "/x/*", Target: "/y/*"}, {Source: "/y/*", Target: "/x/*"}}},
		{"catch-all", []Rule{{Source: "/*", Target: "/home"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.rules)
			var cyclic *CyclicRedirectError
			require.ErrorAs(t, err, &cyclic)
			assert.GreaterOrEqual(t, len(cyclic.Chain), 2)
			last := cyclic.Chain[len(cyclic.Chain)-1]
			assert.Contains(t, cyclic.Chain[:len(cyclic.Chain)-1], last)
			assert.ErrorIs(t, err, ErrCyclicRedirect)
		})
	}
}

func TestResolve_PrefixRules(t *testing.T) {
	table, err := New([]Rule{
		{Source: "/blog/*", Target: "/posts/*"},
		{Source: "/blog/archive/*", Target: "/archive", Intent: Temporary},
		{Source: "/docs/*", Target: "/manual"},
	})
	require.NoError(t, err)

	tests := []struct {
		in     string
		want   string
		intent Intent
	}{
		{"/blog/hello", "/posts/hello", Permanent},
		{"/blog", "/posts", Permanent},
		{"/blog/archive/2019/x", "/archive", Temporary},
		{"/docs/a/b", "/manual", Permanent},
		{"/blogger", "/blogger", Permanent},
	}
	for _, tt := range tests {
		res, err := table.Resolve(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, res.Path, tt.in)
		assert.Equal(t, tt.intent, res.Intent, tt.in)
	}
}

func TestResolve_Precedence(t *testing.T) {
	rules := []Rule{
		{Source: "/blog/special", Target: "/special"},
		{Source: "/blog/*", Target: "/posts/*"},
	}

	table, err := New(rules)
	require.NoError(t, err)
	res, _ := table.Resolve("/blog/special")
	assert.Equal(t, "/special", res.Path)

	table, err = New(rules, WithPrecedence(PrecedencePrefixFirst))
	require.NoError(t, err)
	res, _ = table.Resolve("/blog/special")
	assert.Equal(t, "/posts/special", res.Path)
}

func TestResolve_ExternalTarget(t *testing.T) {
	table, err := New([]Rule{
		{Source: "/gh", Target: "/github"},
		{Source: "/github", Target: "https://github.com/eringen", Intent: Temporary},
	})
	require.NoError(t, err)
	res, err := table.Resolve("/gh")
	require.NoError(t, err)
	assert.True(t, res.External)
	assert.Equal(t, "https://github.com/eringen", res.Path)
	assert.Equal(t, 2, res.Hops)
	assert.Equal(t, Temporary, res.Intent)
}

func TestNew_Validation(t *testing.T) {
	_, err := New([]Rule{{Source: "/a", Target: "/b"}, {Source: "/a/", Target: "/c"}})
	assert.ErrorIs(t, err, ErrDuplicateRule)

	_, err = New([]Rule{{Source: "a", Target: "/b"}})
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = New([]Rule{{Source: "/a", Target: "/b/*"}})
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = New([]Rule{{Source: "/a", Target: "ftp://example.com"}})
	assert.ErrorIs(t, err, ErrInvalidRule)

	routes := routeSet{"/posts/new-post": true}
	_, err = New([]Rule{{Source: "/old", Target: "/posts/new-post"}, {Source: "/older", Target: "/old"}}, WithRoutes(routes))
	assert.NoError(t, err)

	_, err = New([]Rule{{Source: "/old", Target: "/posts/gone", Origin: "redirects.yaml#1"}}, WithRoutes(routes))
	var dangling *DanglingRedirectError
	require.ErrorAs(t, err, &dangling)
	assert.Equal(t, "redirects.yaml#1", dangling.Rule.Origin)
}

func TestLoad_YAMLAndTOML(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "redirects.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`redirects:
  - from: /old-post
    to: /posts/new-post
  - from: /tmp
    to: /posts/new-post
    intent: temporary
  - from: /legacy/*
    to: /posts/*
    status: 302
`), 0o644))

	rules, err := Load(yamlPath)
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, Permanent, rules[0].Intent)
	assert.Equal(t, Temporary, rules[1].Intent)
	assert.Equal(t, Temporary, rules[2].Intent)
	assert.Equal(t, "redirects.yaml#2", rules[1].Origin)

	tomlPath := filepath.Join(dir, "redirects.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`
[[redirects]]
from = "/old-post"
to = "/posts/new-post"
intent = "permanent"
`), 0o644))
	rules, err = Load(tomlPath)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "/posts/new-post", rules[0].Target)

	rules, err = Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, rules)

	_, err = Parse([]byte("redirects:\n  - from: /a\n    to: /b\n    intent: forever\n"), FormatYAML, "inline")
	assert.ErrorIs(t, err, ErrInvalidRule)
}
