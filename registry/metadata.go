package registry

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Content types recognised in the "type" (or "category") header field.
const (
	TypePost    = "post"
	TypePage    = "page"
	TypeProject = "project"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Metadata is the typed form of a content file's frontmatter.
type Metadata struct {
	Title       string
	Description string
	Image       string
	ImageWidth  int
	ImageHeight int
	Tags        []string
	// Date is a calendar date at UTC midnight; zero when absent.
	Date        time.Time
	Duration    time.Duration
	Type        string
	Development bool
	Layout      string
	Wide        bool
	TOC         bool
	Slug        string
	Aliases     []string
}

// HasDate reports whether a publish date was given.
func (m Metadata) HasDate() bool {
	return !m.Date.IsZero()
}

func (m Metadata) clone() Metadata {
	m.Tags = slices.Clone(m.Tags)
	m.Aliases = slices.Clone(m.Aliases)
	return m
}

type envelope struct {
	Title       string   `yaml:"title" toml:"title" json:"title"`
	Date        any      `yaml:"date" toml:"date" json:"date"`
	Description string   `yaml:"description" toml:"description" json:"description"`
	Image       string   `yaml:"image" toml:"image" json:"image"`
	Tags        []string `yaml:"tags" toml:"tags" json:"tags"`
	Duration    any      `yaml:"duration" toml:"duration" json:"duration"`
	Type        string   `yaml:"type" toml:"type" json:"type"`
	Category    string   `yaml:"category" toml:"category" json:"category"`
	Development bool     `yaml:"development" toml:"development" json:"development"`
	Layout      string   `yaml:"layout" toml:"layout" json:"layout"`
	Wide        bool     `yaml:"wide" toml:"wide" json:"wide"`
	TOC         bool     `yaml:"toc" toml:"toc" json:"toc"`
	Slug        string   `yaml:"slug" toml:"slug" json:"slug"`
	Aliases     []string `yaml:"aliases" toml:"aliases" json:"aliases"`
}

// ParseMetadata reads the frontmatter header of source and returns the typed
// metadata together with the body that follows the header. file is only used
// to label errors.
func ParseMetadata(file string, source []byte) (Metadata, []byte, error) {
	var env envelope
	body, err := frontmatter.MustParse(bytes.NewReader(source), &env)
	if err != nil {
		return Metadata{}, nil, &MalformedFrontmatterError{File: file, Err: err}
	}

	typ := strings.ToLower(strings.TrimSpace(env.Type))
	if typ == "" {
		typ = strings.ToLower(strings.TrimSpace(env.Category))
	}
	if typ == "" {
		typ = TypePost
	}

	err = validation.ValidateStruct(&env,
		validation.Field(&env.Title, validation.Required.Error("title is required")),
		validation.Field(&env.Date, validation.Required.When(typ == TypePost).Error("date is required for posts")),
		validation.Field(&env.Image, validation.By(validateImage)),
	)
	if err != nil {
		return Metadata{}, nil, malformed(file, err)
	}

	meta := Metadata{
		Title:       strings.TrimSpace(env.Title),
		Description: strings.TrimSpace(env.Description),
		Image:       strings.TrimSpace(env.Image),
		Tags:        normalizeTags(env.Tags),
		Type:        typ,
		Development: env.Development,
		Layout:      strings.TrimSpace(env.Layout),
		Wide:        env.Wide,
		TOC:         env.TOC,
		Slug:        strings.TrimSpace(env.Slug),
	}
	if env.Date != nil {
		if meta.Date, err = parseDate(env.Date); err != nil {
			return Metadata{}, nil, &MalformedFrontmatterError{File: file, Field: "date", Err: err}
		}
	}
	if env.Duration != nil {
		if meta.Duration, err = parseDuration(env.Duration); err != nil {
			return Metadata{}, nil, &MalformedFrontmatterError{File: file, Field: "duration", Err: err}
		}
	}
	for _, alias := range env.Aliases {
		if strings.TrimSpace(alias) == "" {
			continue
		}
		meta.Aliases = append(meta.Aliases, CleanPath(alias))
	}
	return meta, body, nil
}

// malformed converts a validation error into a MalformedFrontmatterError,
// naming the first offending field in lexical order.
func malformed(file string, err error) error {
	var errs validation.Errors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return &MalformedFrontmatterError{File: file, Err: err}
	}
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return &MalformedFrontmatterError{File: file, Field: fields[0], Err: errs[fields[0]]}
}

func validateImage(value any) error {
	s, _ := value.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return validation.NewError("registry.image.invalid", "image must be a URL or site path")
	}
	if u.IsAbs() {
		if u.Scheme != "http" && u.Scheme != "https" {
			return validation.NewError("registry.image.scheme", "image URL must use http or https")
		}
		return nil
	}
	if !strings.HasPrefix(u.Path, "/") {
		return validation.NewError("registry.image.relative", "image path must start with /")
	}
	return nil
}

func parseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return calendarDate(d), nil
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return calendarDate(t), nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse %q as a calendar date", s)
	default:
		return time.Time{}, fmt.Errorf("unsupported date value %v (%T)", v, v)
	}
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// parseDuration accepts Go duration strings ("4m30s") and bare integers,
// which are read as minutes.
func parseDuration(v any) (time.Duration, error) {
	var d time.Duration
	switch x := v.(type) {
	case int:
		d = time.Duration(x) * time.Minute
	case int64:
		d = time.Duration(x) * time.Minute
	case uint64:
		d = time.Duration(x) * time.Minute
	case float64:
		d = time.Duration(x * float64(time.Minute))
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.Atoi(s); err == nil {
			d = time.Duration(n) * time.Minute
			break
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as a duration", s)
		}
		d = parsed
	default:
		return 0, fmt.Errorf("unsupported duration value %v (%T)", v, v)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative")
	}
	return d, nil
}

func normalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		tag := strings.ToLower(strings.TrimSpace(t))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
