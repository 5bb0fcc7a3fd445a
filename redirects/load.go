package redirects

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a redirect definitions file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

type definitions struct {
	Redirects []definition `yaml:"redirects" toml:"redirects"`
}

type definition struct {
	From   string `yaml:"from" toml:"from"`
	To     string `yaml:"to" toml:"to"`
	Intent string `yaml:"intent" toml:"intent"`
	Status int    `yaml:"status" toml:"status"`
}

// Load reads redirect definitions from a .yaml, .yml or .toml file. A missing
// file yields no rules.
func Load(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("redirects: read %s: %w", path, err)
	}
	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = FormatTOML
	}
	return Parse(data, format, filepath.Base(path))
}

// Parse decodes redirect definitions. origin labels each rule, e.g.
// "redirects.yaml#3" for the third entry.
func Parse(data []byte, format Format, origin string) ([]Rule, error) {
	var defs definitions
	switch format {
	case FormatTOML:
		if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&defs); err != nil {
			return nil, fmt.Errorf("redirects: decode %s: %w", origin, err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&defs); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("redirects: decode %s: %w", origin, err)
		}
	}

	rules := make([]Rule, 0, len(defs.Redirects))
	for i, d := range defs.Redirects {
		intent := d.Intent
		if intent == "" && d.Status != 0 {
			intent = strconv.Itoa(d.Status)
		}
		label := fmt.Sprintf("%s#%d", origin, i+1)
		parsed, err := ParseIntent(intent)
		if err != nil {
			return nil, &InvalidRuleError{Rule: Rule{Source: d.From, Target: d.To, Origin: label}, Reason: err.Error()}
		}
		rules = append(rules, Rule{Source: d.From, Target: d.To, Intent: parsed, Origin: label})
	}
	return rules, nil
}
