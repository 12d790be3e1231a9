// Package parser turns raw script output into structured values.
//
// Parsers are built from a declarative domain.ParserSpec so that catalog
// files can describe them without code.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/doeshing/orbit-go/internal/domain"
)

const (
	defaultDelimiter = "|"
	defaultSeparator = ","
)

// ErrNoMatch is returned by the regex parser when the pattern does not match.
var ErrNoMatch = errors.New("pattern did not match")

// New builds the parser described by spec. A nil spec yields nil: the
// dispatcher then returns the trimmed output unchanged.
func New(spec *domain.ParserSpec) (domain.ResultParser, error) {
	if spec == nil {
		return nil, nil
	}
	switch spec.Kind {
	case domain.ParserIdentity, "":
		return Identity{}, nil
	case domain.ParserJSON:
		return JSON{Path: spec.Path}, nil
	case domain.ParserDelimited:
		return Delimited{
			Delimiter: orDefault(spec.Delimiter, defaultDelimiter),
			Fields:    spec.Fields,
			MaxSplit:  spec.MaxSplit,
		}, nil
	case domain.ParserRecords:
		return Records{
			Separator: orDefault(spec.Separator, defaultSeparator),
			Fields: Delimited{
				Delimiter: orDefault(spec.Delimiter, defaultDelimiter),
				Fields:    spec.Fields,
				MaxSplit:  spec.MaxSplit,
			},
			Empty: spec.Empty,
		}, nil
	case domain.ParserList:
		return List{
			Separator: orDefault(spec.Separator, defaultSeparator),
			Trim:      spec.Trim,
			Sorted:    spec.Sorted,
			Empty:     spec.Empty,
		}, nil
	case domain.ParserLines:
		return Lines{Sorted: spec.Sorted}, nil
	case domain.ParserRegex:
		if spec.Pattern == "" {
			return nil, fmt.Errorf("regex parser requires a pattern")
		}
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile pattern: %w", err)
		}
		return Regex{Pattern: re, Groups: spec.Groups}, nil
	case domain.ParserBoolean:
		return Boolean{}, nil
	default:
		return nil, fmt.Errorf("unknown parser kind %q", spec.Kind)
	}
}

// Identity returns the trimmed output.
type Identity struct{}

func (Identity) Parse(raw string) (any, error) {
	return strings.TrimSpace(raw), nil
}

// JSON decodes the output, optionally selecting a gjson path.
type JSON struct {
	Path string
}

func (p JSON) Parse(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("invalid JSON: %s", abbreviate(raw))
	}
	if p.Path != "" {
		result := gjson.Get(raw, p.Path)
		if !result.Exists() {
			return nil, fmt.Errorf("path %q not found", p.Path)
		}
		return result.Value(), nil
	}
	var out any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return out, nil
}

// Delimited splits one value into parts, zipped with Fields when present.
type Delimited struct {
	Delimiter string
	Fields    []string
	// MaxSplit limits the number of splits; 0 means unlimited.
	MaxSplit int
}

func (p Delimited) Parse(raw string) (any, error) {
	parts := p.split(strings.TrimSpace(raw))
	if len(p.Fields) == 0 {
		return parts, nil
	}
	return p.zip(parts), nil
}

func (p Delimited) split(value string) []string {
	n := -1
	if p.MaxSplit > 0 {
		n = p.MaxSplit + 1
	}
	return strings.SplitN(value, p.Delimiter, n)
}

// zip pairs fields with parts, stopping at the shorter of the two.
func (p Delimited) zip(parts []string) map[string]any {
	out := make(map[string]any, len(p.Fields))
	for i, field := range p.Fields {
		if i >= len(parts) {
			break
		}
		out[field] = parts[i]
	}
	return out
}

// Records splits the output into items and each item into named fields, the
// common shape of AppleScript list results ("a|1, b|2").
type Records struct {
	Separator string
	Fields    Delimited
	Empty     []string
}

func (p Records) Parse(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || contains(p.Empty, raw) {
		return []any{}, nil
	}
	items := strings.Split(raw, p.Separator)
	out := make([]any, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := p.Fields.split(item)
		if len(p.Fields.Fields) == 0 {
			out = append(out, parts)
			continue
		}
		out = append(out, p.Fields.zip(parts))
	}
	return out, nil
}

// List splits the output into string items.
type List struct {
	Separator string
	Trim      bool
	Sorted    bool
	Empty     []string
}

func (p List) Parse(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || contains(p.Empty, raw) {
		return []string{}, nil
	}
	items := strings.Split(raw, p.Separator)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if p.Trim {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
		}
		out = append(out, item)
	}
	if p.Sorted {
		sort.Strings(out)
	}
	return out, nil
}

// Lines returns the non-blank lines of the output.
type Lines struct {
	Sorted bool
}

func (p Lines) Parse(raw string) (any, error) {
	out := []string{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	if p.Sorted {
		sort.Strings(out)
	}
	return out, nil
}

// Regex extracts capture groups from the first match. Groups names them;
// otherwise named subexpressions are used, and failing that a list is
// returned.
type Regex struct {
	Pattern *regexp.Regexp
	Groups  []string
}

func (p Regex) Parse(raw string) (any, error) {
	match := p.Pattern.FindStringSubmatch(raw)
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, abbreviate(raw))
	}
	groups := match[1:]

	names := p.Groups
	if len(names) == 0 && hasNamedGroups(p.Pattern) {
		names = p.Pattern.SubexpNames()[1:]
	}
	if len(names) == 0 {
		return groups, nil
	}
	out := make(map[string]any, len(names))
	for i, name := range names {
		if i >= len(groups) || name == "" {
			continue
		}
		out[name] = groups[i]
	}
	return out, nil
}

// Boolean maps "true", "yes" and "1" (any case) to true and anything else to
// false.
type Boolean struct{}

func (Boolean) Parse(raw string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "1":
		return true, nil
	default:
		return false, nil
	}
}

func hasNamedGroups(re *regexp.Regexp) bool {
	for _, name := range re.SubexpNames() {
		if name != "" {
			return true
		}
	}
	return false
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// abbreviate keeps error text short without splitting a multi-byte rune.
func abbreviate(s string) string {
	const limit = 120
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}
