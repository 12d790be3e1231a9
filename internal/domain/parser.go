package domain

// ParserKind selects one of the closed set of result parsers.
type ParserKind string

const (
	ParserIdentity  ParserKind = "identity"
	ParserJSON      ParserKind = "json"
	ParserDelimited ParserKind = "delimited"
	ParserRecords   ParserKind = "records"
	ParserList      ParserKind = "list"
	ParserLines     ParserKind = "lines"
	ParserRegex     ParserKind = "regex"
	ParserBoolean   ParserKind = "boolean"
)

// ParserSpec is the declarative description of a result parser.
// Only the fields relevant to Kind are consulted.
type ParserSpec struct {
	Kind ParserKind `yaml:"kind" json:"kind"`

	// Delimiter splits fields (delimited, records). Defaults to "|".
	Delimiter string `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`
	// Separator splits items (records, list). Defaults to ",".
	Separator string `yaml:"separator,omitempty" json:"separator,omitempty"`
	// Fields names the parts of a delimited value; output becomes a map.
	Fields []string `yaml:"fields,omitempty" json:"fields,omitempty"`
	// MaxSplit limits the number of splits per value; 0 means unlimited.
	MaxSplit int `yaml:"max_split,omitempty" json:"max_split,omitempty"`

	// Pattern is the regular expression for the regex kind.
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	// Groups names the capture groups of Pattern.
	Groups []string `yaml:"groups,omitempty" json:"groups,omitempty"`

	// Path is an optional gjson path applied by the json kind.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`

	// Trim strips whitespace around list items.
	Trim bool `yaml:"trim,omitempty" json:"trim,omitempty"`
	// Sorted sorts list items.
	Sorted bool `yaml:"sorted,omitempty" json:"sorted,omitempty"`
	// Empty lists raw outputs that mean "no items" (e.g. "my list()").
	Empty []string `yaml:"empty,omitempty" json:"empty,omitempty"`
}
