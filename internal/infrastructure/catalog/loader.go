// Package catalog loads action definitions from YAML files.
//
// Each file declares one category:
//
//	category: notes
//	actions:
//	  - name: notes_create
//	    description: Create a new note
//	    risk: moderate
//	    parameters:
//	      - {name: title, type: string, required: true}
//	    template: |
//	      tell application "Notes" to make new note with properties {name:{{ asquote .title }}}
//	    parser: {kind: identity}
package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/orbit-go/assets"
	"github.com/doeshing/orbit-go/internal/domain"
	"github.com/doeshing/orbit-go/internal/infrastructure/parser"
	"github.com/doeshing/orbit-go/internal/infrastructure/render"
)

// File is the on-disk shape of one catalog file.
type File struct {
	Category string                     `yaml:"category"`
	Author   string                     `yaml:"author,omitempty"`
	Actions  []*domain.ActionDefinition `yaml:"actions"`
}

// Options filters what Load returns.
type Options struct {
	DisabledCategories []string
}

// Loader reads and validates catalog files.
type Loader struct {
	renderer *render.Renderer
	disabled map[string]bool
}

// NewLoader builds a loader. renderer is used to check template syntax.
func NewLoader(renderer *render.Renderer, opts Options) *Loader {
	if renderer == nil {
		renderer = render.NewRenderer()
	}
	disabled := make(map[string]bool, len(opts.DisabledCategories))
	for _, c := range opts.DisabledCategories {
		disabled[strings.ToLower(c)] = true
	}
	return &Loader{renderer: renderer, disabled: disabled}
}

// LoadFS reads every *.yaml / *.yml file under dir in fsys, in lexical order.
func (l *Loader) LoadFS(fsys fs.FS, dir string) ([]*domain.ActionDefinition, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := path.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var out []*domain.ActionDefinition
	seen := map[string]string{}
	for _, name := range names {
		file := path.Join(dir, name)
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		actions, err := l.Parse(file, data)
		if err != nil {
			return nil, err
		}
		for _, action := range actions {
			if prev, dup := seen[action.Name]; dup {
				return nil, fmt.Errorf("%s: action %q already declared in %s", file, action.Name, prev)
			}
			seen[action.Name] = file
			out = append(out, action)
		}
	}
	return out, nil
}

// LoadBuiltin reads the catalog embedded in the binary.
func (l *Loader) LoadBuiltin() ([]*domain.ActionDefinition, error) {
	return l.LoadFS(assets.Catalog, assets.CatalogDir)
}

// LoadDir reads a catalog directory from disk.
func (l *Loader) LoadDir(dir string) ([]*domain.ActionDefinition, error) {
	return l.LoadFS(os.DirFS(dir), ".")
}

// Parse decodes and validates one catalog file. source names the file in
// error messages.
func (l *Loader) Parse(source string, data []byte) ([]*domain.ActionDefinition, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	if l.disabled[strings.ToLower(file.Category)] {
		return nil, nil
	}

	out := make([]*domain.ActionDefinition, 0, len(file.Actions))
	for i, action := range file.Actions {
		if action == nil {
			return nil, fmt.Errorf("%s: action #%d is empty", source, i+1)
		}
		if action.Category == "" {
			action.Category = file.Category
		}
		if l.disabled[strings.ToLower(action.Category)] {
			continue
		}
		if action.Author == "" {
			action.Author = file.Author
		}
		if err := l.prepare(action); err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		out = append(out, action)
	}
	return out, nil
}

// prepare fills defaults, validates the definition and builds its parser.
func (l *Loader) prepare(action *domain.ActionDefinition) error {
	if action.Name == "" {
		return fmt.Errorf("action without a name")
	}
	if action.Category == "" {
		return fmt.Errorf("action %q: missing category", action.Name)
	}
	if action.Version == "" {
		action.Version = domain.DefaultActionVersion
	}

	level, err := domain.ParseRiskLevel(string(action.Risk))
	if err != nil {
		return fmt.Errorf("action %q: %w", action.Name, err)
	}
	action.Risk = level

	seen := map[string]bool{}
	for i := range action.Parameters {
		p := &action.Parameters[i]
		if p.Name == "" {
			return fmt.Errorf("action %q: parameter #%d has no name", action.Name, i+1)
		}
		if seen[p.Name] {
			return fmt.Errorf("action %q: duplicate parameter %q", action.Name, p.Name)
		}
		seen[p.Name] = true
		if p.Type == "" {
			p.Type = domain.ParamString
		}
		if !p.Type.Valid() {
			return fmt.Errorf("action %q: parameter %q has unknown type %q", action.Name, p.Name, p.Type)
		}
	}

	if strings.TrimSpace(action.Template) == "" {
		return fmt.Errorf("action %q: empty template", action.Name)
	}
	if err := l.renderer.Parse(action.Name, action.Template); err != nil {
		return err
	}

	if action.Parser == nil {
		p, err := parser.New(action.ParserSpec)
		if err != nil {
			return fmt.Errorf("action %q: %w", action.Name, err)
		}
		action.Parser = p
	}
	return nil
}
