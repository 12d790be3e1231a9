// Package render renders action command templates into scripts.
//
// Templates use text/template syntax with the sprig function library plus
// AppleScript quoting helpers:
//
//	tell application "Notes" to make new note with properties {name:{{ asquote .title }}}
//
// A parameter referenced outside of a guard ({{ if .x }}, {{ with .x }},
// default, coalesce, ...) must be present, otherwise rendering fails instead
// of silently printing "<no value>".
package render

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/template"
	"text/template/parse"

	"github.com/Masterminds/sprig/v3"

	"github.com/doeshing/orbit-go/internal/domain"
	"github.com/doeshing/orbit-go/internal/ports"
)

// guardFuncs tolerate absent values, so pipelines using them are not checked.
var guardFuncs = map[string]bool{
	"default":  true,
	"coalesce": true,
	"empty":    true,
	"hasKey":   true,
	"ternary":  true,
	"and":      true,
	"or":       true,
	"not":      true,
	"eq":       true,
	"ne":       true,
	"kindIs":   true,
	"typeIs":   true,
}

// Renderer parses and caches templates by source text.
type Renderer struct {
	funcs template.FuncMap

	mu    sync.RWMutex
	cache map[string]*template.Template
}

// NewRenderer builds a renderer with sprig and the AppleScript helpers.
func NewRenderer() *Renderer {
	funcs := sprig.TxtFuncMap()
	funcs["asquote"] = AppleScriptQuote
	funcs["asescape"] = AppleScriptEscape
	funcs["aslist"] = AppleScriptList
	return &Renderer{funcs: funcs, cache: make(map[string]*template.Template)}
}

// Funcs returns the function map templates are parsed with.
func (r *Renderer) Funcs() template.FuncMap {
	return r.funcs
}

// Parse compiles source, reporting syntax errors and unknown functions.
func (r *Renderer) Parse(name, source string) error {
	_, err := r.compile(name, source)
	if err != nil {
		return &domain.TemplateRenderingError{Action: name, Err: err}
	}
	return nil
}

// Render implements ports.TemplateRenderer.
func (r *Renderer) Render(name, source string, params map[string]any) (string, error) {
	tmpl, err := r.compile(name, source)
	if err != nil {
		return "", &domain.TemplateRenderingError{Action: name, Err: err}
	}
	if missing := MissingParameters(tmpl, params); len(missing) > 0 {
		return "", &domain.TemplateRenderingError{Action: name, Missing: missing}
	}

	if params == nil {
		params = map[string]any{}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", &domain.TemplateRenderingError{Action: name, Err: err}
	}
	return buf.String(), nil
}

func (r *Renderer) compile(name, source string) (*template.Template, error) {
	r.mu.RLock()
	tmpl, ok := r.cache[source]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	tmpl, err := template.New(name).Option("missingkey=zero").Funcs(r.funcs).Parse(source)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.cache[source] = tmpl
	r.mu.Unlock()
	return tmpl, nil
}

// References lists every top-level parameter name source refers to.
func References(tmpl *template.Template) []string {
	seen := map[string]bool{}
	if tmpl.Tree != nil {
		collectNames(tmpl.Tree.Root, seen)
	}
	return sortedKeys(seen)
}

// MissingParameters lists the unguarded references of tmpl that params lacks.
func MissingParameters(tmpl *template.Template, params map[string]any) []string {
	if tmpl.Tree == nil {
		return nil
	}
	w := &walker{params: params, missing: map[string]bool{}}
	w.walk(tmpl.Tree.Root, map[string]bool{}, false)
	return sortedKeys(w.missing)
}

type walker struct {
	params  map[string]any
	missing map[string]bool
}

// walk visits node. guarded holds names tested by an enclosing if/with/range;
// rebound is true where dot no longer refers to the parameter map.
func (w *walker) walk(node parse.Node, guarded map[string]bool, rebound bool) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			w.walk(child, guarded, rebound)
		}
	case *parse.ActionNode:
		w.checkPipe(n.Pipe, guarded, rebound)
	case *parse.IfNode:
		w.walkBranch(&n.BranchNode, guarded, rebound, rebound)
	case *parse.WithNode:
		w.walkBranch(&n.BranchNode, guarded, rebound, true)
	case *parse.RangeNode:
		w.walkBranch(&n.BranchNode, guarded, rebound, true)
	}
}

func (w *walker) walkBranch(b *parse.BranchNode, guarded map[string]bool, rebound, bodyRebound bool) {
	inner := make(map[string]bool, len(guarded))
	for k := range guarded {
		inner[k] = true
	}
	names := map[string]bool{}
	collectNames(b.Pipe, names)
	for k := range names {
		inner[k] = true
	}
	w.walk(b.List, inner, bodyRebound)
	if b.ElseList != nil {
		w.walk(b.ElseList, guarded, rebound)
	}
}

func (w *walker) checkPipe(pipe *parse.PipeNode, guarded map[string]bool, rebound bool) {
	if pipe == nil || pipeIsGuarded(pipe) {
		return
	}
	for _, cmd := range pipe.Cmds {
		for _, arg := range cmd.Args {
			w.checkArg(arg, guarded, rebound)
		}
	}
}

func (w *walker) checkArg(arg parse.Node, guarded map[string]bool, rebound bool) {
	switch a := arg.(type) {
	case *parse.FieldNode:
		if !rebound {
			w.require(a.Ident[0], guarded)
		}
	case *parse.VariableNode:
		if len(a.Ident) > 1 && a.Ident[0] == "$" {
			w.require(a.Ident[1], guarded)
		}
	case *parse.ChainNode:
		if p, ok := a.Node.(*parse.PipeNode); ok {
			w.checkPipe(p, guarded, rebound)
		}
	case *parse.PipeNode:
		w.checkPipe(a, guarded, rebound)
	}
}

func (w *walker) require(name string, guarded map[string]bool) {
	if guarded[name] {
		return
	}
	if v, ok := w.params[name]; !ok || v == nil {
		w.missing[name] = true
	}
}

func pipeIsGuarded(pipe *parse.PipeNode) bool {
	for _, cmd := range pipe.Cmds {
		if len(cmd.Args) == 0 {
			continue
		}
		if id, ok := cmd.Args[0].(*parse.IdentifierNode); ok && guardFuncs[id.Ident] {
			return true
		}
	}
	return false
}

// collectNames records every parameter name referenced under node, either as
// .name or $.name.
func collectNames(node parse.Node, into map[string]bool) {
	switch n := node.(type) {
	case nil:
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			collectNames(child, into)
		}
	case *parse.ActionNode:
		collectNames(n.Pipe, into)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, cmd := range n.Cmds {
			collectNames(cmd, into)
		}
	case *parse.CommandNode:
		for _, arg := range n.Args {
			collectNames(arg, into)
		}
	case *parse.FieldNode:
		into[n.Ident[0]] = true
	case *parse.VariableNode:
		if len(n.Ident) > 1 && n.Ident[0] == "$" {
			into[n.Ident[1]] = true
		}
	case *parse.ChainNode:
		collectNames(n.Node, into)
	case *parse.IfNode:
		collectBranch(&n.BranchNode, into)
	case *parse.WithNode:
		collectBranch(&n.BranchNode, into)
	case *parse.RangeNode:
		collectBranch(&n.BranchNode, into)
	}
}

func collectBranch(b *parse.BranchNode, into map[string]bool) {
	collectNames(b.Pipe, into)
	collectNames(b.List, into)
	if b.ElseList != nil {
		collectNames(b.ElseList, into)
	}
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// AppleScriptEscape escapes backslashes and double quotes so the value can be
// embedded inside an AppleScript string literal.
func AppleScriptEscape(v any) string {
	s := fmt.Sprint(v)
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// AppleScriptQuote returns v as a quoted AppleScript string literal.
func AppleScriptQuote(v any) string {
	return `"` + AppleScriptEscape(v) + `"`
}

// AppleScriptList renders a slice as an AppleScript list of strings.
func AppleScriptList(v any) string {
	var items []string
	switch list := v.(type) {
	case []string:
		for _, item := range list {
			items = append(items, AppleScriptQuote(item))
		}
	case []any:
		for _, item := range list {
			items = append(items, AppleScriptQuote(item))
		}
	default:
		items = append(items, AppleScriptQuote(v))
	}
	return "{" + strings.Join(items, ", ") + "}"
}

var _ ports.TemplateRenderer = (*Renderer)(nil)
