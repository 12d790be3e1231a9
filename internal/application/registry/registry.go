// Package registry indexes action definitions by name, category and risk
// level and exports them as tool-calling schemas.
package registry

import (
	"strings"
	"sync"

	"github.com/doeshing/orbit-go/internal/domain"
)

// Registry holds registered actions. It is read-mostly: registration usually
// happens at startup, lookups afterwards.
type Registry struct {
	mu         sync.RWMutex
	actions    map[string]*domain.ActionDefinition
	order      []string
	categories map[string][]string
	catOrder   []string
}

// Stats summarizes the registry contents.
type Stats struct {
	Total      int                      `json:"total_satellites"`
	Categories int                      `json:"categories"`
	ByRisk     map[domain.RiskLevel]int `json:"by_safety"`
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		actions:    make(map[string]*domain.ActionDefinition),
		categories: make(map[string][]string),
	}
}

// Register inserts action. A second registration of the same name fails and
// leaves the registry unchanged.
func (r *Registry) Register(action *domain.ActionDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[action.Name]; exists {
		return &domain.DuplicateIdentifierError{Name: action.Name}
	}

	r.actions[action.Name] = action
	r.order = append(r.order, action.Name)
	if _, ok := r.categories[action.Category]; !ok {
		r.catOrder = append(r.catOrder, action.Category)
	}
	r.categories[action.Category] = append(r.categories[action.Category], action.Name)
	return nil
}

// MustRegister registers action, panicking if it fails.
func (r *Registry) MustRegister(action *domain.ActionDefinition) {
	if err := r.Register(action); err != nil {
		panic(err)
	}
}

// Unregister removes name from every index. An emptied category disappears.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, exists := r.actions[name]
	if !exists {
		return &domain.NotFoundError{Name: name}
	}

	delete(r.actions, name)
	r.order = without(r.order, name)

	remaining := without(r.categories[action.Category], name)
	if len(remaining) == 0 {
		delete(r.categories, action.Category)
		r.catOrder = without(r.catOrder, action.Category)
	} else {
		r.categories[action.Category] = remaining
	}
	return nil
}

// Get returns the action registered under name. Misses are expected and not
// an error.
func (r *Registry) Get(name string) (*domain.ActionDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	action, ok := r.actions[name]
	return action, ok
}

// ListAll returns every action in registration order.
func (r *Registry) ListAll() []*domain.ActionDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(r.order, nil)
}

// ListByCategory returns the actions of category in registration order, or an
// empty slice when the category is unknown.
func (r *Registry) ListByCategory(category string) []*domain.ActionDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(r.categories[category], nil)
}

// ListByRisk filters all actions by risk level.
func (r *Registry) ListByRisk(level domain.RiskLevel) []*domain.ActionDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(r.order, func(a *domain.ActionDefinition) bool {
		return a.Risk == level
	})
}

// Search matches query case-insensitively against names and descriptions.
func (r *Registry) Search(query string) []*domain.ActionDefinition {
	q := strings.ToLower(query)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(r.order, func(a *domain.ActionDefinition) bool {
		return strings.Contains(strings.ToLower(a.Name), q) ||
			strings.Contains(strings.ToLower(a.Description), q)
	})
}

// Categories returns category names in first-registration order.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.catOrder...)
}

// ExportToolSchema emits one tool declaration per action.
func (r *Registry) ExportToolSchema() []domain.ToolSchema {
	actions := r.ListAll()
	out := make([]domain.ToolSchema, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.ToolSchema())
	}
	return out
}

// ExportCatalog returns the descriptive form of every action, suitable for
// JSON documentation dumps.
func (r *Registry) ExportCatalog() []*domain.ActionDefinition {
	return r.ListAll()
}

// Stats counts actions in total, per category and per risk level.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := Stats{
		Total:      len(r.actions),
		Categories: len(r.categories),
		ByRisk:     make(map[domain.RiskLevel]int, len(domain.RiskLevels)),
	}
	for _, level := range domain.RiskLevels {
		stats.ByRisk[level] = 0
	}
	for _, a := range r.actions {
		stats.ByRisk[a.Risk]++
	}
	return stats
}

func (r *Registry) collect(names []string, keep func(*domain.ActionDefinition) bool) []*domain.ActionDefinition {
	out := make([]*domain.ActionDefinition, 0, len(names))
	for _, name := range names {
		a := r.actions[name]
		if keep == nil || keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func without(list []string, name string) []string {
	out := list[:0:0]
	for _, item := range list {
		if item != name {
			out = append(out, item)
		}
	}
	return out
}
