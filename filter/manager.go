package filter

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/s0up4200/anilumina/mal"
)

// Manager holds named presets and applies ad-hoc or preset filters to results
type Manager struct {
	compiler  Compiler
	evaluator Evaluator
	filters   map[string]CompiledFilter
	mu        sync.RWMutex
}

// ManagerOption configures a filter manager
type ManagerOption func(*Manager)

// WithCompiler sets a custom compiler
func WithCompiler(compiler Compiler) ManagerOption {
	return func(m *Manager) {
		m.compiler = compiler
	}
}

// WithEvaluator sets a custom evaluator
func WithEvaluator(evaluator Evaluator) ManagerOption {
	return func(m *Manager) {
		m.evaluator = evaluator
	}
}

// NewManager creates a new filter manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		compiler:  NewExprCompiler(WithCache(100)),
		evaluator: NewConcurrentEvaluator(),
		filters:   make(map[string]CompiledFilter),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// RegisterFilter registers a new preset or updates an existing one
func (m *Manager) RegisterFilter(name, expression string) error {
	filter, err := m.compiler.Compile(expression)
	if err != nil {
		return fmt.Errorf("failed to compile filter '%s': %w", name, err)
	}

	m.mu.Lock()
	m.filters[normalizeName(name)] = filter
	m.mu.Unlock()

	return nil
}

// RegisterFilters registers multiple presets at once. Nothing is registered if any fails.
func (m *Manager) RegisterFilters(filters map[string]string) error {
	compiled := make(map[string]CompiledFilter, len(filters))

	for name, expr := range filters {
		filter, err := m.compiler.Compile(expr)
		if err != nil {
			return fmt.Errorf("failed to compile filter '%s': %w", name, err)
		}
		compiled[normalizeName(name)] = filter
	}

	m.mu.Lock()
	maps.Copy(m.filters, compiled)
	m.mu.Unlock()

	return nil
}

// GetFilter returns a compiled preset by name
func (m *Manager) GetFilter(name string) (CompiledFilter, bool) {
	m.mu.RLock()
	filter, exists := m.filters[normalizeName(name)]
	m.mu.RUnlock()
	return filter, exists
}

// ListFilters returns all preset names in sorted order
func (m *Manager) ListFilters() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Sorted(maps.Keys(m.filters))
}

// Resolve returns the preset named by spec, or compiles spec as an expression.
// A leading '@' forces a preset lookup.
func (m *Manager) Resolve(spec string) (CompiledFilter, error) {
	spec = strings.TrimSpace(spec)
	if name, ok := strings.CutPrefix(spec, "@"); ok {
		filter, exists := m.GetFilter(name)
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
		}
		return filter, nil
	}
	if filter, exists := m.GetFilter(spec); exists {
		return filter, nil
	}
	return m.compiler.Compile(spec)
}

// Apply filters records with spec. An empty spec returns records unchanged.
func (m *Manager) Apply(ctx context.Context, spec string, records []mal.Record) ([]mal.Record, error) {
	if strings.TrimSpace(spec) == "" {
		return records, nil
	}

	filter, err := m.Resolve(spec)
	if err != nil {
		return nil, err
	}

	return m.evaluator.Evaluate(ctx, filter, records)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
