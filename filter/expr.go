package filter

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/anilumina/mal"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	extra      map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newProgramCache(size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

var defaultCompiler = NewExprCompiler(WithCache(100))

// CompileFilter compiles an expression with the shared caching compiler
func CompileFilter(expression string) (CompiledFilter, error) {
	return defaultCompiler.Compile(expression)
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: make(map[string]any),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	cache       *programCache
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// Type-check against a zero record so unknown fields fail here, not at runtime
	env := createRuntimeEnvironment(mal.Record{})
	maps.Copy(env, c.helperFuncs)

	program, err := expr.Compile(expression,
		expr.Env(env),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		extra:      c.helperFuncs,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Evaluate evaluates the filter against a record. Runtime errors count as no match.
func (f *exprFilter) Evaluate(rec mal.Record) bool {
	ok, err := f.Run(rec)
	return err == nil && ok
}

// Run evaluates the filter and reports runtime errors
func (f *exprFilter) Run(rec mal.Record) (bool, error) {
	env := createRuntimeEnvironment(rec)
	maps.Copy(env, f.extra)

	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, &EvaluationError{Expression: f.expression, RecordTitle: rec.Title, Err: err}
	}

	// AsBool guarantees the result type
	return result.(bool), nil
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// addHelperFunctions adds the record-independent helpers
func addHelperFunctions(env map[string]any) {
	// String helpers
	env["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["startsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["endsWith"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
	// Date helpers
	env["parseDate"] = parseStartDate
	env["yearsAgo"] = func(years int) time.Time {
		return time.Now().AddDate(-years, 0, 0)
	}
	env["now"] = time.Now
}

// createRuntimeEnvironment creates the environment for one record
func createRuntimeEnvironment(rec mal.Record) map[string]any {
	env := make(map[string]any, 32)

	addHelperFunctions(env)

	env["Record"] = rec
	env["hasStatus"] = createHasStatusFunc(rec.Status)
	env["hasGenre"] = createHasGenreFunc(rec.Genres)

	env["Title"] = rec.Title
	env["Kind"] = string(rec.Kind)
	env["ID"] = rec.ID
	env["Score"] = derefOr(rec.Score, 0)
	env["HasScore"] = rec.Score != nil
	env["Rank"] = derefOr(rec.Rank, 0)
	env["Status"] = string(rec.Status)
	env["Episodes"] = derefOr(rec.Count, 0)
	env["Chapters"] = derefOr(rec.Count, 0)
	env["Volumes"] = derefOr(rec.Volumes, 0)
	env["StartDate"] = rec.StartDate
	env["Started"] = parseStartDate(rec.StartDate)
	env["Year"] = rec.Year()
	env["MediaType"] = rec.MediaType
	env["Genres"] = rec.Genres
	env["Studios"] = rec.Studios

	return env
}

func createHasStatusFunc(status mal.Status) func(string) bool {
	current := string(status)
	return func(s string) bool {
		s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
		return s != "" && s == current
	}
}

func createHasGenreFunc(genres []string) func(string) bool {
	lower := make([]string, len(genres))
	for i, g := range genres {
		lower[i] = strings.ToLower(g)
	}
	return func(genre string) bool {
		return slices.Contains(lower, strings.ToLower(genre))
	}
}

// parseStartDate accepts the upstream's full, year-month and year-only dates
func parseStartDate(s string) time.Time {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func derefOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
