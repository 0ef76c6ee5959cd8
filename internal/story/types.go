// Package story defines the core data model for casebook: render functions,
// decorators, parameters, parameter enhancers, and the immutable record that
// the metadata store keeps for every registered story.
//
// A "kind" groups related stories (typically one component); a "story" is one
// named, renderable example under a kind. Decorators wrap render functions to
// inject cross-cutting behavior; parameters are arbitrary metadata merged by
// precedence across the global, kind, and story scopes.
package story

// Reserved parameter keys. These are split out of a story's parameter map at
// registration time and never appear in the effective parameters.
const (
	// IDKey overrides the derived story id when present in parameters.
	IDKey = "__id"

	// DecoratorsKey carries story-local decorators ([]Decorator) inside the
	// parameters passed to Add.
	DecoratorsKey = "decorators"
)

// Parameters is arbitrary metadata attached at global, kind, or story scope.
type Parameters map[string]any

// Context carries a story's identity and effective parameters into render
// functions and parameter enhancers.
type Context struct {
	Kind       string
	Name       string
	ID         string
	Parameters Parameters
}

// RenderFn produces a story's rendered value. What the value is (a string, a
// component tree, an image handle) is the rendering layer's business; the
// registry only composes and stores these functions.
type RenderFn func(ctx *Context) any

// Decorator wraps a render function to inject cross-cutting behavior.
// Declared-first decorators end up outermost after composition.
type Decorator func(next RenderFn) RenderFn

// ParameterEnhancer derives additional parameters at query time. Enhancers
// run in registration order after story-local overrides; a returned error
// aborts the snapshot that invoked it.
type ParameterEnhancer func(ctx *Context) (Parameters, error)

// Metadata is the decorator/parameter pair accumulated at global and kind
// scope. Both fields accumulate monotonically via append and merge.
type Metadata struct {
	Decorators []Decorator
	Parameters Parameters
}

// Record is one registered story. Immutable once created; the only permitted
// structural change is removal, and only through the unsafe removal path the
// hot-reload bridge uses.
type Record struct {
	ID         string
	Kind       string
	Name       string
	Render     RenderFn
	Parameters Parameters
	Decorators []Decorator
}

// ApplyFunc composes a story's full decorator chain around its base render
// function. The kind builder binds one of these to the configured default
// decorator and hands it to the store together with the record.
type ApplyFunc func(decorators []Decorator, base RenderFn) RenderFn

// Merge shallow-merges src into dst, later keys winning, and returns dst.
// A nil dst is allocated on first use; src is never mutated.
func Merge(dst, src Parameters) Parameters {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(Parameters, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Clone returns a shallow copy of p, or nil for empty input.
func Clone(p Parameters) Parameters {
	if len(p) == 0 {
		return nil
	}
	out := make(Parameters, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// SplitLocal separates the reserved keys out of a story's parameter map.
// It returns the cleaned parameters (a copy; the input is not mutated), the
// explicit id override if any, and the story-local decorators if any.
func SplitLocal(params Parameters) (clean Parameters, id string, decorators []Decorator) {
	if len(params) == 0 {
		return nil, "", nil
	}
	clean = make(Parameters, len(params))
	for k, v := range params {
		switch k {
		case IDKey:
			if s, ok := v.(string); ok {
				id = s
			}
		case DecoratorsKey:
			switch d := v.(type) {
			case []Decorator:
				decorators = d
			case Decorator:
				decorators = []Decorator{d}
			case func(RenderFn) RenderFn:
				decorators = []Decorator{d}
			}
		default:
			clean[k] = v
		}
	}
	if len(clean) == 0 {
		clean = nil
	}
	return clean, id, decorators
}
