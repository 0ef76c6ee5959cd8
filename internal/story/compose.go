package story

// DefaultDecorator is the process-wide fallback decorator: it invokes the
// wrapped render function unchanged. Stories with no decorators at any scope
// are wrapped by exactly this (or the host's configured replacement).
func DefaultDecorator(next RenderFn) RenderFn {
	return func(ctx *Context) any {
		return next(ctx)
	}
}

// Compose folds an ordered decorator list around a base render function.
// Declared order is outer-to-inner: Compose([G, K, S], base) renders as
// G(K(S(base))). Composition is pure; every call returns a fresh closure, so
// re-composing never double-wraps as long as the caller starts from the
// original base.
func Compose(decorators []Decorator, base RenderFn) RenderFn {
	composed := base
	for i := len(decorators) - 1; i >= 0; i-- {
		composed = decorators[i](composed)
	}
	return composed
}

// ComposeWithDefault composes like Compose, but an empty decorator list
// yields base wrapped by exactly the given default decorator. A nil def
// falls back to DefaultDecorator.
func ComposeWithDefault(def Decorator, decorators []Decorator, base RenderFn) RenderFn {
	if len(decorators) == 0 {
		if def == nil {
			def = DefaultDecorator
		}
		return def(base)
	}
	return Compose(decorators, base)
}
