package story

import (
	"fmt"
	"testing"
)

// tag returns a decorator that wraps rendered output in "T[...]".
func tag(t string) Decorator {
	return func(next RenderFn) RenderFn {
		return func(ctx *Context) any {
			return fmt.Sprintf("%s[%v]", t, next(ctx))
		}
	}
}

func base(ctx *Context) any { return "base" }

func TestComposeOrder(t *testing.T) {
	render := Compose([]Decorator{tag("G"), tag("K"), tag("S")}, base)

	got := render(&Context{})
	if got != "G[K[S[base]]]" {
		t.Errorf("declared-first must be outermost: got %q, want %q", got, "G[K[S[base]]]")
	}
}

func TestComposeEmpty(t *testing.T) {
	render := Compose(nil, base)
	if got := render(&Context{}); got != "base" {
		t.Errorf("empty composition should be the base: got %q", got)
	}
}

func TestComposeWithDefaultEmpty(t *testing.T) {
	wraps := 0
	def := func(next RenderFn) RenderFn {
		return func(ctx *Context) any {
			wraps++
			return next(ctx)
		}
	}

	render := ComposeWithDefault(def, nil, base)
	if got := render(&Context{}); got != "base" {
		t.Errorf("default decorator changed output: got %q", got)
	}
	if wraps != 1 {
		t.Errorf("default decorator should wrap exactly once, ran %d times", wraps)
	}
}

func TestComposeWithDefaultSkippedWhenDecorated(t *testing.T) {
	def := tag("DEF")
	render := ComposeWithDefault(def, []Decorator{tag("A")}, base)
	if got := render(&Context{}); got != "A[base]" {
		t.Errorf("default must not apply when decorators exist: got %q", got)
	}
}

func TestComposeWithDefaultNilUsesIdentity(t *testing.T) {
	render := ComposeWithDefault(nil, nil, base)
	if got := render(&Context{}); got != "base" {
		t.Errorf("identity default changed output: got %q", got)
	}
}

func TestRecomposeDoesNotDoubleWrap(t *testing.T) {
	decs := []Decorator{tag("A")}

	first := Compose(decs, base)
	second := Compose(decs, base)

	if got := first(&Context{}); got != "A[base]" {
		t.Fatalf("first composition: got %q", got)
	}
	if got := second(&Context{}); got != "A[base]" {
		t.Errorf("re-composition from the same base must not double-wrap: got %q", got)
	}
}
