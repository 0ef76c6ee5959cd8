package story

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMergeLaterWins(t *testing.T) {
	got := Merge(Parameters{"a": 1, "b": 1}, Parameters{"b": 2, "c": 3})
	want := Parameters{"a": 1, "b": 2, "c": 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeNilDst(t *testing.T) {
	got := Merge(nil, Parameters{"a": 1})
	if got["a"] != 1 {
		t.Errorf("Merge into nil dst lost data: %v", got)
	}
	if Merge(nil, nil) != nil {
		t.Error("Merge(nil, nil) should stay nil")
	}
}

func TestCloneIndependent(t *testing.T) {
	orig := Parameters{"a": 1}
	c := Clone(orig)
	c["a"] = 2
	if orig["a"] != 1 {
		t.Error("Clone must not share storage with the original")
	}
}

func TestSplitLocal(t *testing.T) {
	dec := Decorator(func(next RenderFn) RenderFn { return next })
	params := Parameters{
		"label":       "hi",
		IDKey:         "custom-id",
		DecoratorsKey: []Decorator{dec},
	}

	clean, id, decs := SplitLocal(params)

	if id != "custom-id" {
		t.Errorf("id override: got %q", id)
	}
	if len(decs) != 1 {
		t.Errorf("expected 1 local decorator, got %d", len(decs))
	}
	if diff := cmp.Diff(Parameters{"label": "hi"}, clean); diff != "" {
		t.Errorf("reserved keys must not reach clean params (-want +got):\n%s", diff)
	}
	// Input untouched.
	if _, ok := params[IDKey]; !ok {
		t.Error("SplitLocal mutated its input")
	}
}

func TestSplitLocalSingleDecorator(t *testing.T) {
	_, _, decs := SplitLocal(Parameters{
		DecoratorsKey: Decorator(func(next RenderFn) RenderFn { return next }),
	})
	if len(decs) != 1 {
		t.Errorf("bare decorator should be accepted, got %d", len(decs))
	}
}

func TestSplitLocalEmpty(t *testing.T) {
	clean, id, decs := SplitLocal(nil)
	if clean != nil || id != "" || decs != nil {
		t.Errorf("SplitLocal(nil) = %v, %q, %v; want zero values", clean, id, decs)
	}
}
