package store

import (
	"errors"
	"fmt"
	"testing"

	"casebook/internal/story"
)

func tag(t string) story.Decorator {
	return func(next story.RenderFn) story.RenderFn {
		return func(ctx *story.Context) any {
			return fmt.Sprintf("%s[%v]", t, next(ctx))
		}
	}
}

func record(id, kind, name string) *story.Record {
	return &story.Record{
		ID:     id,
		Kind:   kind,
		Name:   name,
		Render: func(ctx *story.Context) any { return "base" },
	}
}

func TestNew(t *testing.T) {
	s := New(nil)
	if s.Count() != 0 {
		t.Errorf("new store should be empty, got %d stories", s.Count())
	}
	if s.Revision() != 0 {
		t.Errorf("new store revision should be 0, got %d", s.Revision())
	}
}

func TestAddStory(t *testing.T) {
	s := New(nil)

	if err := s.AddStory(record("button-primary", "Button", "Primary"), nil); err != nil {
		t.Fatalf("AddStory failed: %v", err)
	}
	if !s.Has("button-primary") {
		t.Error("story not found after AddStory")
	}
	if got := s.StoryKinds(); len(got) != 1 || got[0] != "Button" {
		t.Errorf("kind entry should be created lazily on first add, got %v", got)
	}
}

func TestAddStoryValidation(t *testing.T) {
	s := New(nil)

	if err := s.AddStory(nil, nil); !errors.Is(err, ErrNilRecord) {
		t.Errorf("nil record: got %v, want ErrNilRecord", err)
	}
	if err := s.AddStory(record("", "Button", "Primary"), nil); !errors.Is(err, ErrEmptyID) {
		t.Errorf("empty id: got %v, want ErrEmptyID", err)
	}
}

func TestDuplicateRejected(t *testing.T) {
	s := New(nil)

	first := record("button-primary", "Button", "Primary")
	first.Render = func(ctx *story.Context) any { return "first" }
	if err := s.AddStory(first, nil); err != nil {
		t.Fatalf("first AddStory failed: %v", err)
	}

	second := record("button-primary", "Button", "Primary")
	second.Render = func(ctx *story.Context) any { return "second" }
	err := s.AddStory(second, nil)
	if !errors.Is(err, ErrDuplicateStory) {
		t.Fatalf("duplicate id: got %v, want ErrDuplicateStory", err)
	}

	// The first registration stays in effect, deterministically.
	snap, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap) != 1 {
		t.Fatalf("expected 1 story, got %d", len(snap))
	}
	if got := snap[0].Render(snap[0].Context()); got != "first" {
		t.Errorf("duplicate must not replace the original: rendered %q", got)
	}
}

func TestRevisionMonotonic(t *testing.T) {
	s := New(nil)

	last := s.Revision()
	check := func(op string) {
		t.Helper()
		now := s.Revision()
		if now <= last {
			t.Errorf("%s: revision %d did not increase past %d", op, now, last)
		}
		last = now
	}

	if err := s.AddStory(record("a-1", "A", "1"), nil); err != nil {
		t.Fatal(err)
	}
	check("add a-1")
	if err := s.AddStory(record("a-2", "A", "2"), nil); err != nil {
		t.Fatal(err)
	}
	check("add a-2")
	if err := s.Remove("a-1", RemoveOptions{AllowUnsafe: true}); err != nil {
		t.Fatal(err)
	}
	check("remove a-1")
	if err := s.RemoveKind("A", RemoveOptions{AllowUnsafe: true}); err != nil {
		t.Fatal(err)
	}
	check("remove kind A")
	s.IncrementRevision()
	check("explicit increment")
}

func TestRemoveRequiresUnsafe(t *testing.T) {
	s := New(nil)
	if err := s.AddStory(record("a-1", "A", "1"), nil); err != nil {
		t.Fatal(err)
	}

	if err := s.Remove("a-1", RemoveOptions{}); !errors.Is(err, ErrUnsafeRemoval) {
		t.Errorf("Remove without AllowUnsafe: got %v, want ErrUnsafeRemoval", err)
	}
	if !s.Has("a-1") {
		t.Error("refused removal must not delete the story")
	}
	if err := s.RemoveKind("A", RemoveOptions{}); !errors.Is(err, ErrUnsafeRemoval) {
		t.Errorf("RemoveKind without AllowUnsafe: got %v, want ErrUnsafeRemoval", err)
	}
}

func TestRemoveMissing(t *testing.T) {
	s := New(nil)
	if err := s.Remove("ghost", RemoveOptions{AllowUnsafe: true}); !errors.Is(err, ErrStoryNotFound) {
		t.Errorf("got %v, want ErrStoryNotFound", err)
	}
}

func TestRemoveKind(t *testing.T) {
	s := New(nil)
	for _, r := range []*story.Record{
		record("a-1", "A", "1"),
		record("a-2", "A", "2"),
		record("b-1", "B", "1"),
	} {
		if err := s.AddStory(r, nil); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.RemoveKind("A", RemoveOptions{AllowUnsafe: true}); err != nil {
		t.Fatal(err)
	}

	if s.Has("a-1") || s.Has("a-2") {
		t.Error("kind A stories should be gone")
	}
	if !s.Has("b-1") {
		t.Error("kind B must be untouched")
	}
	if got := s.StoryKinds(); len(got) != 1 || got[0] != "B" {
		t.Errorf("kind A metadata should be gone, got kinds %v", got)
	}
}

func TestClearGlobalDecorators(t *testing.T) {
	s := New(nil)
	s.AddGlobalMetadata(story.Metadata{
		Decorators: []story.Decorator{tag("G")},
		Parameters: story.Parameters{"theme": "dark"},
	})
	if err := s.AddStory(record("a-1", "A", "1"), nil); err != nil {
		t.Fatal(err)
	}

	s.ClearGlobalDecorators()

	snap, err := s.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if got := snap[0].Render(snap[0].Context()); got != "base" {
		t.Errorf("global decorators should be cleared, rendered %q", got)
	}
	if snap[0].Parameters["theme"] != "dark" {
		t.Error("clearing decorators must not touch global parameters")
	}
}

func TestStoryKindsOrder(t *testing.T) {
	s := New(nil)
	s.AddKindMetadata("B", story.Metadata{Parameters: story.Parameters{"x": 1}})
	if err := s.AddStory(record("a-1", "A", "1"), nil); err != nil {
		t.Fatal(err)
	}

	got := s.StoryKinds()
	if len(got) != 2 || got[0] != "B" || got[1] != "A" {
		t.Errorf("kinds should keep first-registration order, got %v", got)
	}
}
