package registry

import (
	"fmt"
	"strings"

	"casebook/internal/reload"
	"casebook/internal/story"
	"casebook/internal/store"
)

// State is a kind builder's lifecycle state.
type State int

const (
	// StateOpen accepts kind-level decorators and parameters.
	StateOpen State = iota

	// StateLocked is entered when the first story is added. Kind-level
	// metadata is frozen; story addition remains allowed indefinitely.
	StateLocked
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateLocked:
		return "locked"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// KindBuilder is a short-lived, per-kind registration session. It accumulates
// kind-level decorators and parameters while open, locks on the first Add,
// and dispatches addon capabilities registered with the facade at the time it
// was created.
type KindBuilder struct {
	reg    *Registry
	kind   string
	state  State
	mod    *reload.ModuleContext
	addons map[string]AddonFunc
}

// Kind returns the kind name this builder registers under.
func (b *KindBuilder) Kind() string { return b.kind }

// State returns the builder's current lifecycle state.
func (b *KindBuilder) State() State { return b.state }

// AddDecorator appends a kind-level decorator. Valid only while the builder
// is open; after the first story the kind is locked and the call fails
// without mutating anything.
func (b *KindBuilder) AddDecorator(d story.Decorator) error {
	if err := b.open("decorators"); err != nil {
		return err
	}
	if d == nil {
		return ErrNilDecorator
	}
	b.reg.store.AddKindMetadata(b.kind, story.Metadata{Decorators: []story.Decorator{d}})
	return nil
}

// AddParameters merges kind-level parameters. Same lock rule as AddDecorator.
func (b *KindBuilder) AddParameters(params story.Parameters) error {
	if err := b.open("parameters"); err != nil {
		return err
	}
	b.reg.store.AddKindMetadata(b.kind, story.Metadata{Parameters: params})
	return nil
}

// Add registers one story under this kind and locks the builder.
//
// The story id is derived from kind and name unless params carries an
// explicit story.IDKey override. A story.DecoratorsKey entry in params is
// split out into story-local decorators; neither reserved key reaches the
// stored parameters. On success the builder registers a dispose callback for
// the story (unless suppressed by options), so a reload of the defining
// module replaces rather than accumulates.
func (b *KindBuilder) Add(name string, render story.RenderFn, params story.Parameters) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: kind %q", ErrEmptyStoryName, b.kind)
	}
	if render == nil {
		return fmt.Errorf("%w: kind %q, story %q", ErrNilRender, b.kind, name)
	}

	clean, id, decorators := story.SplitLocal(params)
	if id == "" {
		id = story.StoryID(b.reg.opts.separator(), b.kind, name)
	}

	def := b.reg.opts.DefaultDecorator
	apply := func(decs []story.Decorator, base story.RenderFn) story.RenderFn {
		return story.ComposeWithDefault(def, decs, base)
	}

	rec := &story.Record{
		ID:         id,
		Kind:       b.kind,
		Name:       name,
		Render:     render,
		Parameters: clean,
		Decorators: decorators,
	}
	if err := b.reg.store.AddStory(rec, apply); err != nil {
		return err
	}
	b.state = StateLocked

	if !b.reg.opts.DisableStoryDispose && b.mod.HotReloadable() {
		b.mod.OnDispose(func() {
			// The story may already be gone if the kind-level dispose ran
			// first in the same cycle.
			_ = b.reg.store.Remove(id, store.RemoveOptions{AllowUnsafe: true})
		})
	}
	return nil
}

// Invoke dispatches an addon capability by name, forwarding args. Addons are
// independent extension points and are not subject to the lock rule.
func (b *KindBuilder) Invoke(name string, args ...any) error {
	fn, ok := b.addons[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAddonNotFound, name)
	}
	return fn(b, args...)
}

// Addons returns the names of the capabilities this builder carries.
func (b *KindBuilder) Addons() []string {
	names := make([]string, 0, len(b.addons))
	for name := range b.addons {
		names = append(names, name)
	}
	return names
}

// open rejects kind-level metadata mutation once the builder is locked.
func (b *KindBuilder) open(what string) error {
	if b.state == StateLocked {
		return fmt.Errorf("%w: kind %q already has stories; register kind-level %s before the first Add call",
			ErrKindLocked, b.kind, what)
	}
	return nil
}
