// Package registry is the registration entry point for casebook. The
// Registry facade forwards global decorator/parameter/enhancer registration
// to the metadata store, creates per-kind builders, and manages the addon
// capability table. A KindBuilder accumulates kind-level metadata until its
// first story locks it, then keeps accepting stories.
//
// The registry is an explicit handle owned by the host application; there is
// no ambient process-wide instance. Components that need it receive it by
// reference.
package registry

import (
	"fmt"
	"strings"
	"sync"

	"casebook/internal/reload"
	"casebook/internal/story"
	"casebook/internal/store"

	"go.uber.org/zap"
)

// AddonFunc is an addon capability invoked through KindBuilder.Invoke. It
// receives the builder it was invoked on plus the forwarded arguments.
type AddonFunc func(b *KindBuilder, args ...any) error

// Options configures registration behavior.
type Options struct {
	// Separator joins kind and name in derived story ids. Empty means
	// story.DefaultSeparator.
	Separator string

	// DefaultDecorator wraps stories that have no decorators at any scope.
	// Nil means story.DefaultDecorator (identity).
	DefaultDecorator story.Decorator

	// DisableStoryDispose suppresses the per-story dispose callbacks the
	// builder normally registers; kind-level disposal still covers them.
	DisableStoryDispose bool
}

func (o Options) separator() string {
	if o.Separator == "" {
		return story.DefaultSeparator
	}
	return o.Separator
}

// Registry is the registration facade.
type Registry struct {
	mu    sync.Mutex
	store *store.Store
	opts  Options

	// addons is the capability table copied into builders at creation.
	// Later registrations affect only subsequently created builders.
	addons map[string]AddonFunc

	// live tracks moduleID -> kind for reload-capable registrations so a
	// repeat StoriesOf without an intervening dispose can be flagged.
	live map[string]map[string]bool

	log *zap.Logger
}

// New creates a registry around the given store. A nil logger disables
// logging.
func New(st *store.Store, opts Options, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		store:  st,
		opts:   opts,
		addons: make(map[string]AddonFunc),
		live:   make(map[string]map[string]bool),
		log:    log,
	}
}

// ready guards every facade operation against use before construction.
func (r *Registry) ready() error {
	if r == nil || r.store == nil {
		return ErrNotInitialized
	}
	return nil
}

// AddDecorator appends a decorator to the global scope.
func (r *Registry) AddDecorator(d story.Decorator) error {
	if err := r.ready(); err != nil {
		return err
	}
	if d == nil {
		return ErrNilDecorator
	}
	r.store.AddGlobalMetadata(story.Metadata{Decorators: []story.Decorator{d}})
	return nil
}

// AddParameters merges parameters into the global scope.
func (r *Registry) AddParameters(params story.Parameters) error {
	if err := r.ready(); err != nil {
		return err
	}
	r.store.AddGlobalMetadata(story.Metadata{Parameters: params})
	return nil
}

// AddParameterEnhancer registers an enhancer applied at snapshot time for
// every story, in registration order. Enhancer errors surface to whoever
// takes the snapshot, not here.
func (r *Registry) AddParameterEnhancer(e story.ParameterEnhancer) error {
	if err := r.ready(); err != nil {
		return err
	}
	if e == nil {
		return ErrNilEnhancer
	}
	r.store.AddParameterEnhancer(e)
	return nil
}

// ClearDecorators resets the global decorator list. Test isolation use.
func (r *Registry) ClearDecorators() error {
	if err := r.ready(); err != nil {
		return err
	}
	r.store.ClearGlobalDecorators()
	return nil
}

// RegisterAddon adds a named capability exposed on every subsequently created
// kind builder. A later registration under the same name wins for builders
// created after it; existing builders keep the table they were created with.
func (r *Registry) RegisterAddon(name string, fn AddonFunc) error {
	if err := r.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return ErrEmptyAddonName
	}
	if fn == nil {
		return fmt.Errorf("%w: %s", ErrNilAddon, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addons[name] = fn
	return nil
}

// StoriesOf opens a kind builder for the named kind. The module context
// identifies the calling module and, when reload-capable, wires the dispose
// callbacks that make edit-reload cycles a clean replace. A nil or
// reload-incapable context is allowed; registration proceeds with a warning
// that reload safety cannot be guaranteed for this kind.
func (r *Registry) StoriesOf(kind string, mod *reload.ModuleContext) (*KindBuilder, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(kind) == "" {
		return nil, ErrEmptyKind
	}

	if !mod.HotReloadable() {
		r.log.Warn("no reload-capable module context supplied; stale stories may accumulate across reloads",
			zap.String("kind", kind),
			zap.String("module", mod.ID()))
	} else {
		r.trackLive(mod.ID(), kind)
	}

	b := &KindBuilder{
		reg:    r,
		kind:   kind,
		state:  StateOpen,
		mod:    mod,
		addons: r.addonTable(),
	}

	if mod.HotReloadable() {
		moduleID := mod.ID()
		mod.OnDispose(func() {
			// Removal is always permitted during disposal, lock state
			// notwithstanding.
			_ = r.store.RemoveKind(kind, store.RemoveOptions{AllowUnsafe: true})
			r.untrackLive(moduleID, kind)
		})
	}
	return b, nil
}

// Store exposes the raw metadata store. Read/debug escape hatch only; all
// mutation belongs to the facade and its builders.
func (r *Registry) Store() *store.Store {
	if r == nil {
		return nil
	}
	return r.store
}

// InferHierarchySeparator scans registered kind names for a hierarchy
// separator character and returns the first one found. Legacy configuration
// shim for hosts that predate an explicit separator option; gate it behind
// config, do not rely on it.
func (r *Registry) InferHierarchySeparator() (string, bool, error) {
	if err := r.ready(); err != nil {
		return "", false, err
	}
	for _, kind := range r.store.StoryKinds() {
		for _, sep := range []string{"/", ".", "|"} {
			if strings.Contains(kind, sep) {
				return sep, true, nil
			}
		}
	}
	return "", false, nil
}

// addonTable snapshots the current addon capabilities for a new builder.
func (r *Registry) addonTable() map[string]AddonFunc {
	r.mu.Lock()
	defer r.mu.Unlock()
	table := make(map[string]AddonFunc, len(r.addons))
	for name, fn := range r.addons {
		table[name] = fn
	}
	return table
}

// trackLive records a reload-capable registration and warns when the same
// module opens the same kind again without an intervening dispose, which
// usually means two registration styles are being mixed in one file.
func (r *Registry) trackLive(moduleID, kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := r.live[moduleID]
	if kinds == nil {
		kinds = make(map[string]bool)
		r.live[moduleID] = kinds
	}
	if kinds[kind] {
		r.log.Warn("kind registered twice by the same module without disposal; conflicting registration styles?",
			zap.String("kind", kind),
			zap.String("module", moduleID))
	}
	kinds[kind] = true
}

func (r *Registry) untrackLive(moduleID, kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if kinds, ok := r.live[moduleID]; ok {
		delete(kinds, kind)
		if len(kinds) == 0 {
			delete(r.live, moduleID)
		}
	}
}
