// Package store implements the metadata store behind the casebook registry:
// accumulated global metadata, lazily created per-kind metadata, the story
// records themselves, registered parameter enhancers, and the monotonically
// increasing revision counter downstream caches use to detect staleness.
//
// The store is the single shared resource in the system. All mutation goes
// through the registration facade and kind builders; direct access is the
// read/debug escape hatch only.
package store

import (
	"fmt"
	"sync"

	"casebook/internal/story"

	"go.uber.org/zap"
)

// entry pairs a record with the decorator-application hook it was registered
// with. The hook is bound to the default-decorator policy that was in effect
// at registration time.
type entry struct {
	rec   *story.Record
	apply story.ApplyFunc
}

// Store holds all registered metadata. It is safe for concurrent use, though
// the expected host drives registration from a single goroutine.
type Store struct {
	mu sync.RWMutex

	global    story.Metadata
	kinds     map[string]*story.Metadata
	kindOrder []string

	stories map[string]*entry
	order   []string

	enhancers []story.ParameterEnhancer

	revision int64

	log *zap.Logger
}

// New creates an empty store. A nil logger disables logging.
func New(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		kinds:   make(map[string]*story.Metadata),
		stories: make(map[string]*entry),
		log:     log,
	}
}

// RemoveOptions controls structural deletion. Normal API usage never removes
// stories; AllowUnsafe is set only by the hot-reload bridge.
type RemoveOptions struct {
	AllowUnsafe bool
}

// AddGlobalMetadata appends the given decorators and merges the given
// parameters into the global scope.
func (s *Store) AddGlobalMetadata(md story.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global.Decorators = append(s.global.Decorators, md.Decorators...)
	s.global.Parameters = story.Merge(s.global.Parameters, md.Parameters)
}

// AddParameterEnhancer registers an enhancer, applied at snapshot time for
// every story in registration order.
func (s *Store) AddParameterEnhancer(e story.ParameterEnhancer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enhancers = append(s.enhancers, e)
}

// ClearGlobalDecorators resets the global decorator list. Test harness use.
func (s *Store) ClearGlobalDecorators() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global.Decorators = nil
}

// AddKindMetadata appends decorators and merges parameters into the named
// kind's metadata, creating the kind entry if absent.
func (s *Store) AddKindMetadata(kind string, md story.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.ensureKindLocked(kind)
	k.Decorators = append(k.Decorators, md.Decorators...)
	k.Parameters = story.Merge(k.Parameters, md.Parameters)
}

// AddStory inserts a record together with its decorator-application hook.
// Duplicate ids are rejected with ErrDuplicateStory. Every successful insert
// bumps the revision counter.
func (s *Store) AddStory(rec *story.Record, apply story.ApplyFunc) error {
	if rec == nil {
		return ErrNilRecord
	}
	if rec.ID == "" {
		return fmt.Errorf("%w: kind %q, story %q", ErrEmptyID, rec.Kind, rec.Name)
	}
	if apply == nil {
		apply = story.Compose
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stories[rec.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateStory, rec.ID)
	}

	s.ensureKindLocked(rec.Kind)
	s.stories[rec.ID] = &entry{rec: rec, apply: apply}
	s.order = append(s.order, rec.ID)
	s.revision++

	s.log.Debug("registered story",
		zap.String("id", rec.ID),
		zap.String("kind", rec.Kind),
		zap.Int64("revision", s.revision))
	return nil
}

// Remove deletes one story by id. Refused without AllowUnsafe; bumps the
// revision counter on success.
func (s *Store) Remove(id string, opts RemoveOptions) error {
	if !opts.AllowUnsafe {
		return fmt.Errorf("%w: %s", ErrUnsafeRemoval, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stories[id]; !ok {
		return fmt.Errorf("%w: %s", ErrStoryNotFound, id)
	}
	s.removeLocked(id)
	return nil
}

// RemoveKind deletes every story registered under the given kind along with
// the kind's metadata. Refused without AllowUnsafe. Bumps the revision
// counter once per removed story.
func (s *Store) RemoveKind(kind string, opts RemoveOptions) error {
	if !opts.AllowUnsafe {
		return fmt.Errorf("%w: kind %s", ErrUnsafeRemoval, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range append([]string(nil), s.order...) {
		if s.stories[id].rec.Kind == kind {
			s.removeLocked(id)
		}
	}
	if _, ok := s.kinds[kind]; ok {
		delete(s.kinds, kind)
		for i, k := range s.kindOrder {
			if k == kind {
				s.kindOrder = append(s.kindOrder[:i], s.kindOrder[i+1:]...)
				break
			}
		}
	}
	return nil
}

// IncrementRevision bumps the staleness counter without a structural change.
// Add and remove operations bump it themselves; this is for hosts that need
// to force downstream caches to refresh.
func (s *Store) IncrementRevision() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revision++
	return s.revision
}

// Revision returns the current staleness counter. Strictly increases across
// every add and remove; meaningful only for staleness comparison.
func (s *Store) Revision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// StoryKinds returns the distinct kind names in first-registration order.
func (s *Store) StoryKinds() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.kindOrder...)
}

// Count returns the number of registered stories.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stories)
}

// Has reports whether a story with the given id is registered.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.stories[id]
	return ok
}

// ensureKindLocked creates the kind's metadata entry on first contact.
// Caller holds s.mu.
func (s *Store) ensureKindLocked(kind string) *story.Metadata {
	if k, ok := s.kinds[kind]; ok {
		return k
	}
	k := &story.Metadata{}
	s.kinds[kind] = k
	s.kindOrder = append(s.kindOrder, kind)
	return k
}

// removeLocked deletes one story and bumps the revision. Caller holds s.mu
// and has verified the id exists.
func (s *Store) removeLocked(id string) {
	rec := s.stories[id].rec
	delete(s.stories, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.revision++
	s.log.Debug("removed story",
		zap.String("id", id),
		zap.String("kind", rec.Kind),
		zap.Int64("revision", s.revision))
}
