package store

import "casebook/internal/story"

// Entry is one story in the denormalized snapshot view: decorators composed,
// parameters merged across all scopes, enhancers applied.
type Entry struct {
	ID         string
	Kind       string
	Name       string
	Parameters story.Parameters
	Render     story.RenderFn
}

// Context builds the render context for this entry.
func (e Entry) Context() *story.Context {
	return &story.Context{
		Kind:       e.Kind,
		Name:       e.Name,
		ID:         e.ID,
		Parameters: e.Parameters,
	}
}

// KindSet groups a snapshot by kind.
type KindSet struct {
	Kind    string
	Stories []Entry
}

// Snapshot returns the fully composed view of every registered story in
// registration order.
//
// Effective parameters are global, overridden by kind, overridden by
// story-local, overridden by enhancer output, in that order. Effective
// decorators are global ++ kind ++ story, composed outer-to-inner through the
// apply hook the story was registered with. An enhancer error aborts the
// whole snapshot and propagates to the caller.
func (s *Store) Snapshot() ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		e := s.stories[id]
		entry, err := s.composeLocked(e)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

// ByKind returns the snapshot grouped by kind, kinds in first-registration
// order and stories in registration order within each kind.
func (s *Store) ByKind() ([]KindSet, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	kinds := append([]string(nil), s.kindOrder...)
	s.mu.RUnlock()

	byKind := make(map[string][]Entry, len(kinds))
	for _, e := range snap {
		byKind[e.Kind] = append(byKind[e.Kind], e)
	}

	out := make([]KindSet, 0, len(kinds))
	for _, kind := range kinds {
		out = append(out, KindSet{Kind: kind, Stories: byKind[kind]})
	}
	return out, nil
}

// composeLocked builds the denormalized entry for one story. Caller holds
// s.mu for reading.
func (s *Store) composeLocked(e *entry) (Entry, error) {
	rec := e.rec

	params := story.Clone(s.global.Parameters)
	if kmd, ok := s.kinds[rec.Kind]; ok {
		params = story.Merge(params, kmd.Parameters)
	}
	params = story.Merge(params, rec.Parameters)

	ctx := &story.Context{
		Kind:       rec.Kind,
		Name:       rec.Name,
		ID:         rec.ID,
		Parameters: params,
	}
	for _, enhance := range s.enhancers {
		extra, err := enhance(ctx)
		if err != nil {
			return Entry{}, err
		}
		params = story.Merge(params, extra)
		ctx.Parameters = params
	}

	var decorators []story.Decorator
	decorators = append(decorators, s.global.Decorators...)
	if kmd, ok := s.kinds[rec.Kind]; ok {
		decorators = append(decorators, kmd.Decorators...)
	}
	decorators = append(decorators, rec.Decorators...)

	return Entry{
		ID:         rec.ID,
		Kind:       rec.Kind,
		Name:       rec.Name,
		Parameters: params,
		Render:     e.apply(decorators, rec.Render),
	}, nil
}
