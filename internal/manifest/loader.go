package manifest

import (
	"fmt"
	"os"

	"casebook/internal/registry"
	"casebook/internal/reload"
	"casebook/internal/story"

	"go.uber.org/zap"
)

// Catalog resolves decorator names referenced by manifests to the decorator
// implementations the host ships.
type Catalog map[string]story.Decorator

// Loader replays manifests through a registration facade.
type Loader struct {
	catalog Catalog
	log     *zap.Logger
}

// NewLoader creates a loader with the given decorator catalog. A nil logger
// disables logging.
func NewLoader(catalog Catalog, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{catalog: catalog, log: log}
}

// Register replays a manifest through the facade in declaration order:
// kind-level decorators and parameters first, then stories, so the one-time
// configuration rule is satisfied by construction. The module context is
// forwarded to the builder so reload disposal covers everything this
// manifest registers.
func (l *Loader) Register(reg *registry.Registry, m *Manifest, mod *reload.ModuleContext) error {
	b, err := reg.StoriesOf(m.Kind, mod)
	if err != nil {
		return err
	}

	for _, name := range m.Decorators {
		d, err := l.resolve(m.Kind, name)
		if err != nil {
			return err
		}
		if err := b.AddDecorator(d); err != nil {
			return err
		}
	}
	if len(m.Parameters) > 0 {
		if err := b.AddParameters(story.Parameters(m.Parameters)); err != nil {
			return err
		}
	}

	for _, st := range m.Stories {
		params := story.Clone(st.Parameters)
		if st.ID != "" {
			params = story.Merge(params, story.Parameters{story.IDKey: st.ID})
		}
		if len(st.Decorators) > 0 {
			locals := make([]story.Decorator, 0, len(st.Decorators))
			for _, name := range st.Decorators {
				d, err := l.resolve(m.Kind, name)
				if err != nil {
					return err
				}
				locals = append(locals, d)
			}
			params = story.Merge(params, story.Parameters{story.DecoratorsKey: locals})
		}
		if err := b.Add(st.Name, textRender(st), params); err != nil {
			return err
		}
	}

	l.log.Debug("registered manifest",
		zap.String("kind", m.Kind),
		zap.Int("stories", len(m.Stories)),
		zap.String("module", mod.ID()))
	return nil
}

// LoadAndRegister loads a manifest file and replays it.
func (l *Loader) LoadAndRegister(reg *registry.Registry, path string, mod *reload.ModuleContext) error {
	m, err := Load(path)
	if err != nil {
		return err
	}
	return l.Register(reg, m, mod)
}

func (l *Loader) resolve(kind, name string) (story.Decorator, error) {
	d, ok := l.catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q referenced by kind %q", ErrUnknownDecorator, name, kind)
	}
	return d, nil
}

// textRender builds the render function for a declared story: the manifest's
// text template with ${key} placeholders expanded against the effective
// parameters. An empty template renders the story name.
func textRender(st Story) story.RenderFn {
	text := st.Text
	if text == "" {
		text = st.Name
	}
	return func(ctx *story.Context) any {
		return os.Expand(text, func(key string) string {
			if v, ok := ctx.Parameters[key]; ok {
				return fmt.Sprint(v)
			}
			return ""
		})
	}
}
