package registry

import "errors"

// Registration errors.
var (
	// ErrNotInitialized is returned when a facade operation runs before the
	// registry has been constructed around a store.
	ErrNotInitialized = errors.New("registry not initialized")

	// ErrEmptyKind is returned when a kind name is empty or blank.
	ErrEmptyKind = errors.New("kind name cannot be empty")

	// ErrEmptyStoryName is returned when a story name is empty or blank.
	ErrEmptyStoryName = errors.New("story name cannot be empty")

	// ErrNilRender is returned when a story is added without a render function.
	ErrNilRender = errors.New("render function cannot be nil")

	// ErrNilDecorator is returned when registering a nil decorator.
	ErrNilDecorator = errors.New("decorator cannot be nil")

	// ErrNilEnhancer is returned when registering a nil parameter enhancer.
	ErrNilEnhancer = errors.New("parameter enhancer cannot be nil")

	// ErrKindLocked is returned when kind-level decorators or parameters are
	// registered after the kind's first story. Configure the kind fully
	// before the first Add call.
	ErrKindLocked = errors.New("kind is locked")

	// ErrEmptyAddonName is returned when registering an addon without a name.
	ErrEmptyAddonName = errors.New("addon name cannot be empty")

	// ErrNilAddon is returned when registering a nil addon handler.
	ErrNilAddon = errors.New("addon handler cannot be nil")

	// ErrAddonNotFound is returned when invoking an addon the builder does
	// not carry.
	ErrAddonNotFound = errors.New("addon not found")
)
