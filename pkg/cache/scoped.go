package cache

// Scoped wraps a Cache so that every slot lives below a fixed stage.
// The harvest, process and deposit stages each get their own view:
//
//	harvest := NewScoped(c, "harvest")
//	harvest.Store(data, "cff")  // <root>/harvest/cff.json
type Scoped struct {
	inner Cache
	stage string
}

// NewScoped creates a view of inner rooted at stage.
func NewScoped(inner Cache, stage string) *Scoped {
	return &Scoped{inner: inner, stage: stage}
}

// Stage returns the stage name this view is bound to.
func (s *Scoped) Stage() string { return s.stage }

// Init marks the stage as started.
func (s *Scoped) Init() error { return s.inner.Init(s.stage) }

// Initialized reports whether the stage has been started.
func (s *Scoped) Initialized() bool { return s.inner.Initialized(s.stage) }

// Path resolves a slot below the stage.
func (s *Scoped) Path(create bool, parts ...string) (string, error) {
	return s.inner.Path(create, s.parts(parts)...)
}

// Load reads a slot below the stage.
func (s *Scoped) Load(v any, parts ...string) error {
	return s.inner.Load(v, s.parts(parts)...)
}

// Store writes a slot below the stage.
func (s *Scoped) Store(v any, parts ...string) error {
	return s.inner.Store(v, s.parts(parts)...)
}

func (s *Scoped) parts(parts []string) []string {
	return append([]string{s.stage}, parts...)
}
