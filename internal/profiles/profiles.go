// Package profiles defines named bundles of search parameters so callers
// can ask for "recent" or "deep" search behavior instead of tuning every
// weight by hand.
package profiles

import "fmt"

// TimeDecay configures the recency boost applied to similarity scores.
type TimeDecay struct {
	Enabled       bool
	HalfLifeDays  int
	MaxBoost      float64
}

// Profile is one named bundle of search parameters.
type Profile struct {
	Name        string
	DisplayName string
	Description string

	// HybridWeight is the semantic weight (lexical gets 1 - HybridWeight);
	// a retrieval list runs only when its weight is above zero, and RRF
	// fusion of the lists is unweighted. 0.0 = pure BM25, 1.0 = pure semantic.
	HybridWeight float64
	BM25Boost    float64

	TimeDecay  TimeDecay
	MaxAgeDays int // 0 = no hard cutoff

	CrossEncoderEnabled bool

	ChunkingEnabled bool
	ChunkSize       int
	ChunkOverlap    int

	ShowChunkContext  bool
	MaxResultsPerFile int
}

// Built-in profile names.
const (
	Repos    = "repos"
	Recent   = "recent"
	Deep     = "deep"
	Keywords = "keywords"
	Default  = "default"
)

var builtins = map[string]Profile{
	Repos: {
		Name: Repos, DisplayName: "Repos & Tech",
		Description:         "Find tools, libraries, and references by keyword rather than prose similarity",
		HybridWeight:        0.3,
		BM25Boost:            2.0,
		CrossEncoderEnabled: false,
		ChunkingEnabled:     false,
		MaxResultsPerFile:   1,
	},
	Recent: {
		Name: Recent, DisplayName: "Recent Work",
		Description:         "Find what was written or saved recently",
		HybridWeight:        0.5,
		BM25Boost:            1.0,
		TimeDecay:            TimeDecay{Enabled: true, HalfLifeDays: 7, MaxBoost: 0.5},
		MaxAgeDays:           90,
		CrossEncoderEnabled: true,
		ChunkingEnabled:     true,
		ChunkSize:           2000,
		ChunkOverlap:        400,
		MaxResultsPerFile:   1,
	},
	Deep: {
		Name: Deep, DisplayName: "Deep Reading",
		Description:         "Search long-form content with full context",
		HybridWeight:        0.8,
		BM25Boost:            1.0,
		CrossEncoderEnabled: true,
		ChunkingEnabled:     true,
		ChunkSize:           2000,
		ChunkOverlap:        400,
		ShowChunkContext:    true,
		MaxResultsPerFile:   3,
	},
	Keywords: {
		Name: Keywords, DisplayName: "Keyword Search",
		Description:         "Exact keyword matching for technical terms, names, phrases",
		HybridWeight:        0.2,
		BM25Boost:            1.5,
		CrossEncoderEnabled: false,
		ChunkingEnabled:     true,
		ChunkSize:           2000,
		ChunkOverlap:        400,
		MaxResultsPerFile:   1,
	},
	Default: {
		Name: Default, DisplayName: "Balanced",
		Description:         "General-purpose hybrid search",
		HybridWeight:        0.5,
		BM25Boost:            1.0,
		TimeDecay:            TimeDecay{Enabled: true, HalfLifeDays: 90, MaxBoost: 0.2},
		CrossEncoderEnabled: true,
		ChunkingEnabled:     true,
		ChunkSize:           2000,
		ChunkOverlap:        400,
		MaxResultsPerFile:   1,
	},
}

// Registry holds the built-in profiles plus any caller-registered custom
// ones. Custom profiles may not reuse a built-in name.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry returns a Registry seeded with the five built-in profiles.
func NewRegistry() *Registry {
	profiles := make(map[string]Profile, len(builtins))
	for k, v := range builtins {
		profiles[k] = v
	}
	return &Registry{profiles: profiles}
}

// Get returns the named profile, or an error if it doesn't exist.
func (r *Registry) Get(name string) (Profile, error) {
	p, ok := r.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown search profile %q", name)
	}
	return p, nil
}

// Register adds a custom profile. It rejects names that collide with a
// built-in profile, so a misconfigured custom profile can never silently
// shadow one of the five defaults.
func (r *Registry) Register(p Profile) error {
	if _, isBuiltin := builtins[p.Name]; isBuiltin {
		return fmt.Errorf("profile name %q collides with a built-in profile", p.Name)
	}
	r.profiles[p.Name] = p
	return nil
}

// Names returns every registered profile name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	return names
}
