package relay

import "os"

// Env resolves named credentials and settings for one turn.
type Env interface {
	// Get returns the value for name and whether it is present.
	Get(name string) (string, bool)
}

// EnvMap is an Env that layers an inbound variables bag over the
// process environment: the bag wins, the environment is the fallback.
// Lookup never mutates process-wide state, so concurrent turns cannot
// leak credentials into each other.
type EnvMap map[string]string

var _ Env = EnvMap(nil)

// NewEnv builds an EnvMap from the inbound variables bag.
func NewEnv(vars []Variable) EnvMap {
	m := make(EnvMap, len(vars))
	for _, v := range vars {
		m[v.Name] = v.Value
	}
	return m
}

func (e EnvMap) Get(name string) (string, bool) {
	if v, ok := e[name]; ok && v != "" {
		return v, true
	}
	if v := os.Getenv(name); v != "" {
		return v, true
	}
	return "", false
}
