package toolchain

import (
	"os"
	"sync"

	"github.com/forgebuild/forge/internal/logging"
)

// EnvScope scopes MSVC environment activation: Activate mutates the
// process environment, Restore puts back exactly what was there before.
//
// The driver acquires exactly one EnvScope per build and restores it at
// the end: the environment is process-global and treated as read-only
// during a build, so MSVC setup mutates it exactly once, before any
// worker spawns.
type EnvScope struct {
	mu     sync.Mutex
	prior  map[string]*string // nil value means "was unset"
	active bool
}

// NewEnvScope returns an unactivated scope.
func NewEnvScope() *EnvScope {
	return &EnvScope{prior: make(map[string]*string)}
}

// Activate applies delta on top of the current process environment,
// recording the prior value of every touched key so Restore can put it
// back exactly.
func (s *EnvScope) Activate(delta map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		log := logging.For("toolchain")
		log.Warn().Msg("EnvScope activated twice; ignoring second activation")
		return
	}
	for key, val := range delta {
		if prev, ok := os.LookupEnv(key); ok {
			p := prev
			s.prior[key] = &p
		} else {
			s.prior[key] = nil
		}
		os.Setenv(key, val)
	}
	s.active = true
}

// Restore undoes Activate, restoring every touched variable to its prior
// value (or unsetting it if it was previously unset).
func (s *EnvScope) Restore() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	for key, prev := range s.prior {
		if prev == nil {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, *prev)
		}
	}
	s.active = false
}
