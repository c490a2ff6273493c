package connector

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry is the process-wide singleton mapping sponsor_bank_code to
// its Connector implementation. Entries are registered at startup and
// read concurrently thereafter; it is never mutated once the server
// starts serving traffic.
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]Connector
}

func NewRegistry() *Registry {
	return &Registry{connectors: make(map[string]Connector)}
}

func (r *Registry) Register(sponsorBankCode string, c Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectors[sponsorBankCode] = c
	log.Info().
		Str("sponsor_bank_code", sponsorBankCode).
		Str("connector", c.Name()).
		Msg("registered bank connector")
}

func (r *Registry) Get(sponsorBankCode string) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[sponsorBankCode]
	if !ok {
		return nil, &Error{Code: "connector_not_found", Message: fmt.Sprintf("no connector registered for bank code %s", sponsorBankCode)}
	}
	return c, nil
}
