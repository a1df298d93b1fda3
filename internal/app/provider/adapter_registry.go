package provider

import (
	"sort"
	"strings"

	"token_aggregator/internal/app/port"
)

// AdapterRegistry resolves chain names to their adapters. Adding a chain adds
// an adapter implementation, not another conditional branch in the services.
type AdapterRegistry struct {
	adapters map[string]port.ChainAdapter
}

// NewAdapterRegistry indexes the given adapters by their lowercase chain name.
func NewAdapterRegistry(adapters ...port.ChainAdapter) *AdapterRegistry {
	indexed := make(map[string]port.ChainAdapter, len(adapters))
	for _, a := range adapters {
		indexed[strings.ToLower(a.Chain())] = a
	}
	return &AdapterRegistry{adapters: indexed}
}

// Get returns the adapter for the chain, case-insensitively.
func (r *AdapterRegistry) Get(chain string) (port.ChainAdapter, bool) {
	a, ok := r.adapters[strings.ToLower(chain)]
	return a, ok
}

// Chains lists the supported chain names, sorted.
func (r *AdapterRegistry) Chains() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
