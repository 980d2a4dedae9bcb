package core

import (
	"fmt"
	"sort"
	"sync"
)

// Resource keys.
const (
	ResourceEquipment     = "equipment"
	ResourceSoftware      = "software"
	ResourceSubscriptions = "subscriptions"
)

var (
	registry   = make(map[string]*ResourceDefinition)
	registryMu sync.RWMutex
)

// Register adds a resource definition to the registry.
// Panics if a resource with the same key is already registered.
func Register(def ResourceDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("resource already registered: %s", def.Info.Key))
	}
	if def.Info.DefaultSort == "" {
		def.Info.DefaultSort = def.Info.IDColumn
	}

	registry[def.Info.Key] = &def
}

// Get returns a resource definition by key.
func Get(key string) (*ResourceDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// Lookup is Get with an error wrapping ErrNotFound for unknown keys.
func Lookup(key string) (*ResourceDefinition, error) {
	def, ok := Get(key)
	if !ok {
		return nil, fmt.Errorf("resource %q %w", key, ErrNotFound)
	}
	return def, nil
}

// All returns every registered definition sorted by key.
func All() []*ResourceDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]*ResourceDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// Clear removes all registered resources.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]*ResourceDefinition)
}
