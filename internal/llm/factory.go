package llm

import (
	"fmt"
	"sort"
	"sync"

	"github.com/freeflowlabs/freeflow/internal/config"
)

// Factory constructs a provider from its resolved configuration. Adapters
// register themselves under their canonical lowercase name in init().
type Factory func(cfg config.ProviderConfig) (Provider, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("provider factory %s already registered", name))
	}
	factories[name] = f
}

func Get(name string) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("provider factory not found for: %s", name)
	}
	return f, nil
}

// Names lists the registered provider names, sorted for stable iteration.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
