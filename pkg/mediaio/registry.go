package mediaio

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

type backendWithPriority struct {
	Priority int
	Backend
}

var (
	backendRegistry       = map[reflect.Type]backendWithPriority{}
	backendRegistryLocker sync.Mutex
)

// RegisterBackend makes the backend available to Auto. A higher priority
// means the backend is tried earlier.
func RegisterBackend(
	priority int,
	backend Backend,
) {
	t := reflect.ValueOf(backend).Type()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	backendRegistryLocker.Lock()
	defer backendRegistryLocker.Unlock()
	if _, ok := backendRegistry[t]; ok {
		panic(fmt.Errorf("there is already registered a backend of type %v", t))
	}
	backendRegistry[t] = backendWithPriority{
		Priority: priority,
		Backend:  backend,
	}
}

// Backends returns the registered backends, the most preferred first.
func Backends() []Backend {
	backendRegistryLocker.Lock()
	var backendsWithPriorities []backendWithPriority
	for _, backend := range backendRegistry {
		backendsWithPriorities = append(backendsWithPriorities, backend)
	}
	backendRegistryLocker.Unlock()

	sortByPriority(backendsWithPriorities)

	var backends []Backend
	for _, backend := range backendsWithPriorities {
		backends = append(backends, backend.Backend)
	}
	return backends
}

func sortByPriority(backends []backendWithPriority) {
	sort.SliceStable(backends, func(i, j int) bool {
		if backends[i].Priority != backends[j].Priority {
			return backends[i].Priority > backends[j].Priority
		}
		return backends[i].Backend.String() < backends[j].Backend.String()
	})
}
