// Package engine implements the claim/allocation core: racing participants
// reserve disjoint item sets from a shared per-round pool, rounds complete
// when every catalog item is claimed, and retractions reopen them.
//
// All invariant-bearing sequences (read claimed set → check → write, and
// read order → mutate → flip status) run under a mutex keyed by instance
// id, so rounds serialize internally but never block each other.
package engine

import (
	"github.com/rs/zerolog"
)

// Engine bundles the wired claim components. Claims and Mutations share
// one set of per-instance locks; Instances guards round creation with its
// own per-breakdown locks.
type Engine struct {
	Claims    *Coordinator
	Mutations *MutationHandler
	Instances *InstanceManager
}

func New(catalog CatalogStore, orders OrderStore, instances InstanceStore, dispatcher Dispatcher, log zerolog.Logger) *Engine {
	detector := NewCompletionDetector(catalog, orders, instances)
	manager := NewInstanceManager(instances)
	locks := newKeyedMutex()

	return &Engine{
		Claims: &Coordinator{
			catalog:    catalog,
			orders:     orders,
			instances:  manager,
			detector:   detector,
			dispatcher: dispatcher,
			locks:      locks,
			log:        log,
		},
		Mutations: &MutationHandler{
			orders:    orders,
			instances: instances,
			manager:   manager,
			detector:  detector,
			locks:     locks,
			log:       log,
		},
		Instances: manager,
	}
}
