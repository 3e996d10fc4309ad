// Package worker pulls jobs off the queue and dispatches them by kind to
// exactly one registered processor.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pyronlaboratory/grapelock-sub001/internal/queue"
)

// Processor executes one job kind end to end and owns the entity the job
// references. It must tolerate re-delivery: the queue is at-least-once.
type Processor interface {
	Kind() queue.Kind
	Process(ctx context.Context, payload json.RawMessage) (result interface{}, err error)
}

// Registry maps job kinds to processors. Registration happens once at
// startup; a duplicate or missing kind is a configuration error.
type Registry struct {
	processors map[queue.Kind]Processor
}

func NewRegistry() *Registry {
	return &Registry{
		processors: make(map[queue.Kind]Processor),
	}
}

func (r *Registry) Register(p Processor) error {
	if _, exists := r.processors[p.Kind()]; exists {
		return fmt.Errorf("processor already registered for kind %q", p.Kind())
	}
	r.processors[p.Kind()] = p
	return nil
}

func (r *Registry) Get(kind queue.Kind) (Processor, bool) {
	p, ok := r.processors[kind]
	return p, ok
}
