package queues

import (
	"fmt"
	"strings"

	"reviewd/internal/config"
)

// SkipResponse is accepted by every queue. It records that a reviewer saw an
// item and declined to judge it; it never completes an item and never blocks a
// later substantive verdict.
const SkipResponse = "skip"

// Queue is one named category of review work. Immutable after registry load.
type Queue struct {
	Name               string
	Responses          []string
	Privilege          string
	DisqualifyResponse string
	DisqualifyVotes    int

	responseSet map[string]struct{}
}

// AllowsResponse reports whether response is valid for this queue. The
// implicit skip response is always allowed.
func (q *Queue) AllowsResponse(response string) bool {
	if response == SkipResponse {
		return true
	}
	_, ok := q.responseSet[response]
	return ok
}

// Registry holds the static set of configured review queues.
type Registry struct {
	byName  map[string]*Queue
	ordered []*Queue
}

// NewRegistry builds a registry from queue configuration. Configuration is
// expected to be validated already; NewRegistry still rejects duplicates so a
// hand-built config cannot corrupt lookups.
func NewRegistry(cfgs []config.Queue) (*Registry, error) {
	reg := &Registry{byName: make(map[string]*Queue, len(cfgs))}
	for _, qc := range cfgs {
		name := strings.ToLower(strings.TrimSpace(qc.Name))
		if name == "" {
			return nil, fmt.Errorf("queue with empty name")
		}
		if _, dup := reg.byName[name]; dup {
			return nil, fmt.Errorf("queue %q is defined more than once", name)
		}

		responses := make([]string, len(qc.Responses))
		copy(responses, qc.Responses)
		responseSet := make(map[string]struct{}, len(responses))
		for _, response := range responses {
			responseSet[response] = struct{}{}
		}

		q := &Queue{
			Name:               name,
			Responses:          responses,
			Privilege:          qc.Privilege,
			DisqualifyResponse: qc.DisqualifyResponse,
			DisqualifyVotes:    qc.DisqualifyVotes,
			responseSet:        responseSet,
		}
		reg.byName[name] = q
		reg.ordered = append(reg.ordered, q)
	}
	return reg, nil
}

// Find returns the queue matching name. Lookup is case-insensitive.
func (r *Registry) Find(name string) (*Queue, bool) {
	q, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return q, ok
}

// All returns the configured queues in configuration order.
func (r *Registry) All() []*Queue {
	out := make([]*Queue, len(r.ordered))
	copy(out, r.ordered)
	return out
}
