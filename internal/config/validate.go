package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ReservedResponse is the response label every queue accepts implicitly and
// that no queue may configure explicitly.
const ReservedResponse = "skip"

// Validate checks the configuration for inconsistencies that would break the
// daemon at runtime. It returns the first problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.APIBind != "" {
		if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
			return fmt.Errorf("paths.api_bind %q is not host:port: %w", c.Paths.APIBind, err)
		}
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (console, json)", c.Logging.Format)
	}

	if c.Sweep.Interval < 0 {
		return errors.New("sweep.interval must not be negative")
	}

	seenQueues := make(map[string]struct{}, len(c.Queues))
	for i := range c.Queues {
		if err := validateQueue(&c.Queues[i], seenQueues); err != nil {
			return err
		}
	}

	seenTokens := make(map[string]struct{}, len(c.Principals))
	seenNames := make(map[string]struct{}, len(c.Principals))
	for _, p := range c.Principals {
		if p.Name == "" {
			return errors.New("principal.name must be set")
		}
		if p.Token == "" {
			return fmt.Errorf("principal %q: token must be set", p.Name)
		}
		if _, dup := seenNames[p.Name]; dup {
			return fmt.Errorf("principal %q is defined more than once", p.Name)
		}
		seenNames[p.Name] = struct{}{}
		if _, dup := seenTokens[p.Token]; dup {
			return fmt.Errorf("principal %q: token is already assigned to another principal", p.Name)
		}
		seenTokens[p.Token] = struct{}{}
	}

	return nil
}

func validateQueue(q *Queue, seen map[string]struct{}) error {
	if q.Name == "" {
		return errors.New("queue.name must be set")
	}
	if _, dup := seen[q.Name]; dup {
		return fmt.Errorf("queue %q is defined more than once", q.Name)
	}
	seen[q.Name] = struct{}{}

	if len(q.Responses) == 0 {
		return fmt.Errorf("queue %q: responses must list at least one value", q.Name)
	}
	responseSet := make(map[string]struct{}, len(q.Responses))
	for _, response := range q.Responses {
		if response == ReservedResponse {
			return fmt.Errorf("queue %q: %q is implicit and must not be configured", q.Name, ReservedResponse)
		}
		if _, dup := responseSet[response]; dup {
			return fmt.Errorf("queue %q: response %q is listed more than once", q.Name, response)
		}
		responseSet[response] = struct{}{}
	}

	if q.Privilege == "" {
		return fmt.Errorf("queue %q: privilege must be set", q.Name)
	}

	if q.DisqualifyResponse != "" {
		if _, ok := responseSet[q.DisqualifyResponse]; !ok {
			return fmt.Errorf("queue %q: disqualify_response %q is not a configured response", q.Name, q.DisqualifyResponse)
		}
		if q.DisqualifyVotes < 1 {
			return fmt.Errorf("queue %q: disqualify_votes must be at least 1", q.Name)
		}
	}

	return nil
}
