package service

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/allisson/occam/internal/agent/domain"
	apperrors "github.com/allisson/occam/internal/errors"
)

// agentsFile is the YAML layout of the agents configuration:
//
//	agents:
//	  - id: payment-gateway
//	    name: Payment Gateway
//	    kind: payment
//	    url: https://payments.internal/execute
//	    timeout: 10s
type agentsFile struct {
	Agents []agentSpec `yaml:"agents"`
}

type agentSpec struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"`
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

// LoadWebhookAgents parses a YAML agents file into webhook agents.
func LoadWebhookAgents(path string) ([]domain.Agent, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read agents file")
	}
	return ParseWebhookAgents(content)
}

// ParseWebhookAgents decodes YAML agent declarations into webhook agents.
func ParseWebhookAgents(content []byte) ([]domain.Agent, error) {
	var file agentsFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse agents file")
	}

	agents := make([]domain.Agent, 0, len(file.Agents))
	for i, spec := range file.Agents {
		kind := domain.Kind(spec.Kind)
		if spec.ID == "" || spec.URL == "" || !kind.Valid() {
			return nil, apperrors.Wrapf(domain.ErrInvalidAgent, "agent #%d", i+1)
		}

		var timeout time.Duration
		if spec.Timeout != "" {
			parsed, err := time.ParseDuration(spec.Timeout)
			if err != nil {
				return nil, apperrors.Wrapf(domain.ErrInvalidAgent, "agent %s: invalid timeout", spec.ID)
			}
			timeout = parsed
		}

		name := spec.Name
		if name == "" {
			name = spec.ID
		}
		agents = append(agents, NewWebhookAgent(spec.ID, name, kind, spec.URL, timeout))
	}
	return agents, nil
}
