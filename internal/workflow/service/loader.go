// Package service loads workflow definitions from YAML files.
package service

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/allisson/occam/internal/errors"
	"github.com/allisson/occam/internal/workflow/domain"
)

// definitionFile is the YAML layout of one workflow definition:
//
//	id: form-submission
//	name: Form submission
//	steps:
//	  - id: intake
//	    agent: account-agent
//	    timeout: 10s
//	    config:
//	      source: portal
type definitionFile struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Steps       []stepFile `yaml:"steps"`
}

type stepFile struct {
	ID      string         `yaml:"id"`
	Name    string         `yaml:"name"`
	Agent   string         `yaml:"agent"`
	Timeout string         `yaml:"timeout"`
	Config  map[string]any `yaml:"config"`
}

// ParseDefinition decodes and validates one YAML workflow definition.
func ParseDefinition(content []byte) (*domain.Definition, error) {
	var file definitionFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, apperrors.Wrap(domain.ErrInvalidWorkflowDefinition, err.Error())
	}

	definition := &domain.Definition{
		ID:          file.ID,
		Name:        file.Name,
		Description: file.Description,
		Steps:       make([]domain.Step, 0, len(file.Steps)),
	}
	for _, step := range file.Steps {
		var timeout time.Duration
		if step.Timeout != "" {
			parsed, err := time.ParseDuration(step.Timeout)
			if err != nil {
				return nil, apperrors.Wrap(
					domain.ErrInvalidWorkflowDefinition,
					fmt.Sprintf("step %s: invalid timeout %q", step.ID, step.Timeout),
				)
			}
			timeout = parsed
		}
		definition.Steps = append(definition.Steps, domain.Step{
			ID:      step.ID,
			Name:    step.Name,
			AgentID: step.Agent,
			Config:  step.Config,
			Timeout: timeout,
		})
	}

	if err := definition.Validate(); err != nil {
		return nil, err
	}
	return definition, nil
}

// LoadDefinitions parses every .yaml and .yml file of dir in lexical order.
func LoadDefinitions(dir string) ([]*domain.Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read workflow definitions directory")
	}

	var names []string
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !entry.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, entry.Name())
		}
	}
	slices.Sort(names)

	definitions := make([]*domain.Definition, 0, len(names))
	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, apperrors.Wrapf(err, "failed to read %s", name)
		}
		definition, err := ParseDefinition(content)
		if err != nil {
			return nil, apperrors.Wrap(err, name)
		}
		definitions = append(definitions, definition)
	}
	return definitions, nil
}
