package assistant

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed knowledge.yaml
var defaultKnowledge []byte

// Knowledge is the grounding given to the model on every call.
type Knowledge struct {
	SystemPrompt string   `yaml:"system_prompt"`
	Knowledge    string   `yaml:"knowledge"`
	Questions    []string `yaml:"questions"`
}

// DefaultKnowledge returns the built-in corn knowledge base.
func DefaultKnowledge() *Knowledge {
	k, err := ParseKnowledge(defaultKnowledge)
	if err != nil {
		panic(fmt.Sprintf("embedded knowledge.yaml: %v", err))
	}
	return k
}

// LoadKnowledge reads a knowledge file; an empty path means the built-in one.
func LoadKnowledge(path string) (*Knowledge, error) {
	if path == "" {
		return DefaultKnowledge(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge: %w", err)
	}
	return ParseKnowledge(b)
}

func ParseKnowledge(b []byte) (*Knowledge, error) {
	var k Knowledge
	if err := yaml.Unmarshal(b, &k); err != nil {
		return nil, fmt.Errorf("parse knowledge: %w", err)
	}
	if strings.TrimSpace(k.SystemPrompt) == "" && strings.TrimSpace(k.Knowledge) == "" {
		return nil, fmt.Errorf("parse knowledge: system_prompt or knowledge is required")
	}
	return &k, nil
}

// System joins the prompt, the knowledge base and an optional report context.
func (k *Knowledge) System(reportContext string) string {
	parts := []string{strings.TrimSpace(k.SystemPrompt), strings.TrimSpace(k.Knowledge)}
	if reportContext != "" {
		parts = append(parts, reportContext)
	}
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
