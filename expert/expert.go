// Package expert manages the named personas consulted during a consensus
// run. A persona is a system prompt plus an optional custom prompt template;
// the registry resolves persona slugs and lists all known personas in
// registration order so default runs are deterministic.
package expert

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultPromptTemplate is used when a persona defines no custom template.
// The placeholders {system_prompt} and {question} are substituted verbatim.
const DefaultPromptTemplate = "{system_prompt}\n\nQuestion: {question}"

// ErrUnknownExpert is returned when a persona slug cannot be resolved.
var ErrUnknownExpert = errors.New("unknown expert")

// Definition describes one expert persona.
type Definition struct {
	Name           string `yaml:"name" mapstructure:"name"`
	SystemPrompt   string `yaml:"system_prompt" mapstructure:"system_prompt"`
	Description    string `yaml:"description,omitempty" mapstructure:"description"`
	PromptTemplate string `yaml:"prompt_template,omitempty" mapstructure:"prompt_template"`
}

// BuildPrompt renders the persona-specific prompt for a question.
func (d Definition) BuildPrompt(question string) string {
	template := d.PromptTemplate
	if template == "" {
		template = DefaultPromptTemplate
	}
	r := strings.NewReplacer(
		"{system_prompt}", strings.TrimSpace(d.SystemPrompt),
		"{question}", strings.TrimSpace(question),
	)
	return r.Replace(template)
}

// Registry is an explicitly constructed persona directory handed to the
// orchestrator. Registration is synchronized; Slugs preserves registration
// order.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]Definition
	order []string
}

// NewRegistry constructs an empty persona registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register stores the definition under slug. Re-registering a slug replaces
// the definition but keeps its original position in the ordering.
func (r *Registry) Register(slug string, def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[slug]; !exists {
		r.order = append(r.order, slug)
	}
	r.defs[slug] = def
}

// Get resolves a persona slug.
func (r *Registry) Get(slug string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[slug]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownExpert, slug)
	}
	return def, nil
}

// Slugs returns all registered persona slugs in registration order.
func (r *Registry) Slugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered personas.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// RegisterFile loads persona definitions from a YAML document mapping slug to
// definition and registers them in document order.
func (r *Registry) RegisterFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read expert definitions: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse expert definitions: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("expert definitions in %s must be a mapping of slug to definition", path)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		slug := root.Content[i].Value
		var def Definition
		if err := root.Content[i+1].Decode(&def); err != nil {
			return fmt.Errorf("decode expert %q: %w", slug, err)
		}
		if def.Name == "" {
			def.Name = titleFromSlug(slug)
		}
		r.Register(slug, def)
	}
	return nil
}

// titleFromSlug derives a display name from a slug ("systems_architect" ->
// "Systems Architect").
func titleFromSlug(slug string) string {
	words := strings.Split(slug, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
