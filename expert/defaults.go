package expert

// Default persona slugs.
const (
	SlugPragmaticEngineer = "pragmatic_engineer"
	SlugSystemsArchitect  = "systems_architect"
	SlugSecurityAnalyst   = "security_analyst"
)

// Defaults returns the built-in persona definitions in their canonical order.
func Defaults() map[string]Definition {
	return map[string]Definition{
		SlugPragmaticEngineer: {
			Name: "Pragmatic Engineer",
			SystemPrompt: "You are a pragmatic engineer evaluating trade-offs and " +
				"implementation details. Focus on practicality, delivery risk, " +
				"and incremental rollout strategies.",
		},
		SlugSystemsArchitect: {
			Name: "Systems Architect",
			SystemPrompt: "You are a systems architect analysing scalability, " +
				"maintainability, and integration with existing systems. Consider " +
				"long-term implications and architectural patterns.",
		},
		SlugSecurityAnalyst: {
			Name: "Security Analyst",
			SystemPrompt: "You are a security analyst assessing threats, vulnerabilities, " +
				"and compliance impacts. Highlight potential mitigations and " +
				"residual risks.",
		},
	}
}

// NewDefaultRegistry constructs a registry pre-populated with the built-in
// personas.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, slug := range []string{SlugPragmaticEngineer, SlugSystemsArchitect, SlugSecurityAnalyst} {
		r.Register(slug, Defaults()[slug])
	}
	return r
}
