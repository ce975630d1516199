package expert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinition_BuildPrompt(t *testing.T) {
	def := Definition{Name: "Tester", SystemPrompt: "  You test things.  "}
	prompt := def.BuildPrompt("  Does it work?  ")
	assert.Equal(t, "You test things.\n\nQuestion: Does it work?", prompt)
}

func TestDefinition_BuildPromptCustomTemplate(t *testing.T) {
	def := Definition{
		Name:           "Tester",
		SystemPrompt:   "You test things.",
		PromptTemplate: "[{system_prompt}] Q: {question}",
	}
	assert.Equal(t, "[You test things.] Q: why?", def.BuildPrompt("why?"))
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register("a", Definition{Name: "A"})
	r.Register("b", Definition{Name: "B"})

	def, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "A", def.Name)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownExpert)
}

func TestRegistry_SlugsPreserveRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register("c", Definition{Name: "C"})
	r.Register("a", Definition{Name: "A"})
	r.Register("b", Definition{Name: "B"})
	// Replacement keeps the original position.
	r.Register("a", Definition{Name: "A2"})

	assert.Equal(t, []string{"c", "a", "b"}, r.Slugs())
	def, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "A2", def.Name)
}

func TestNewDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, []string{
		SlugPragmaticEngineer,
		SlugSystemsArchitect,
		SlugSecurityAnalyst,
	}, r.Slugs())

	def, err := r.Get(SlugSystemsArchitect)
	require.NoError(t, err)
	assert.Equal(t, "Systems Architect", def.Name)
	assert.Contains(t, def.SystemPrompt, "scalability")
}

func TestRegistry_RegisterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "experts.yml")
	doc := `
cost_controller:
  name: Cost Controller
  system_prompt: You watch budgets.
ux_advocate:
  system_prompt: You champion users.
  prompt_template: "{system_prompt} -- {question}"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	r := NewRegistry()
	require.NoError(t, r.RegisterFile(path))

	assert.Equal(t, []string{"cost_controller", "ux_advocate"}, r.Slugs())

	def, err := r.Get("ux_advocate")
	require.NoError(t, err)
	assert.Equal(t, "Ux Advocate", def.Name, "name derived from slug when omitted")
	assert.Equal(t, "You champion users. -- why?", def.BuildPrompt("why?"))
}

func TestRegistry_RegisterFileRejectsNonMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "experts.yml")
	require.NoError(t, os.WriteFile(path, []byte("- a\n- b\n"), 0o644))

	r := NewRegistry()
	assert.Error(t, r.RegisterFile(path))
}
