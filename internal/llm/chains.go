package llm

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Chains holds named fallback-chain presets so ops can tune model order
// without a code change.
type Chains struct {
	Default string              `yaml:"default"`
	Chains  map[string][]string `yaml:"chains"`
}

// LoadChains reads chain presets from a YAML file.
func LoadChains(path string) (*Chains, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "llm: read chains file %s", path)
	}

	var c Chains
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrap(err, "llm: parse chains file")
	}
	return &c, nil
}

// Select returns the preset with the given name, falling back to the file's
// default selector when name is empty.
func (c *Chains) Select(name string) ([]string, error) {
	if name == "" {
		name = c.Default
	}
	if name == "" {
		return nil, eris.New("llm: no chain preset selected and no default set")
	}
	models, ok := c.Chains[name]
	if !ok {
		return nil, eris.Errorf("llm: unknown chain preset %q", name)
	}
	if len(models) == 0 {
		return nil, eris.Errorf("llm: chain preset %q is empty", name)
	}
	return models, nil
}
