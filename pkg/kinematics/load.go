package kinematics

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a ModelSpec from YAML and compiles it.
func ParseYAML(data []byte) (*Chain, error) {
	var spec ModelSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return New(spec)
}

// LoadFile reads and compiles a YAML model file.
func LoadFile(path string) (*Chain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return ParseYAML(data)
}

// Load returns the chain selected by a model file or a built-in name. The
// file wins when both are set.
func Load(model, file string) (*Chain, error) {
	if file != "" {
		return LoadFile(file)
	}
	return Builtin(model)
}
