package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a contract from a JSON or YAML file, chosen by extension, and
// validates it.
func Load(path string) (*Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("contract: read %s: %w", path, err)
	}
	var c Contract
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("contract: parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("contract: parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("contract: %s: unsupported extension %q (want .json, .yaml or .yml)", path, ext)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
