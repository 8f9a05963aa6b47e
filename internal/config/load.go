package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads and decodes a recipe file. It does not validate; callers run
// ValidateRecipe over the result and decide how to treat warnings.
func Load(path string) (Recipe, error) {
	f, err := os.Open(path)
	if err != nil {
		return Recipe{}, fmt.Errorf("open recipe: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	var r Recipe
	if err := dec.Decode(&r); err != nil {
		return Recipe{}, fmt.Errorf("decode recipe %s: %w", path, err)
	}
	return r, nil
}
