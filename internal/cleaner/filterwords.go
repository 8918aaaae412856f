package cleaner

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFilterWords reads the user-maintained filter-word list from a YAML
// file (a plain sequence of strings). The list is external, mutable
// configuration: a missing file simply means no filter words yet.
func LoadFilterWords(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read filter words %s: %w", path, err)
	}

	var words []string
	if err := yaml.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("failed to parse filter words %s: %w", path, err)
	}

	out := words[:0]
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w != "" {
			out = append(out, w)
		}
	}
	return out, nil
}
