package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// loadConfigFile reads a YAML config file into the raw map consumed by
// core.CfgxConfigProvider. Keys follow the koanf tags on core.Config.
func loadConfigFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("deliverect: read config %s: %w", path, err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("deliverect: parse config %s: %w", path, err)
	}
	return raw, nil
}

// parseParams turns repeated key=value flags into operation parameters.
// Values stay strings; JSON parameters are decoded by the catalog.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("deliverect: invalid --param %q, expected key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}
