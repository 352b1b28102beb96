package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// envPattern matches ${VAR} and ${VAR:-default} expressions in vestnik.yaml.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// Load reads vestnik.yaml, expands ${VAR} references against the process
// environment (a dotenv file, if any, is loaded before this runs) and parses
// the result into a Config.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	expanded, err := expandEnv(raw)
	if err != nil {
		return nil, fmt.Errorf("config: expanding variables in %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// expandEnv substitutes ${VAR} and ${VAR:-default} in the raw YAML. A
// variable with neither an environment value nor a default (typically a
// missing VESTNIK_BOT_TOKEN) is reported; all unresolved names are collected
// into one error so the operator fixes them in a single pass.
func expandEnv(raw []byte) ([]byte, error) {
	var unresolved []error

	expanded := envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		subs := envPattern.FindSubmatch(match)
		name := string(subs[1])

		if value, ok := os.LookupEnv(name); ok {
			return []byte(value)
		}
		if subs[2] != nil {
			return subs[2]
		}

		unresolved = append(unresolved, fmt.Errorf("unresolved variable: %s", name))
		return match
	})

	return expanded, errors.Join(unresolved...)
}
