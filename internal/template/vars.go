package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// AssembleVars builds the merged variable mapping for one render invocation.
// Precedence is explicit --var pairs over the vars file over derived defaults
// (repo_name, branch_name, version).
func AssembleVars(flagPairs []string, varsFile, repoRoot string) (map[string]string, error) {
	merged := derivedDefaults(repoRoot)

	if varsFile != "" {
		fileVars, err := LoadVarsFile(varsFile)
		if err != nil {
			return nil, err
		}
		for k, v := range fileVars {
			merged[k] = v
		}
	}

	flagVars, err := ParseVarFlags(flagPairs)
	if err != nil {
		return nil, err
	}
	for k, v := range flagVars {
		merged[k] = v
	}

	return merged, nil
}

// ParseVarFlags parses repeated key=value pairs from the command line.
func ParseVarFlags(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var format: %q (expected key=value)", pair)
		}
		vars[key] = value
	}
	return vars, nil
}

// LoadVarsFile reads a flat variable mapping from a JSON or YAML file.
// Scalar values are coerced to strings.
func LoadVarsFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vars file not found: %s", path)
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse vars file %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse vars file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("vars file must be .json or .yaml: %s", path)
	}

	vars := make(map[string]string, len(raw))
	for k, v := range raw {
		vars[k] = toString(v)
	}
	return vars, nil
}

// toString converts a scalar mapping value to its string representation.
func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

// derivedDefaults computes the fallback variables available to every render:
// the repository and branch names from the CI environment and the version
// from composer.json when present.
func derivedDefaults(repoRoot string) map[string]string {
	return map[string]string{
		"repo_name":   repoName(),
		"branch_name": os.Getenv("GITHUB_REF_NAME"),
		"version":     composerVersion(repoRoot),
	}
}

func repoName() string {
	repo := os.Getenv("GITHUB_REPOSITORY")
	if idx := strings.LastIndex(repo, "/"); idx >= 0 {
		return repo[idx+1:]
	}
	if repo != "" {
		return repo
	}
	return "unknown-repo"
}

func composerVersion(repoRoot string) string {
	data, err := os.ReadFile(filepath.Join(repoRoot, "composer.json"))
	if err != nil {
		return ""
	}
	var composer struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &composer); err != nil {
		return ""
	}
	return strings.TrimSpace(composer.Version)
}
