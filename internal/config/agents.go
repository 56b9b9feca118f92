package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// MaxAgentNameLength bounds agent display names.
const MaxAgentNameLength = 64

// Agent is one named launch definition for an AI coding agent.
type Agent struct {
	// Name is the display name, unique within the catalog (case-insensitive).
	Name string `yaml:"name"`
	// Command is the executable to run.
	Command string `yaml:"command"`
	// Args are extra command-line arguments.
	Args []string `yaml:"args,omitempty"`
	// Env is prepended to the launch command as K=V pairs.
	Env map[string]string `yaml:"env,omitempty"`
	// Note is an optional free-form description.
	Note string `yaml:"note,omitempty"`
}

// LaunchCommand builds the full argv for the agent: env assignments,
// command, then args.
func (a Agent) LaunchCommand() []string {
	var parts []string
	keys := make([]string, 0, len(a.Env))
	for k := range a.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, a.Env[k]))
	}
	parts = append(parts, a.Command)
	parts = append(parts, a.Args...)
	return parts
}

// ParseEnv parses a comma-separated list of K=V pairs into an environment
// map. Empty input yields a nil map.
func ParseEnv(s string) (map[string]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	env := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q is not K=V", ErrInvalidEnv, pair)
		}
		env[key] = strings.TrimSpace(value)
	}
	if len(env) == 0 {
		return nil, nil
	}
	return env, nil
}

// FormatEnv renders an environment map in the comma-separated K=V form
// ParseEnv accepts, keys sorted.
func FormatEnv(env map[string]string) string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%s", k, env[k])
	}
	return strings.Join(pairs, ",")
}

// NamesMatch reports whether two agent names refer to the same agent.
// Comparison trims whitespace and ignores case.
func NamesMatch(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// DefaultAgents returns the built-in agent definitions.
func DefaultAgents() []Agent {
	return []Agent{
		{Name: "claude", Command: "claude", Note: "Default agent config"},
		{Name: "codex", Command: "codex", Note: "Default agent config"},
		{Name: "cursor", Command: "cursor-agent", Note: "Default agent config"},
		{Name: "gemini", Command: "gemini", Note: "Default agent config"},
	}
}

// IsDefaultAgent reports whether name is one of the built-in defaults.
func IsDefaultAgent(name string) bool {
	for _, a := range DefaultAgents() {
		if NamesMatch(a.Name, name) {
			return true
		}
	}
	return false
}

// ValidateAgents checks a catalog for empty names/commands, oversized or
// control-character names, and case-insensitive duplicates.
func ValidateAgents(agents []Agent) error {
	seen := make(map[string]bool, len(agents))
	for _, agent := range agents {
		name := strings.TrimSpace(agent.Name)
		if name == "" {
			return ErrAgentNameRequired
		}
		if err := validateAgentName(name); err != nil {
			return err
		}
		if strings.TrimSpace(agent.Command) == "" {
			return fmt.Errorf("%w: agent %q", ErrCommandRequired, name)
		}
		lower := strings.ToLower(name)
		if seen[lower] {
			return fmt.Errorf("%w: %s", ErrDuplicateAgentName, name)
		}
		seen[lower] = true
	}
	return nil
}

func validateAgentName(name string) error {
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: cannot contain control characters", ErrInvalidAgentName)
		}
	}
	if len(name) > MaxAgentNameLength {
		return fmt.Errorf("%w: cannot exceed %d characters", ErrInvalidAgentName, MaxAgentNameLength)
	}
	return nil
}

// LoadAgents reads user agent definitions from path. A missing or empty
// file yields an empty list.
func LoadAgents(path string) ([]Agent, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read agents file: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}

	var agents []Agent
	if err := yaml.Unmarshal(data, &agents); err != nil {
		return nil, fmt.Errorf("parse agents file: %w", err)
	}
	if err := ValidateAgents(agents); err != nil {
		return nil, err
	}
	return agents, nil
}

// SaveAgents writes user agent definitions to path atomically, creating
// parent directories as needed. The catalog is validated before anything
// touches disk.
func SaveAgents(path string, agents []Agent) error {
	if err := ValidateAgents(agents); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	payload, err := yaml.Marshal(agents)
	if err != nil {
		return fmt.Errorf("serialize agents: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0644); err != nil {
		return fmt.Errorf("write temp agents file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace agents file: %w", err)
	}
	return nil
}

// LoadMergedAgents loads user agents from path and merges them with the
// built-in defaults. A user entry with a default's name replaces that
// default. The result is sorted by name.
func LoadMergedAgents(path string) ([]Agent, error) {
	userAgents, err := LoadAgents(path)
	if err != nil {
		return nil, err
	}

	merged := DefaultAgents()
	for _, ua := range userAgents {
		replaced := false
		for i, a := range merged {
			if NamesMatch(a.Name, ua.Name) {
				merged[i] = ua
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, ua)
		}
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].Name < merged[j].Name })
	return merged, nil
}
