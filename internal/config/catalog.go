package config

import (
	"path/filepath"
	"strings"
)

// Catalog is a resolved, validated list of agent launch definitions. It is
// immutable once built; the watcher swaps in a whole new Catalog on reload.
type Catalog struct {
	agents []Agent
}

// NewCatalog builds a catalog from a validated agent list.
func NewCatalog(agents []Agent) *Catalog {
	return &Catalog{agents: agents}
}

// LoadCatalog loads the merged catalog (defaults + user file) from path.
func LoadCatalog(path string) (*Catalog, error) {
	agents, err := LoadMergedAgents(path)
	if err != nil {
		return nil, err
	}
	return NewCatalog(agents), nil
}

// Agents returns the catalog entries in sorted order.
func (c *Catalog) Agents() []Agent {
	return c.agents
}

// Len returns the number of agents in the catalog.
func (c *Catalog) Len() int {
	return len(c.agents)
}

// Lookup finds an agent by display name (case-insensitive, trimmed).
func (c *Catalog) Lookup(name string) (Agent, bool) {
	for _, a := range c.agents {
		if NamesMatch(a.Name, name) {
			return a, true
		}
	}
	return Agent{}, false
}

// FindByCommand matches a pane's displayed command line against the
// catalog. Hosts commonly replace a pane title with the running command,
// sometimes suffixed with " - <detail>"; the suffix is ignored. The full
// launch command line is tried first; some hosts only report the bare
// binary, so the command alone and its basename are accepted too. Matching
// ignores case.
func (c *Catalog) FindByCommand(commandLine string) (Agent, bool) {
	base := commandLine
	if i := strings.Index(base, " - "); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSpace(base)
	if base == "" {
		return Agent{}, false
	}

	for _, a := range c.agents {
		cmd := strings.TrimSpace(a.Command)
		if cmd == "" {
			continue
		}
		// Env assignments never show up in a pane title, so match on
		// command + args only.
		full := strings.Join(append([]string{cmd}, a.Args...), " ")
		if strings.EqualFold(full, base) ||
			strings.EqualFold(cmd, base) ||
			strings.EqualFold(filepath.Base(cmd), base) {
			return a, true
		}
	}
	return Agent{}, false
}
