// Package cfgfile loads the server's own workspace configuration file,
// .uvls.kdl, the knobs spec.md §6 names (workspace root override, the
// config-file routing glob, the link debounce interval, log level).
// Grounded on standardbeagle-lci/internal/config/kdl_config.go's
// parseKDL: the same kdl-go document walk and firstIntArg/
// firstStringArg/firstBoolArg/collectStringArgs helper shapes, adapted
// to this server's own node names.
package cfgfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// FileName is the configuration file this package looks for at the
// workspace root.
const FileName = ".uvls.kdl"

// Config is the server's own settings, as opposed to anything coming
// from the LSP client's initializationOptions. DebounceInterval is parsed
// and reported here, but the pipeline's link actor does not read it: it
// always debounces at a fixed 100ms.
type Config struct {
	Root             string
	ConfigFileGlobs  []string
	Exclude          []string
	DebounceInterval time.Duration
	LogLevel         string
}

// Default returns the settings used when no .uvls.kdl exists.
func Default(workspaceRoot string) Config {
	return Config{
		Root:             workspaceRoot,
		ConfigFileGlobs:  []string{"**/*.json"},
		Exclude:          []string{"**/.git/**"},
		DebounceInterval: 100 * time.Millisecond,
		LogLevel:         "info",
	}
}

// Load reads workspaceRoot/.uvls.kdl if present, returning Default
// overlaid with whatever it sets. A missing file is not an error.
func Load(workspaceRoot string) (Config, error) {
	cfg := Default(workspaceRoot)

	path := filepath.Join(workspaceRoot, FileName)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("cfgfile: reading %s: %w", path, err)
	}

	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return cfg, fmt.Errorf("cfgfile: parsing %s: %w", path, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "root":
			if s, ok := firstStringArg(n); ok {
				if filepath.IsAbs(s) {
					cfg.Root = s
				} else {
					cfg.Root = filepath.Clean(filepath.Join(workspaceRoot, s))
				}
			}
		case "config_files":
			if globs := collectStringArgs(n); len(globs) > 0 {
				cfg.ConfigFileGlobs = globs
			}
		case "exclude":
			if globs := collectStringArgs(n); len(globs) > 0 {
				cfg.Exclude = globs
			}
		case "debounce_ms":
			if v, ok := firstIntArg(n); ok {
				cfg.DebounceInterval = time.Duration(v) * time.Millisecond
			}
		case "log_level":
			if s, ok := firstStringArg(n); ok {
				cfg.LogLevel = s
			}
		}
	}
	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

// collectStringArgs reads a node's string arguments, falling back to
// reading child node names for the KDL block form (exclude { "a" "b" }).
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, c := range n.Children {
			out = append(out, nodeName(c))
		}
	}
	return out
}
