// Package config loads project configuration from .context/config.kdl
// (spec.md §6) as a typed, explicit record. An unrecognized top-level
// key is rejected with a ConfigError; unrecognized entries inside the
// weights block are ignored. Every field the system actually consults
// has a home here; there is no open-ended option bag.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	cerrors "github.com/standardbeagle/ctxpack/internal/errors"
)

// Weights mirrors the Scorer's default weights (spec.md §4.11) so a
// project can override any one of them without touching code.
type Weights struct {
	StacktraceHit float64
	DiffHit       float64
	SymbolMatch   float64
	KeywordMatch  float64
	GraphRelated  float64
	GitHotspot    float64
	TestFile      float64
	FileHintBoost float64
	DomainBoost   float64
}

// DefaultWeights returns the literal defaults from spec.md §4.11.
func DefaultWeights() Weights {
	return Weights{
		StacktraceHit: 1.00,
		DiffHit:       0.80,
		SymbolMatch:   0.60,
		KeywordMatch:  0.40,
		GraphRelated:  0.25,
		GitHotspot:    0.15,
		TestFile:      -0.15,
		FileHintBoost: 0.20,
		DomainBoost:   0.10,
	}
}

// Config is the project-level configuration record.
type Config struct {
	Root            string
	IncludePatterns []string
	ExcludePatterns []string
	MaxFileSize     int64
	BudgetTokens    int
	CustomDomains   string // path to a custom_domains.yaml, resolved relative to Root
	Weights         Weights
}

// Default returns the configuration used when no .context/config.kdl
// is present.
func Default(root string) *Config {
	return &Config{
		Root:            root,
		IncludePatterns: nil,
		ExcludePatterns: nil,
		MaxFileSize:     1024 * 1024, // 1 MiB, spec.md §4.2
		BudgetTokens:    8000,        // spec.md §4.13
		Weights:         DefaultWeights(),
	}
}

// Load reads .context/config.kdl under root, falling back to Default
// when the file does not exist. A malformed config file is a fatal
// ConfigError (spec.md §7).
func Load(root string) (*Config, error) {
	cfg := Default(root)

	path := filepath.Join(root, ".context", "config.kdl")
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, cerrors.Config("read", path, err)
	}

	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return nil, cerrors.Config("parse", path, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "max_file_size":
			if v, ok := firstIntArg(n); ok {
				cfg.MaxFileSize = int64(v)
			} else if s, ok := firstStringArg(n); ok {
				if sz, err := parseSize(s); err == nil {
					cfg.MaxFileSize = sz
				}
			}
		case "budget_tokens":
			if v, ok := firstIntArg(n); ok {
				cfg.BudgetTokens = v
			}
		case "include":
			cfg.IncludePatterns = append(cfg.IncludePatterns, collectStringArgs(n)...)
		case "exclude":
			cfg.ExcludePatterns = append(cfg.ExcludePatterns, collectStringArgs(n)...)
		case "custom_domains":
			if s, ok := firstStringArg(n); ok {
				if !filepath.IsAbs(s) {
					s = filepath.Join(root, s)
				}
				cfg.CustomDomains = s
			}
		case "weights":
			for _, cn := range n.Children {
				applyWeight(&cfg.Weights, nodeName(cn), cn)
			}
		default:
			return nil, cerrors.Config("parse", path, fmt.Errorf("unknown config key %q", nodeName(n)))
		}
	}

	return cfg, nil
}

func applyWeight(w *Weights, name string, n *document.Node) {
	v, ok := firstFloatArg(n)
	if !ok {
		return
	}
	switch name {
	case "stacktrace_hit":
		w.StacktraceHit = v
	case "diff_hit":
		w.DiffHit = v
	case "symbol_match":
		w.SymbolMatch = v
	case "keyword_match":
		w.KeywordMatch = v
	case "graph_related":
		w.GraphRelated = v
	case "git_hotspot":
		w.GitHotspot = v
	case "test_file":
		w.TestFile = v
	case "file_hint_boost":
		w.FileHintBoost = v
	case "domain_boost":
		w.DomainBoost = v
	}
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

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
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
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// parseSize handles size strings like "10MB", "500KB", "1GB".
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	var multiplier int64 = 1
	numStr := s
	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		numStr = strings.TrimSuffix(s, "B")
	}
	n, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return 0, err
	}
	return n * multiplier, nil
}
