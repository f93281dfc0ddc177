// Package domains implements the DomainManager of spec.md §4.9: a
// built-in keyword table per domain, plus project-custom domains
// loaded from YAML, matched against a token set to produce selected
// domains and their weights. Grounded on the teacher's
// internal/semantic/translation_loader.go pattern of loading a
// keyword dictionary from a project config file and merging it with
// built-in defaults.
package domains

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	cerrors "github.com/standardbeagle/ctxpack/internal/errors"
)

// CoreDomains are the built-in domain keyword tables. Names are
// chosen to match common application concerns so task descriptions
// referencing them resolve without any project configuration.
var CoreDomains = map[string][]string{
	"auth":      {"auth", "authenticate", "authentication", "login", "logout", "session", "token", "oauth", "jwt", "password", "permission", "role"},
	"payments":  {"payment", "payments", "billing", "invoice", "checkout", "stripe", "paypal", "webhook", "refund", "subscription", "charge"},
	"search":    {"search", "index", "query", "fulltext", "elasticsearch", "lucene", "relevance", "rank"},
	"database":  {"database", "db", "sql", "query", "migration", "schema", "transaction", "orm"},
	"api":       {"api", "endpoint", "route", "controller", "rest", "graphql", "grpc", "handler"},
	"frontend":  {"component", "render", "ui", "css", "style", "dom", "react", "vue", "template"},
	"testing":   {"test", "spec", "mock", "stub", "fixture", "assertion", "coverage"},
	"security":  {"security", "vulnerability", "xss", "csrf", "injection", "sanitize", "escape", "cve"},
	"messaging": {"queue", "kafka", "rabbitmq", "pubsub", "event", "broker", "consumer", "producer"},
	"caching":   {"cache", "redis", "memcached", "ttl", "eviction", "invalidate"},
}

// CustomDomain is one project-defined domain entry, matching the
// shape spec.md §6 describes for .context/config.kdl's
// custom_domains map.
type CustomDomain struct {
	Description string   `yaml:"description"`
	Keywords    []string `yaml:"keywords"`
}

// Manager resolves a token set to domains and per-domain weights.
type Manager struct {
	tables map[string][]string
}

// New builds a Manager from CoreDomains plus any project-custom
// domains loaded from customDomainsPath (a YAML file mapping domain
// name to {description, keywords[]}; empty path skips loading).
func New(customDomainsPath string) (*Manager, error) {
	tables := make(map[string][]string, len(CoreDomains))
	for name, kws := range CoreDomains {
		tables[name] = kws
	}

	if customDomainsPath != "" {
		custom, err := loadCustomDomains(customDomainsPath)
		if err != nil {
			return nil, err
		}
		for name, cd := range custom {
			tables[name] = cd.Keywords
		}
	}

	return &Manager{tables: tables}, nil
}

func loadCustomDomains(path string) (map[string]CustomDomain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, cerrors.Config("read_custom_domains", path, err)
	}
	var out map[string]CustomDomain
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, cerrors.Config("parse_custom_domains", path, err)
	}
	return out, nil
}

// Match scores keywords against every domain table. A domain is
// selected when at least one keyword matches (spec.md §4.7); its
// weight is hits/total_keywords clamped to [0, 1].
func (m *Manager) Match(keywords []string) (selected []string, weights map[string]float32) {
	weights = make(map[string]float32)
	total := len(keywords)
	if total == 0 {
		return nil, weights
	}

	kwSet := make(map[string]bool, total)
	for _, k := range keywords {
		kwSet[k] = true
	}

	for name, table := range m.tables {
		hits := 0
		for _, kw := range table {
			if kwSet[kw] {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		w := float32(hits) / float32(total)
		if w > 1 {
			w = 1
		}
		selected = append(selected, name)
		weights[name] = w
	}
	// Map iteration order is randomized per run; sort so repeated
	// Match() calls on identical input are byte-identical (spec.md's
	// idempotent-resolve invariant).
	sort.Strings(selected)
	return selected, weights
}

// FromPathPrefix derives a domain from a file-path prefix, e.g.
// "app/Services/Payment*" -> "payments" (spec.md §4.9). Domain names
// are checked in sorted order so the result is deterministic when a
// path happens to match more than one domain's keyword table.
func (m *Manager) FromPathPrefix(path string) string {
	lower := toLower(path)

	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, kw := range m.tables[name] {
			if containsSegment(lower, kw) {
				return name
			}
		}
	}
	return ""
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}

func containsSegment(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	n, m := len(haystack), len(needle)
	if m > n {
		return -1
	}
	for i := 0; i+m <= n; i++ {
		if haystack[i:i+m] == needle {
			return i
		}
	}
	return -1
}
