// Package keywords implements the KeywordExtractor of spec.md §4.7:
// tokenization, identifier case-variant expansion, entity recognition
// (classes, methods, files, routes, error codes), Porter2 stemming,
// and change-type classification over a free-text task description.
// Grounded on the teacher's internal/semantic/name_splitter.go (the
// separator-detection and split algorithm case-variant generation is
// built from) and internal/semantic/stemmer.go (the surgebase/porter2
// wrapper).
package keywords

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/surgebase/porter2"

	"github.com/standardbeagle/ctxpack/internal/types"
)

// stopWords are dropped before stemming/domain matching; short
// function words that would otherwise dominate keyword counts.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true,
	"has": true, "have": true, "in": true, "into": true, "is": true,
	"it": true, "its": true, "of": true, "on": true, "or": true,
	"that": true, "the": true, "to": true, "was": true, "were": true,
	"will": true, "with": true, "this": true,
}

var (
	classNameRe  = regexp.MustCompile(`\b[A-Z][a-z0-9]+(?:[A-Z][a-zA-Z0-9]*)+\b`)
	methodNameRe = regexp.MustCompile(`\b[a-z][a-zA-Z0-9]*[A-Z][a-zA-Z0-9]*\b`)
	fileNameRe   = regexp.MustCompile(`@?\b[\w\-/]+\.[a-zA-Z]{1,10}\b`)
	routeRe      = regexp.MustCompile(`(?:^|\s)(/[a-zA-Z0-9_\-/{}:.]+)`)
	errorCodeRe  = regexp.MustCompile(`\b([A-Z][A-Z0-9]+(?:_[A-Z0-9]+)+|E\d{3,}|[45]\d{2})\b`)
)

// changeRules classifies free text by first keyword match, in
// priority order (spec.md §4.7 "first match wins").
var changeRules = []struct {
	kind  types.ChangeType
	words []string
}{
	// Security is checked before Bugfix: "Fix XSS vulnerability" names a
	// bug-sounding verb ("fix") but spec.md classifies it as security,
	// so the more specific category must win the first-match race.
	{types.ChangeSecurity, []string{"xss", "csrf", "inject", "vuln", "secure", "exploit", "cve"}},
	{types.ChangeBugfix, []string{"fix", "bug", "error", "crash", "fail", "broken", "issue"}},
	{types.ChangeFeature, []string{"add", "new", "feature", "implement", "support"}},
	{types.ChangeRefactor, []string{"refactor", "rename", "restructure", "cleanup", "simplify"}},
	{types.ChangePerf, []string{"optim", "perf", "speed", "slow", "latency", "throughput"}},
}

// tokenRe splits on everything but letters, digits, underscore, dot,
// and slash — the set name_splitter.go treats as identifier-internal.
var tokenRe = regexp.MustCompile(`[A-Za-z0-9_./]+`)

// Extract runs the full KeywordExtractor pipeline over a raw task
// description.
func Extract(raw string) (keywords []string, entities types.Entities, changeType types.ChangeType) {
	tokens := tokenize(raw)
	keywords = stemAndFilter(tokens)
	entities = extractEntities(raw)
	changeType = classifyChange(raw)
	return keywords, entities, changeType
}

func tokenize(raw string) []string {
	raw = strings.ReplaceAll(raw, "@", " ")
	matches := tokenRe.FindAllString(raw, -1)
	var out []string
	for _, m := range matches {
		m = strings.Trim(m, "./_")
		if m == "" {
			continue
		}
		out = append(out, m)
		// Identifiers carrying internal structure (snake_case, dotted
		// paths, camelCase) also contribute their split words, so
		// "manage_credit" yields both "manage_credit" and "manage",
		// "credit" as keyword candidates.
		if words := SplitWords(m); len(words) > 1 {
			out = append(out, words...)
		}
	}
	return out
}

func stemAndFilter(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	var out []string
	for _, t := range tokens {
		lower := strings.ToLower(t)
		if lower == "" || stopWords[lower] {
			continue
		}
		if isAllDigits(lower) {
			continue
		}
		stemmed := porter2.Stem(lower)
		if seen[stemmed] {
			continue
		}
		seen[stemmed] = true
		out = append(out, stemmed)
	}
	return out
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}

func extractEntities(raw string) types.Entities {
	var e types.Entities
	e.ClassNames = dedupMatches(classNameRe.FindAllString(raw, -1))
	e.FileNames = dedupMatches(fileNameRe.FindAllString(raw, -1))
	e.FileNames = stripLeadingAt(e.FileNames)

	fileSet := make(map[string]bool, len(e.FileNames))
	stemSet := make(map[string]bool, len(e.FileNames))
	for _, f := range e.FileNames {
		fileSet[f] = true
		stem := f[strings.LastIndexByte(f, '/')+1:]
		if i := strings.LastIndexByte(stem, '.'); i > 0 {
			stem = stem[:i]
		}
		stemSet[stem] = true
	}
	// A token that looks like a method name but is actually a bare
	// filename stem (already captured above) is not double-counted.
	var methods []string
	for _, m := range dedupMatches(methodNameRe.FindAllString(raw, -1)) {
		if !fileSet[m] && !stemSet[m] {
			methods = append(methods, m)
		}
	}
	e.MethodNames = methods

	var classNames []string
	for _, c := range e.ClassNames {
		if !fileSet[c] && !strings.Contains(c, ".") {
			classNames = append(classNames, c)
		}
	}
	e.ClassNames = classNames

	for _, m := range routeRe.FindAllStringSubmatch(raw, -1) {
		route := strings.TrimRight(m[1], ".,;:")
		e.RoutePatterns = append(e.RoutePatterns, route)
	}
	e.RoutePatterns = dedupMatches(e.RoutePatterns)

	e.ErrorCodes = dedupMatches(errorCodeRe.FindAllString(raw, -1))
	return e
}

func stripLeadingAt(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.TrimPrefix(n, "@")
	}
	return out
}

func dedupMatches(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	var out []string
	for _, v := range in {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func classifyChange(raw string) types.ChangeType {
	lower := strings.ToLower(raw)
	for _, rule := range changeRules {
		for _, w := range rule.words {
			if strings.Contains(lower, w) {
				return rule.kind
			}
		}
	}
	return types.ChangeUnknown
}
