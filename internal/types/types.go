// Package types holds the value-typed records shared across the
// indexing, resolution, discovery, scoring, and packing stages.
// The Store owns the persistent copy of each of these; every other
// component reads or constructs them per request rather than holding
// a long-lived object graph.
package types

import "time"

// Language is the detected source language of a file, or "unknown".
type Language string

const (
	LangUnknown    Language = "unknown"
	LangGo         Language = "go"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangJava       Language = "java"
	LangPHP        Language = "php"
	LangRuby       Language = "ruby"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
)

// FileRecord is the persisted description of one repository file.
// path is the unique key; content_hash is recomputed on every scan
// and is the sole change-detection signal (see Indexer.Index).
type FileRecord struct {
	Path        string   // repo-relative, forward-slash
	Language    Language
	SizeBytes   uint64
	MTimeMillis int64
	ContentHash string // hex md5 of file bytes
}

// SymbolKind enumerates the symbol categories the SymbolExtractor
// recognizes.
type SymbolKind string

const (
	KindClass     SymbolKind = "class"
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindInterface SymbolKind = "interface"
	KindConstant  SymbolKind = "constant"
	KindVariable  SymbolKind = "variable"
)

// SymbolRecord is one definition extracted from a file. StartLine and
// EndLine are inclusive, 1-based. All symbols for a file are replaced
// atomically on re-index (see Store.ClearSymbolsForFile).
type SymbolRecord struct {
	FilePath  string
	Name      string
	Kind      SymbolKind
	StartLine int
	EndLine   int
	Signature string // optional
}

// ImportEdge is one import/require/use relation. TargetPath is either
// a repo-relative resolved path or an external package identifier.
type ImportEdge struct {
	SourcePath string
	TargetPath string
	Symbol     string // optional
}

// GitSignal carries per-file version-control metadata. LastModified
// is empty when git history for the path could not be determined.
type GitSignal struct {
	Path         string
	LastModified string // ISO-8601, optional
	CommitCount  uint32
	ChurnScore   float32 // normalized to [0, 1]
}

// ChangeType categorizes the intent behind a task description.
type ChangeType string

const (
	ChangeBugfix   ChangeType = "bugfix"
	ChangeFeature  ChangeType = "feature"
	ChangeRefactor ChangeType = "refactor"
	ChangePerf     ChangeType = "perf"
	ChangeSecurity ChangeType = "security"
	ChangeUnknown  ChangeType = "unknown"
)

// Entities holds the named things KeywordExtractor recognized inside
// a task description.
type Entities struct {
	ClassNames    []string
	MethodNames   []string
	FileNames     []string
	RoutePatterns []string
	ErrorCodes    []string
}

// Confidence breaks ResolvedTask.Confidence down into the sub-signals
// that fed the weighted combination in spec.md §4.9.
type Confidence struct {
	Overall           float32
	HasExactFileName  bool
	HasClassName      bool
	HasMethodName     bool
	HasRoutePattern   bool
	HasErrorCode      bool
	KeywordMatchCount int
}

// StackFrame is one parsed frame from a stack trace.
type StackFrame struct {
	File     string
	Line     int
	Column   int    // 0 when not present in the source format
	Function string // optional
	Message  string // optional, usually only set on the top frame
}

// DiffStatus is the change status of one file in a unified diff.
type DiffStatus string

const (
	DiffAdded    DiffStatus = "added"
	DiffModified DiffStatus = "modified"
	DiffDeleted  DiffStatus = "deleted"
	DiffRenamed  DiffStatus = "renamed"
)

// DiffFrame describes one file entry parsed out of a unified diff.
type DiffFrame struct {
	File      string
	Status    DiffStatus
	Additions int
	Deletions int
	RenamedTo string // only set when Status == DiffRenamed
}

// ResolvedTask is the fused output of the TaskResolver: keywords,
// entities, domains, change type, and a confidence score derived from
// the raw task description plus any stack trace / diff / file hints.
type ResolvedTask struct {
	Raw           string
	Keywords      []string
	Entities      Entities
	FilesHint     []string
	StackFrames   []StackFrame // parsed frames, preserved so discovery can cite a line number
	DiffFrames    []DiffFrame  // parsed diff entries, preserved so discovery can cite a status
	Symbols       []string
	Domains       []string
	DomainWeights map[string]float32
	ChangeType    ChangeType
	Confidence    Confidence
}

// Signals are the boolean evidence flags a Candidate accumulates
// across the CandidateDiscovery channels (spec.md §4.10).
type Signals struct {
	StacktraceHit bool
	DiffHit       bool
	SymbolMatch   bool
	KeywordMatch  bool
	GraphRelated  bool
	TestFile      bool
	GitHotspot    bool
}

// Candidate is one file surfaced by CandidateDiscovery, before or
// after scoring. CenterLine and the Symbol range are excerpt-centering
// evidence carried alongside the boolean Signals so PackComposer can
// build a real excerpt.Hint instead of excerpting blind.
type Candidate struct {
	Path        string
	Score       float64
	Reasons     []string
	Signals     Signals
	CenterLine  int // 1-based stacktrace line hit on this file, 0 if none
	SymbolStart int // 1-based start line of a matched symbol, 0 if none
	SymbolEnd   int // 1-based end line of a matched symbol, 0 if none
}

// Excerpt is a chosen line range from a file, ready for inclusion in
// a pack.
type Excerpt struct {
	Path       string
	Content    string
	StartLine  int
	EndLine    int
	TotalLines int
	Truncated  bool
}

// PackFile is the per-file entry recorded in a PackManifest.
type PackFile struct {
	Path      string   `json:"path"`
	Score     float64  `json:"score"`
	Reasons   []string `json:"reasons"`
	StartLine int      `json:"start_line,omitempty"`
	EndLine   int       `json:"end_line,omitempty"`
	Truncated bool      `json:"truncated,omitempty"`
}

// PackManifest is the JSON-serializable record describing one
// composed context pack (spec.md §3, §6).
type PackManifest struct {
	Version      string       `json:"version"`
	Timestamp    time.Time    `json:"timestamp"`
	Task         ResolvedTask `json:"task"`
	Files        []PackFile   `json:"files"`
	BudgetTokens int          `json:"budget_tokens"`
	CommitBase   string       `json:"commit_base,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	Warnings     []string     `json:"warnings,omitempty"`
	Reason       string       `json:"reason,omitempty"` // set on empty/budget-exhausted packs
}

// IndexStats summarizes one Indexer.Index or Indexer.IncrementalUpdate
// run.
type IndexStats struct {
	Files       int
	Symbols     int
	Imports     int
	DurationMS  int64
}

// ProgressFunc is invoked during indexing as each file completes.
// Implementations must be safe to call from the indexing goroutines;
// the Indexer serializes the calls, so they never run concurrently.
type ProgressFunc func(current, total int, path string)
