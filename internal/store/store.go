// Package store implements the relational Store of spec.md §4.1/§6:
// files, symbols, imports, git_signals, plus an FTS5 virtual table
// for full-text search. Grounded on the teacher's own sister repo in
// the retrieval pack, mvp-joe-canopy's internal/store/store.go (a
// SQLite data-access layer opened with WAL mode and a single
// migration DDL blob) — the teacher itself (standardbeagle/lci) holds
// its index purely in memory, so this component is enriched from the
// rest of the pack rather than adapted from the teacher directly.
package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	"github.com/hbollon/go-edlib"
	_ "github.com/mattn/go-sqlite3"

	cerrors "github.com/standardbeagle/ctxpack/internal/errors"
	"github.com/standardbeagle/ctxpack/internal/types"
)

// Store is the single-process, transactional data-access layer
// backing the indexing and query pipeline. A single process holds an
// exclusive handle; writes serialize through one *sql.DB connection
// (SQLite's own locking plus WAL mode), matching spec.md §5.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the conventional store location under a project
// root, "<root>/.context/index.db" (spec.md §6).
func DefaultPath(root string) string {
	return filepath.Join(root, ".context", "index.db")
}

// Open opens (creating if necessary) the SQLite database at dbPath,
// typically "<root>/.context/index.db" per spec.md §6. The parent
// directory is created if missing.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, cerrors.IO("mkdir_store_dir", dir, err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, cerrors.IO("open_store", dbPath, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, cerrors.IO("ping_store", dbPath, err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  path         TEXT PRIMARY KEY,
  language     TEXT NOT NULL,
  size_bytes   INTEGER NOT NULL,
  mtime_ms     INTEGER NOT NULL,
  content_hash TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS symbols (
  id         INTEGER PRIMARY KEY,
  file_path  TEXT NOT NULL REFERENCES files(path),
  name       TEXT NOT NULL,
  kind       TEXT NOT NULL,
  start_line INTEGER NOT NULL,
  end_line   INTEGER NOT NULL,
  signature  TEXT
);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_path);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);

CREATE TABLE IF NOT EXISTS imports (
  id          INTEGER PRIMARY KEY,
  source_path TEXT NOT NULL REFERENCES files(path),
  target_path TEXT NOT NULL,
  symbol      TEXT
);
CREATE INDEX IF NOT EXISTS idx_imports_source ON imports(source_path);
CREATE INDEX IF NOT EXISTS idx_imports_target ON imports(target_path);

CREATE TABLE IF NOT EXISTS git_signals (
  path          TEXT PRIMARY KEY REFERENCES files(path),
  last_modified TEXT,
  commit_count  INTEGER NOT NULL DEFAULT 0,
  churn_score   REAL NOT NULL DEFAULT 0
);

CREATE VIRTUAL TABLE IF NOT EXISTS files_fts USING fts5(
  path UNINDEXED,
  content,
  tokenize = 'porter unicode61'
);
`

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return cerrors.Internal("migrate", err)
	}
	return nil
}

// UpsertFile inserts or replaces a FileRecord.
func (s *Store) UpsertFile(f types.FileRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO files (path, language, size_bytes, mtime_ms, content_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			language = excluded.language,
			size_bytes = excluded.size_bytes,
			mtime_ms = excluded.mtime_ms,
			content_hash = excluded.content_hash`,
		f.Path, string(f.Language), f.SizeBytes, f.MTimeMillis, f.ContentHash)
	if err != nil {
		return cerrors.IO("upsert_file", f.Path, err)
	}
	return nil
}

// DeleteFile removes a file and every row keyed on it across all
// tables (spec.md §8 deletion soundness).
func (s *Store) DeleteFile(path string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return cerrors.IO("delete_file", path, err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM symbols WHERE file_path = ?",
		"DELETE FROM imports WHERE source_path = ?",
		"DELETE FROM git_signals WHERE path = ?",
		"DELETE FROM files_fts WHERE path = ?",
		"DELETE FROM files WHERE path = ?",
	} {
		if _, err := tx.Exec(q, path); err != nil {
			return cerrors.IO("delete_file", path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return cerrors.IO("delete_file", path, err)
	}
	return nil
}

// GetFile returns the FileRecord for path, or ok=false if absent.
func (s *Store) GetFile(path string) (types.FileRecord, bool, error) {
	var f types.FileRecord
	var lang string
	row := s.db.QueryRow(`SELECT path, language, size_bytes, mtime_ms, content_hash FROM files WHERE path = ?`, path)
	err := row.Scan(&f.Path, &lang, &f.SizeBytes, &f.MTimeMillis, &f.ContentHash)
	if err == sql.ErrNoRows {
		return types.FileRecord{}, false, nil
	}
	if err != nil {
		return types.FileRecord{}, false, cerrors.IO("get_file", path, err)
	}
	f.Language = types.Language(lang)
	return f, true, nil
}

// ClearSymbolsForFile deletes all symbols currently stored for path.
func (s *Store) ClearSymbolsForFile(path string) error {
	if _, err := s.db.Exec(`DELETE FROM symbols WHERE file_path = ?`, path); err != nil {
		return cerrors.IO("clear_symbols", path, err)
	}
	return nil
}

// InsertSymbol stores one SymbolRecord.
func (s *Store) InsertSymbol(sym types.SymbolRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO symbols (file_path, name, kind, start_line, end_line, signature)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sym.FilePath, sym.Name, string(sym.Kind), sym.StartLine, sym.EndLine, sym.Signature)
	if err != nil {
		return cerrors.IO("insert_symbol", sym.FilePath, err)
	}
	return nil
}

// ClearImportsForFile deletes all import edges currently stored for
// path as a source.
func (s *Store) ClearImportsForFile(path string) error {
	if _, err := s.db.Exec(`DELETE FROM imports WHERE source_path = ?`, path); err != nil {
		return cerrors.IO("clear_imports", path, err)
	}
	return nil
}

// InsertImport stores one ImportEdge.
func (s *Store) InsertImport(e types.ImportEdge) error {
	_, err := s.db.Exec(`INSERT INTO imports (source_path, target_path, symbol) VALUES (?, ?, ?)`,
		e.SourcePath, e.TargetPath, e.Symbol)
	if err != nil {
		return cerrors.IO("insert_import", e.SourcePath, err)
	}
	return nil
}

// UpsertGitSignal stores or replaces git metadata for a path.
func (s *Store) UpsertGitSignal(g types.GitSignal) error {
	_, err := s.db.Exec(`
		INSERT INTO git_signals (path, last_modified, commit_count, churn_score)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			last_modified = excluded.last_modified,
			commit_count = excluded.commit_count,
			churn_score = excluded.churn_score`,
		g.Path, g.LastModified, g.CommitCount, g.ChurnScore)
	if err != nil {
		return cerrors.IO("upsert_git_signal", g.Path, err)
	}
	return nil
}

// IndexFileContent feeds text into the FTS index for path, replacing
// any existing entry.
func (s *Store) IndexFileContent(path, text string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return cerrors.IO("index_content", path, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM files_fts WHERE path = ?`, path); err != nil {
		return cerrors.IO("index_content", path, err)
	}
	if _, err := tx.Exec(`INSERT INTO files_fts (path, content) VALUES (?, ?)`, path, text); err != nil {
		return cerrors.IO("index_content", path, err)
	}
	if err := tx.Commit(); err != nil {
		return cerrors.IO("index_content", path, err)
	}
	return nil
}

// Stats summarizes the current store contents.
type Stats struct {
	Files   int
	Symbols int
	Imports int
}

// GetStats returns row counts across the core tables.
func (s *Store) GetStats() (Stats, error) {
	var st Stats
	for table, dest := range map[string]*int{"files": &st.Files, "symbols": &st.Symbols, "imports": &st.Imports} {
		row := s.db.QueryRow(`SELECT COUNT(*) FROM ` + table)
		if err := row.Scan(dest); err != nil {
			return Stats{}, cerrors.Internal("get_stats", err)
		}
	}
	return st, nil
}

// FindSymbolsByName returns symbols whose name equals or is prefixed
// by nameOrPrefix.
func (s *Store) FindSymbolsByName(nameOrPrefix string) ([]types.SymbolRecord, error) {
	rows, err := s.db.Query(`
		SELECT file_path, name, kind, start_line, end_line, signature
		FROM symbols WHERE name = ? OR name LIKE ?`,
		nameOrPrefix, nameOrPrefix+"%")
	if err != nil {
		return nil, cerrors.Internal("find_symbols_by_name", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// FindSymbolsByFuzzy returns symbols whose name is a Jaro-Winkler
// near-match for name, above a 0.80 similarity threshold (the
// teacher's default fuzzy-matcher threshold,
// internal/semantic/fuzzy_matcher.go).
func (s *Store) FindSymbolsByFuzzy(name string) ([]types.SymbolRecord, error) {
	rows, err := s.db.Query(`SELECT DISTINCT name FROM symbols`)
	if err != nil {
		return nil, cerrors.Internal("find_symbols_by_fuzzy", err)
	}
	var candidates []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			rows.Close()
			return nil, cerrors.Internal("find_symbols_by_fuzzy", err)
		}
		candidates = append(candidates, n)
	}
	rows.Close()

	const threshold = 0.80
	var matches []string
	for _, c := range candidates {
		score, err := edlib.StringsSimilarity(strings.ToLower(name), strings.ToLower(c), edlib.JaroWinkler)
		if err == nil && float64(score) >= threshold {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(matches)), ",")
	args := make([]any, len(matches))
	for i, m := range matches {
		args[i] = m
	}
	result, err := s.db.Query(`
		SELECT file_path, name, kind, start_line, end_line, signature
		FROM symbols WHERE name IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, cerrors.Internal("find_symbols_by_fuzzy", err)
	}
	defer result.Close()
	return scanSymbols(result)
}

// AllPaths returns every indexed file path, used to seed the
// ImportGraphBuilder's file index (spec.md §4.4).
func (s *Store) AllPaths() ([]string, error) {
	rows, err := s.db.Query(`SELECT path FROM files`)
	if err != nil {
		return nil, cerrors.Internal("all_paths", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, cerrors.Internal("all_paths", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// FindFilesByBasename returns indexed paths whose basename equals
// name.
func (s *Store) FindFilesByBasename(name string) ([]string, error) {
	rows, err := s.db.Query(`SELECT path FROM files WHERE path = ? OR path LIKE ?`, name, "%/"+name)
	if err != nil {
		return nil, cerrors.Internal("find_files_by_basename", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, cerrors.Internal("find_files_by_basename", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// FTSHit is one full-text search result with its BM25 relevance rank
// (lower is more relevant, matching SQLite FTS5's convention).
type FTSHit struct {
	Path string
	Rank float64
}

// FulltextSearch runs query (which may use FTS5 phrase and prefix
// syntax, e.g. "\"exact phrase\"" or "term*") against indexed file
// content, ranked by BM25 relevance, capped at limit.
func (s *Store) FulltextSearch(query string, limit int) ([]FTSHit, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT path, bm25(files_fts) AS rank
		FROM files_fts WHERE files_fts MATCH ?
		ORDER BY rank LIMIT ?`, query, limit)
	if err != nil {
		return nil, cerrors.Internal("fulltext_search", err)
	}
	defer rows.Close()
	var out []FTSHit
	for rows.Next() {
		var h FTSHit
		if err := rows.Scan(&h.Path, &h.Rank); err != nil {
			return nil, cerrors.Internal("fulltext_search", err)
		}
		out = append(out, h)
	}
	return out, nil
}

// NeighborsOf returns the paths directly reachable from path over the
// import graph, to the given depth (depth=1 means direct imports and
// importers only).
func (s *Store) NeighborsOf(path string, depth int) ([]string, error) {
	if depth <= 0 {
		depth = 1
	}
	frontier := map[string]bool{path: true}
	result := make(map[string]bool)

	for d := 0; d < depth; d++ {
		next := make(map[string]bool)
		for p := range frontier {
			outRows, err := s.db.Query(`SELECT target_path FROM imports WHERE source_path = ?`, p)
			if err != nil {
				return nil, cerrors.Internal("neighbors_of", err)
			}
			for outRows.Next() {
				var t string
				if err := outRows.Scan(&t); err == nil && t != path && !result[t] {
					next[t] = true
					result[t] = true
				}
			}
			outRows.Close()

			inRows, err := s.db.Query(`SELECT source_path FROM imports WHERE target_path = ?`, p)
			if err != nil {
				return nil, cerrors.Internal("neighbors_of", err)
			}
			for inRows.Next() {
				var src string
				if err := inRows.Scan(&src); err == nil && src != path && !result[src] {
					next[src] = true
					result[src] = true
				}
			}
			inRows.Close()
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}

	out := make([]string, 0, len(result))
	for p := range result {
		out = append(out, p)
	}
	return out, nil
}

// TopHotspots returns the files with the highest stored churn_score,
// descending, capped at limit.
func (s *Store) TopHotspots(limit int) ([]types.GitSignal, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT path, last_modified, commit_count, churn_score
		FROM git_signals ORDER BY churn_score DESC, commit_count DESC LIMIT ?`, limit)
	if err != nil {
		return nil, cerrors.Internal("top_hotspots", err)
	}
	defer rows.Close()
	var out []types.GitSignal
	for rows.Next() {
		var g types.GitSignal
		if err := rows.Scan(&g.Path, &g.LastModified, &g.CommitCount, &g.ChurnScore); err != nil {
			return nil, cerrors.Internal("top_hotspots", err)
		}
		out = append(out, g)
	}
	return out, nil
}

func scanSymbols(rows *sql.Rows) ([]types.SymbolRecord, error) {
	var out []types.SymbolRecord
	for rows.Next() {
		var sym types.SymbolRecord
		var kind string
		var sig sql.NullString
		if err := rows.Scan(&sym.FilePath, &sym.Name, &kind, &sym.StartLine, &sym.EndLine, &sig); err != nil {
			return nil, cerrors.Internal("scan_symbols", err)
		}
		sym.Kind = types.SymbolKind(kind)
		sym.Signature = sig.String
		out = append(out, sym)
	}
	return out, nil
}
