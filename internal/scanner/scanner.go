// Package scanner implements the FileScanner of spec.md §4.2: walk
// root, honor include/exclude globs and .contextignore, detect
// language by extension, and hash contents. Grounded on the teacher's
// indexing pipeline (internal/indexing/pipeline_scanner.go,
// binary_detector.go) and its gitignore matcher
// (internal/config/gitignore.go), generalized from a single-language
// indexer into the repo-agnostic scanner this spec names.
package scanner

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/ctxpack/internal/errors"
	"github.com/standardbeagle/ctxpack/internal/types"
)

// DefaultMaxFileSize is the spec.md §4.2 default (1 MiB); larger
// files are skipped and logged.
const DefaultMaxFileSize = 1024 * 1024

// languageByExt maps a lowercased extension to a detected Language.
var languageByExt = map[string]types.Language{
	".go":    types.LangGo,
	".js":    types.LangJavaScript,
	".jsx":   types.LangJavaScript,
	".mjs":   types.LangJavaScript,
	".ts":    types.LangTypeScript,
	".tsx":   types.LangTypeScript,
	".py":    types.LangPython,
	".rs":    types.LangRust,
	".java":  types.LangJava,
	".php":   types.LangPHP,
	".rb":    types.LangRuby,
	".c":     types.LangC,
	".h":     types.LangC,
	".cc":    types.LangCPP,
	".cpp":   types.LangCPP,
	".cxx":   types.LangCPP,
	".hpp":   types.LangCPP,
}

// binaryExtensions are skipped outright regardless of size.
var binaryExtensions = map[string]bool{
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".ico": true, ".webp": true,
	".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".xz": true, ".7z": true, ".rar": true,
	".jar": true, ".war": true, ".ear": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".a": true, ".o": true, ".obj": true, ".bin": true,
	".pdf": true, ".class": true, ".pyc": true, ".wasm": true,
}

// DetectLanguage returns the Language associated with path's extension,
// or LangUnknown.
func DetectLanguage(path string) types.Language {
	ext := strings.ToLower(filepath.Ext(path))
	if l, ok := languageByExt[ext]; ok {
		return l
	}
	return types.LangUnknown
}

func isBinaryExt(path string) bool {
	return binaryExtensions[strings.ToLower(filepath.Ext(path))]
}

func isMinified(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	return strings.Contains(base, ".min.")
}

// Options configures a FileScanner walk.
type Options struct {
	Root            string
	IncludePatterns []string
	ExcludePatterns []string
	MaxFileSize     int64 // 0 means DefaultMaxFileSize
	FollowSymlinks  bool
}

// Scanner walks a repository root and yields FileRecords.
type Scanner struct {
	opts    Options
	ignores *ignoreSet
}

// SkippedFile is logged (not returned as an error) when a file is too
// large or unreadable.
type SkippedFile struct {
	Path   string
	Reason string
}

// New builds a Scanner, loading .contextignore under opts.Root layered
// on top of the built-in excludes.
func New(opts Options) (*Scanner, error) {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	ignores := newBuiltinIgnoreSet()
	for _, p := range opts.ExcludePatterns {
		ignores.add(p)
	}
	for _, p := range detectTOMLBuildExcludes(opts.Root) {
		ignores.add(p)
	}
	if err := ignores.loadContextIgnore(opts.Root); err != nil {
		return nil, errors.IO("load_contextignore", opts.Root, err)
	}
	return &Scanner{opts: opts, ignores: ignores}, nil
}

// Scan walks the root synchronously, invoking onFile for every
// indexable file and onSkip for every file skipped due to size or a
// read error. Files dropped by binary-extension or minified-file
// detection are skipped without an onSkip call. Per-file read failures never
// abort the walk (spec.md §7).
func (s *Scanner) Scan(onFile func(types.FileRecord) error, onSkip func(SkippedFile)) error {
	root := s.opts.Root
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if onSkip != nil {
				onSkip(SkippedFile{Path: path, Reason: err.Error()})
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if info.IsDir() {
			if s.skipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}
		if !s.opts.FollowSymlinks && info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		if s.ignores.matches(rel, false) {
			return nil
		}
		if !s.includeMatches(rel) {
			return nil
		}
		if isBinaryExt(rel) || isMinified(rel) {
			return nil
		}
		if info.Size() > s.opts.MaxFileSize {
			if onSkip != nil {
				onSkip(SkippedFile{Path: rel, Reason: "exceeds max_file_size"})
			}
			return nil
		}

		hash, hashErr := hashFile(path)
		if hashErr != nil {
			if onSkip != nil {
				onSkip(SkippedFile{Path: rel, Reason: hashErr.Error()})
			}
			return nil
		}

		rec := types.FileRecord{
			Path:        rel,
			Language:    DetectLanguage(rel),
			SizeBytes:   uint64(info.Size()),
			MTimeMillis: info.ModTime().UnixMilli(),
			ContentHash: hash,
		}
		return onFile(rec)
	})
}

func (s *Scanner) skipDir(rel string) bool {
	base := filepath.Base(rel)
	if strings.HasPrefix(base, ".") && base != "." {
		// Hidden directories are skipped except explicit opt-ins via
		// include_patterns naming them directly.
		for _, inc := range s.opts.IncludePatterns {
			if ok, _ := doublestar.Match(inc, rel); ok {
				return false
			}
		}
		return true
	}
	return s.ignores.matches(rel, true)
}

func (s *Scanner) includeMatches(rel string) bool {
	if len(s.opts.IncludePatterns) == 0 {
		return true
	}
	for _, pat := range s.opts.IncludePatterns {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

// HashFile computes the hex md5 content hash used as FileRecord's
// sole change-detection signal (spec.md §3).
func HashFile(path string) (string, error) {
	return hashFile(path)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
