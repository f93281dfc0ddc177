package taskparse

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/ctxpack/internal/types"
)

var (
	diffGitRe  = regexp.MustCompile(`^diff --git a/(\S+) b/(\S+)$`)
	renameFrom = regexp.MustCompile(`^rename from (\S+)$`)
	renameTo   = regexp.MustCompile(`^rename to (\S+)$`)
	newFileRe  = regexp.MustCompile(`^new file mode`)
	delFileRe  = regexp.MustCompile(`^deleted file mode`)
	hunkRe     = regexp.MustCompile(`^@@`)
)

// ParseDiff walks a unified diff (the format `git diff`/`git show`
// produce) and returns one DiffFrame per file entry, with additions
// and deletions counted from hunk lines and renames recognized from
// their "rename from"/"rename to" header pair.
func ParseDiff(raw string) []types.DiffFrame {
	lines := strings.Split(raw, "\n")

	var frames []types.DiffFrame
	var cur *types.DiffFrame
	inHunk := false

	flush := func() {
		if cur != nil {
			frames = append(frames, *cur)
			cur = nil
		}
	}

	for _, line := range lines {
		if m := diffGitRe.FindStringSubmatch(line); m != nil {
			flush()
			cur = &types.DiffFrame{File: m[2], Status: types.DiffModified}
			inHunk = false
			continue
		}
		if cur == nil {
			continue
		}
		switch {
		case newFileRe.MatchString(line):
			cur.Status = types.DiffAdded
		case delFileRe.MatchString(line):
			cur.Status = types.DiffDeleted
		case renameFrom.MatchString(line):
			if m := renameFrom.FindStringSubmatch(line); m != nil {
				cur.File = m[1]
			}
			cur.Status = types.DiffRenamed
		case renameTo.MatchString(line):
			if m := renameTo.FindStringSubmatch(line); m != nil {
				cur.RenamedTo = m[1]
			}
			cur.Status = types.DiffRenamed
		case hunkRe.MatchString(line):
			inHunk = true
		case inHunk && strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			cur.Additions++
		case inHunk && strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			cur.Deletions++
		}
	}
	flush()
	return frames
}
