// Package taskparse implements the StacktraceParser and DiffAnalyzer
// collaborators of spec.md §4.8: format-sniffing extraction of stack
// frames from pasted tracebacks, and unified-diff parsing into
// per-file change frames. Grounded on the teacher's
// internal/ingest/stacktrace_detector.go (per-runtime regex table
// dispatched by a sniff pass) and its internal/ingest/diff_parser.go
// (line-oriented unified diff walk).
package taskparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/standardbeagle/ctxpack/internal/types"
)

// frameRules are tried in order; the first whose regex matches any
// line of the input is used for every subsequent matching line,
// mirroring the teacher's "sniff the format once, parse the whole
// trace with it" approach rather than per-line format guessing.
var frameRules = []*regexp.Regexp{
	// Node.js: "    at functionName (file:line:col)"
	regexp.MustCompile(`^\s*at\s+(?:(?P<fn>[^\s(]+)\s+\()?(?P<file>[^()]+):(?P<line>\d+):(?P<col>\d+)\)?$`),
	// Python: "  File "path", line N, in function"
	regexp.MustCompile(`^\s*File\s+"(?P<file>[^"]+)",\s+line\s+(?P<line>\d+)(?:,\s+in\s+(?P<fn>\S+))?$`),
	// JVM: "at com.example.Class.method(File.java:123)"
	regexp.MustCompile(`^\s*at\s+(?P<fn>[\w.$<>]+)\((?P<file>[\w.]+):(?P<line>\d+)\)$`),
	// Go: "path/to/file.go:123 +0x1a" or "\tfile.go:123"
	regexp.MustCompile(`^\s*(?P<file>[\w./\-]+\.go):(?P<line>\d+)(?:\s+\+0x[0-9a-f]+)?$`),
	// Ruby: "file.rb:123:in `method'"
	regexp.MustCompile(`^\s*(?:from\s+)?(?P<file>[\w./\-]+\.rb):(?P<line>\d+):in\s+` + "`" + `(?P<fn>[^']+)'$`),
	// PHP: "#0 /path/file.php(123): Class->method()"
	regexp.MustCompile(`^\s*#\d+\s+(?P<file>[\w./\-]+\.php)\((?P<line>\d+)\):\s*(?P<fn>[^\s]+)`),
}

// messageRe captures a leading "ErrorType: message" line that often
// precedes the frame list; its text is attached to the first frame.
var messageRe = regexp.MustCompile(`^([A-Za-z][\w.]*(?:Error|Exception|Panic)):?\s*(.*)$`)

// ParseStackTrace extracts frames from raw pasted stack-trace text.
// Lines that don't match the sniffed format are ignored rather than
// aborting the parse (spec.md §7: malformed input degrades, it never
// fails the whole resolve).
func ParseStackTrace(raw string) []types.StackFrame {
	lines := strings.Split(raw, "\n")

	rule := sniffFormat(lines)
	if rule == nil {
		return nil
	}

	var frames []types.StackFrame
	var message string
	for _, line := range lines {
		if m := messageRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil && len(frames) == 0 {
			message = strings.TrimSpace(m[2])
			continue
		}
		m := rule.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		frame := types.StackFrame{}
		names := rule.SubexpNames()
		for i, name := range names {
			if i == 0 || i >= len(m) {
				continue
			}
			switch name {
			case "file":
				frame.File = m[i]
			case "line":
				frame.Line, _ = strconv.Atoi(m[i])
			case "col":
				frame.Column, _ = strconv.Atoi(m[i])
			case "fn":
				frame.Function = m[i]
			}
		}
		if frame.File == "" {
			continue
		}
		if len(frames) == 0 {
			frame.Message = message
		}
		frames = append(frames, frame)
	}
	return frames
}

func sniffFormat(lines []string) *regexp.Regexp {
	for _, rule := range frameRules {
		for _, line := range lines {
			if rule.MatchString(line) {
				return rule
			}
		}
	}
	return nil
}
