package symbols

import (
	"regexp"

	"github.com/standardbeagle/ctxpack/internal/types"
)

var goRules = []rule{
	{regexp.MustCompile(`^\s*type\s+(\w+)\s+interface\s*\{`), types.KindInterface, 1, true},
	{regexp.MustCompile(`^\s*type\s+(\w+)\s+struct\s*\{`), types.KindClass, 1, true},
	{regexp.MustCompile(`^\s*func\s+\([^)]*\)\s*(\w+)\s*\(`), types.KindMethod, 1, true},
	{regexp.MustCompile(`^\s*func\s+(\w+)\s*\(`), types.KindFunction, 1, true},
	{regexp.MustCompile(`^\s*const\s+(\w+)\s*(?:\w*\s*)?=`), types.KindConstant, 1, true},
}

var jsRules = []rule{
	{regexp.MustCompile(`^\s*export\s+default\s+class\s+(\w+)`), types.KindClass, 1, true},
	{regexp.MustCompile(`^\s*(?:export\s+)?class\s+(\w+)`), types.KindClass, 1, true},
	{regexp.MustCompile(`^\s*(?:export\s+)?interface\s+(\w+)`), types.KindInterface, 1, true},
	{regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s*\*?\s*(\w+)\s*\(`), types.KindFunction, 1, true},
	{regexp.MustCompile(`^\s*(?:public|private|protected|static|async)*\s*(\w+)\s*\([^)]*\)\s*\{`), types.KindMethod, 1, true},
	{regexp.MustCompile(`^\s*(?:export\s+)?const\s+([A-Z_][A-Z0-9_]*)\s*=`), types.KindConstant, 1, true},
}

var pythonRules = []rule{
	{regexp.MustCompile(`^\s*class\s+(\w+)`), types.KindClass, 1, true},
	{regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)\s*\(`), types.KindFunction, 1, true},
	{regexp.MustCompile(`^([A-Z_][A-Z0-9_]*)\s*=`), types.KindConstant, 1, true},
}

var rustRules = []rule{
	{regexp.MustCompile(`^\s*(?:pub\s+)?trait\s+(\w+)`), types.KindInterface, 1, true},
	{regexp.MustCompile(`^\s*(?:pub\s+)?struct\s+(\w+)`), types.KindClass, 1, true},
	{regexp.MustCompile(`^\s*(?:pub\s+)?enum\s+(\w+)`), types.KindClass, 1, true},
	{regexp.MustCompile(`^\s*(?:pub\s+)?(?:async\s+)?fn\s+(\w+)\s*[\(<]`), types.KindFunction, 1, true},
	{regexp.MustCompile(`^\s*(?:pub\s+)?const\s+(\w+)\s*:`), types.KindConstant, 1, true},
}

var javaRules = []rule{
	{regexp.MustCompile(`^\s*(?:public|private|protected)?\s*interface\s+(\w+)`), types.KindInterface, 1, true},
	{regexp.MustCompile(`^\s*(?:public|private|protected)?\s*(?:abstract\s+|final\s+)?class\s+(\w+)`), types.KindClass, 1, true},
	{regexp.MustCompile(`^\s*(?:public|private|protected)?\s*static\s+final\s+\S+\s+([A-Z_][A-Z0-9_]*)\s*=`), types.KindConstant, 1, true},
	{regexp.MustCompile(`^\s*(?:public|private|protected)\s+(?:static\s+)?(?:final\s+)?\S+\s+(\w+)\s*\([^;]*\)\s*\{`), types.KindMethod, 1, true},
}

var phpRules = []rule{
	{regexp.MustCompile(`^\s*interface\s+(\w+)`), types.KindInterface, 1, true},
	{regexp.MustCompile(`^\s*(?:abstract\s+|final\s+)?class\s+(\w+)`), types.KindClass, 1, true},
	{regexp.MustCompile(`^\s*(?:public|private|protected)?\s*function\s+(\w+)\s*\(`), types.KindMethod, 1, true},
	{regexp.MustCompile(`^\s*function\s+(\w+)\s*\(`), types.KindFunction, 1, true},
	{regexp.MustCompile(`^\s*const\s+(\w+)\s*=`), types.KindConstant, 1, true},
}

var rubyRules = []rule{
	{regexp.MustCompile(`^\s*module\s+(\w+)`), types.KindInterface, 1, true},
	{regexp.MustCompile(`^\s*class\s+(\w+)`), types.KindClass, 1, true},
	{regexp.MustCompile(`^\s*def\s+(?:self\.)?(\w+[?!]?)`), types.KindMethod, 1, true},
	{regexp.MustCompile(`^([A-Z_][A-Z0-9_]*)\s*=`), types.KindConstant, 1, true},
}

var cRules = []rule{
	{regexp.MustCompile(`^\s*(?:typedef\s+)?struct\s+(\w+)\s*\{`), types.KindClass, 1, true},
	{regexp.MustCompile(`^\s*class\s+(\w+)`), types.KindClass, 1, true},
	{regexp.MustCompile(`^\s*#define\s+([A-Z_][A-Z0-9_]*)\s`), types.KindConstant, 1, true},
	{regexp.MustCompile(`^\s*(?:static\s+|inline\s+)*\w[\w\s\*]*?\b(\w+)\s*\([^;]*\)\s*\{`), types.KindFunction, 1, true},
}
