package imports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/ctxpack/internal/types"
)

func TestExtract_UnrecognizedLanguageYieldsNil(t *testing.T) {
	b := NewBuilder(nil)
	assert.Nil(t, b.Extract("x.cob", types.Language("cobol"), []byte("anything")))
}

func TestExtract_Go_ExternalImportLeftAsLiteral(t *testing.T) {
	b := NewBuilder([]string{"foo.go"})
	src := "import (\n\t\"fmt\"\n)\n"
	edges := b.Extract("foo.go", types.LangGo, []byte(src))
	require.Len(t, edges, 1)
	assert.Equal(t, "foo.go", edges[0].SourcePath)
	assert.Equal(t, "fmt", edges[0].TargetPath)
}

func TestExtract_JavaScript_RelativeImportResolvesAgainstIndex(t *testing.T) {
	b := NewBuilder([]string{"src/a.js", "src/b.js"})
	src := "import { x } from './b'\n"
	edges := b.Extract("src/a.js", types.LangJavaScript, []byte(src))
	require.Len(t, edges, 1)
	assert.Equal(t, "src/b.js", edges[0].TargetPath)
}

func TestExtract_JavaScript_ExternalPackageLeftAsLiteral(t *testing.T) {
	b := NewBuilder([]string{"src/a.js"})
	src := "import React from 'react'\n"
	edges := b.Extract("src/a.js", types.LangJavaScript, []byte(src))
	require.Len(t, edges, 1)
	assert.Equal(t, "react", edges[0].TargetPath)
}

func TestExtract_DuplicateImportsDeduped(t *testing.T) {
	b := NewBuilder([]string{"src/a.js"})
	src := "const x = require('lodash')\nconst y = require('lodash')\n"
	edges := b.Extract("src/a.js", types.LangJavaScript, []byte(src))
	assert.Len(t, edges, 1)
}

func TestExtract_Python_DottedImportLeftAsLiteral(t *testing.T) {
	b := NewBuilder([]string{"pkg/mod.py"})
	src := "import pkg.mod\n"
	edges := b.Extract("main.py", types.LangPython, []byte(src))
	require.Len(t, edges, 1)
	assert.Equal(t, "pkg.mod", edges[0].TargetPath)
}

func TestExtract_C_IncludeQuotedVsAngleBracket(t *testing.T) {
	b := NewBuilder([]string{"src/util.h"})
	src := "#include \"util.h\"\n#include <stdio.h>\n"
	edges := b.Extract("src/main.c", types.LangC, []byte(src))
	require.Len(t, edges, 2)
	assert.Equal(t, "util.h", edges[0].TargetPath)
	assert.Equal(t, "stdio.h", edges[1].TargetPath)
}
