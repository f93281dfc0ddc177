package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/ctxpack/internal/types"
)

func TestForLanguage_UnrecognizedLanguageIsNoop(t *testing.T) {
	e := ForLanguage(types.Language("cobol"))
	assert.Nil(t, e.Extract("x.cob", []byte("anything")))
}

func TestExtract_Go(t *testing.T) {
	src := `package foo

type Thing interface {
	Do()
}

type Widget struct {
	Name string
}

func (w *Widget) Greet() string {
	return w.Name
}

func NewWidget() *Widget {
	return &Widget{}
}

const MaxWidgets = 10
`
	syms := ForLanguage(types.LangGo).Extract("foo.go", []byte(src))
	require.Len(t, syms, 5)

	assert.Equal(t, "Thing", syms[0].Name)
	assert.Equal(t, types.KindInterface, syms[0].Kind)
	assert.Equal(t, 3, syms[0].StartLine)
	assert.Equal(t, 5, syms[0].EndLine)

	assert.Equal(t, "Widget", syms[1].Name)
	assert.Equal(t, types.KindClass, syms[1].Kind)
	assert.Equal(t, 7, syms[1].StartLine)
	assert.Equal(t, 9, syms[1].EndLine)

	assert.Equal(t, "Greet", syms[2].Name)
	assert.Equal(t, types.KindMethod, syms[2].Kind)
	assert.Equal(t, 11, syms[2].StartLine)
	assert.Equal(t, 13, syms[2].EndLine)

	assert.Equal(t, "NewWidget", syms[3].Name)
	assert.Equal(t, types.KindFunction, syms[3].Kind)
	assert.Equal(t, 15, syms[3].StartLine)
	assert.Equal(t, 17, syms[3].EndLine)

	assert.Equal(t, "MaxWidgets", syms[4].Name)
	assert.Equal(t, types.KindConstant, syms[4].Kind)
	assert.Equal(t, 19, syms[4].StartLine)
}

func TestExtract_Python_IndentBasedBlockEnds(t *testing.T) {
	src := `class Foo:
    def bar(self):
        return 1

    def baz(self):
        return 2

x = 1
`
	syms := ForLanguage(types.LangPython).Extract("foo.py", []byte(src))
	require.Len(t, syms, 3)

	assert.Equal(t, "Foo", syms[0].Name)
	assert.Equal(t, types.KindClass, syms[0].Kind)
	assert.Equal(t, 1, syms[0].StartLine)
	assert.Equal(t, 7, syms[0].EndLine)

	assert.Equal(t, "bar", syms[1].Name)
	assert.Equal(t, 2, syms[1].StartLine)
	assert.Equal(t, 4, syms[1].EndLine)

	assert.Equal(t, "baz", syms[2].Name)
	assert.Equal(t, 5, syms[2].StartLine)
	assert.Equal(t, 7, syms[2].EndLine)
}

func TestExtract_EmptyContentYieldsNoSymbols(t *testing.T) {
	assert.Nil(t, ForLanguage(types.LangGo).Extract("empty.go", nil))
}
