package jit

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/loojk2008/ferrugo/heap"
	"github.com/loojk2008/ferrugo/trampoline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTable(t *testing.T) *trampoline.Table {
	t.Helper()
	world := heap.Bootstrap()
	return trampoline.NewTable(trampoline.Deps{
		ObjectHeap: world.ObjectHeap,
		Out:        &bytes.Buffer{},
		Rand:       rand.New(rand.NewSource(1)),
	})
}

func TestLinkResolvesKnownSymbol(t *testing.T) {
	table := newTable(t)
	linker := NewLinker(table, nil)

	gen := NewCodeGenerator("Demo.run:()V")
	sig, _ := table.Signature("java/lang/Math.sqrt:(D)D")
	require.NoError(t, gen.Declare("java/lang/Math.sqrt:(D)D", sig))

	symtab, err := linker.Link(gen)
	require.NoError(t, err)

	decl, ok := symtab.Resolve("java/lang/Math.sqrt:(D)D")
	require.True(t, ok)
	assert.Equal(t, sig, decl.Sig)
}

func TestLinkFailsClosedOnUnknownSymbol(t *testing.T) {
	table := newTable(t)
	linker := NewLinker(table, nil)

	gen := NewCodeGenerator("Demo.run:()V")
	require.NoError(t, gen.Declare("java/lang/Nope.foo:()V", trampoline.Signature{Ret: trampoline.Void}))

	_, err := linker.Link(gen)
	assert.True(t, errors.Is(err, trampoline.ErrUnresolvedSymbol))
}

func TestLinkFailsOnSignatureMismatch(t *testing.T) {
	table := newTable(t)
	linker := NewLinker(table, nil)

	gen := NewCodeGenerator("Demo.run:()V")
	wrongSig := trampoline.Signature{Ret: trampoline.Int, Params: []trampoline.Code{trampoline.Ptr}}
	require.NoError(t, gen.Declare("java/lang/Math.sqrt:(D)D", wrongSig))

	_, err := linker.Link(gen)
	assert.Error(t, err)
}

func TestDeclareRejectsConflictingSignatureForSameName(t *testing.T) {
	gen := NewCodeGenerator("Demo.run:()V")
	require.NoError(t, gen.Declare("x", trampoline.Signature{Ret: trampoline.Void}))

	err := gen.Declare("x", trampoline.Signature{Ret: trampoline.Int})
	assert.Error(t, err)
}

func TestDeclareIsIdempotentForSameSignature(t *testing.T) {
	gen := NewCodeGenerator("Demo.run:()V")
	sig := trampoline.Signature{Ret: trampoline.Void}
	require.NoError(t, gen.Declare("x", sig))
	require.NoError(t, gen.Declare("x", sig))

	assert.Len(t, gen.Declarations(), 1)
}

func TestPartialLinkFailureYieldsNoSymbolTable(t *testing.T) {
	table := newTable(t)
	linker := NewLinker(table, nil)

	gen := NewCodeGenerator("Demo.run:()V")
	sig, _ := table.Signature("java/lang/Math.sqrt:(D)D")
	require.NoError(t, gen.Declare("java/lang/Math.sqrt:(D)D", sig))
	require.NoError(t, gen.Declare("nonexistent", trampoline.Signature{}))

	symtab, err := linker.Link(gen)
	assert.Error(t, err)
	assert.Nil(t, symtab)
}
