package preset

import (
	"testing"

	"github.com/pgavlin/warp/wasm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImports(t *testing.T) {
	p, ok := Imports("ewasm")
	require.True(t, ok)
	assert.False(t, p.RequireAll)
	assert.True(t, p.StrictUnlisted)
	assert.Len(t, p.Rules, 33)

	for _, r := range p.Rules {
		assert.Equal(t, "ethereum", r.Namespace)
		assert.Equal(t, wasm.ExternalFunction, r.Kind)
		assert.True(t, r.Required)
	}

	_, ok = Imports("eth2")
	assert.False(t, ok)
}

func TestImportSignatures(t *testing.T) {
	p, _ := Imports("ewasm")
	byName := make(map[string]ImportRule, len(p.Rules))
	for _, r := range p.Rules {
		byName[r.Name] = r
	}

	useGas := byName["useGas"]
	assert.Equal(t, []wasm.ValueType{wasm.ValueTypeI64}, useGas.Sig.ParamTypes)
	assert.Empty(t, useGas.Sig.ReturnTypes)

	call := byName["call"]
	assert.Len(t, call.Sig.ParamTypes, 5)
	assert.Equal(t, []wasm.ValueType{wasm.ValueTypeI32}, call.Sig.ReturnTypes)
}

func TestExports(t *testing.T) {
	p, ok := Exports("ewasm")
	require.True(t, ok)
	assert.True(t, p.StrictUnlisted)
	require.Len(t, p.Rules, 2)
	assert.Equal(t, "main", p.Rules[0].Name)
	assert.Equal(t, wasm.ExternalFunction, p.Rules[0].Kind)
	assert.Empty(t, p.Rules[0].Sig.ParamTypes)
	assert.Equal(t, "memory", p.Rules[1].Name)
	assert.Equal(t, wasm.ExternalMemory, p.Rules[1].Kind)
}

func TestTrimExports(t *testing.T) {
	keep, ok := TrimExports("ewasm")
	require.True(t, ok)
	assert.Equal(t, []string{"main", "memory"}, keep)

	keep, ok = TrimExports("pwasm")
	require.True(t, ok)
	assert.Equal(t, []string{"_call"}, keep)
}

func TestImportRenames(t *testing.T) {
	table, ok := ImportRenames("ewasm")
	require.True(t, ok)
	assert.Len(t, table, 22)

	to, ok := table[ImportName{Namespace: "env", Name: "ethereum_useGas"}]
	require.True(t, ok)
	assert.Equal(t, ImportName{Namespace: "ethereum", Name: "useGas"}, to)
}
