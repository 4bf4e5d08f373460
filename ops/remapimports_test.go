package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgavlin/warp/wasm"
)

func TestRemapImportsPreset(t *testing.T) {
	m := envContract()

	op, err := New("remapimports", params(t, `{preset: ewasm}`))
	require.NoError(t, err)
	translator := op.(Translator)

	mutated, err := translator.Translate(m)
	require.NoError(t, err)
	assert.True(t, mutated)

	e := m.Import.Entries[0]
	assert.Equal(t, "ethereum", e.ModuleName)
	assert.Equal(t, "useGas", e.FieldName)
	assert.Equal(t, wasm.FuncImport{Type: 0}, e.Type)

	// A second pass finds nothing left to rename.
	mutated, err = translator.Translate(m)
	require.NoError(t, err)
	assert.False(t, mutated)
}

func TestRemapImportsMapping(t *testing.T) {
	m := envContract()
	m.Import.Entries = append(m.Import.Entries, wasm.ImportEntry{
		ModuleName: "env", FieldName: "keep", Type: wasm.FuncImport{Type: 1},
	})

	op, err := New("remapimports", params(t, `
mapping:
  - from: {namespace: env, name: ethereum_useGas}
    to: {namespace: sys, name: useGas}
`))
	require.NoError(t, err)

	mutated, err := op.(Translator).Translate(m)
	require.NoError(t, err)
	assert.True(t, mutated)

	assert.Equal(t, "sys", m.Import.Entries[0].ModuleName)
	assert.Equal(t, "useGas", m.Import.Entries[0].FieldName)
	assert.Equal(t, "env", m.Import.Entries[1].ModuleName)
	assert.Equal(t, "keep", m.Import.Entries[1].FieldName)
}

func TestRemapImportsNothingToDo(t *testing.T) {
	op, err := New("remapimports", params(t, `{preset: ewasm}`))
	require.NoError(t, err)

	// Already in ewasm shape.
	mutated, err := op.(Translator).Translate(ewasmContract())
	require.NoError(t, err)
	assert.False(t, mutated)

	// No import section at all.
	m := ewasmContract()
	m.Import = nil
	m.Function.Types = nil
	m.Code.Bodies = nil
	m.Export.Entries = m.Export.Entries[:1]
	m.Sync()
	mutated, err = op.(Translator).Translate(m)
	require.NoError(t, err)
	assert.False(t, mutated)
}

func TestRemapImportsConfig(t *testing.T) {
	for _, tt := range []struct {
		name   string
		params string
		reason string
	}{
		{"empty", `{}`, "a preset or a mapping is required"},
		{"both", `{preset: ewasm, mapping: [{from: {name: a}, to: {name: b}}]}`, "mutually exclusive"},
		{"unknown preset", `{preset: teewasm}`, `unknown preset "teewasm"`},
		{"nameless entry", `{mapping: [{from: {namespace: env}, to: {name: b}}]}`, "need from and to names"},
		{"duplicate", `{mapping: [{from: {name: a}, to: {name: b}}, {from: {name: a}, to: {name: c}}]}`, "duplicate mapping"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("remapimports", params(t, tt.params))
			var configErr *ConfigError
			require.ErrorAs(t, err, &configErr)
			assert.Contains(t, configErr.Reason, tt.reason)
		})
	}
}
