package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromArgs(t *testing.T) {
	rs, err := FromArgs("contract.wasm", "", "",
		[]string{"remapimports", "verifyexports"},
		[]string{"remapimports.preset=ewasm", "verifyexports.preset=ewasm"})
	require.NoError(t, err)

	assert.Equal(t, "contract.wasm", rs.Name)
	assert.Equal(t, "contract.wasm", rs.File)
	assert.Equal(t, "/dev/stdout", rs.Output, "output defaults to stdout")
	assert.Equal(t, FormatBin, rs.Format)
	require.Len(t, rs.Ops, 2)
	assert.Equal(t, "remapimports", rs.Ops[0].Name)
	assert.Equal(t, "verifyexports", rs.Ops[1].Name)

	var p struct {
		Preset string `yaml:"preset"`
	}
	require.NoError(t, rs.Ops[0].Params.Decode(&p))
	assert.Equal(t, "ewasm", p.Preset)
}

func TestFromArgsRepeatedKey(t *testing.T) {
	rs, err := FromArgs("a.wasm", "out.wasm", "hex",
		[]string{"dropsection"},
		[]string{"dropsection.kinds=data", "dropsection.kinds=element"})
	require.NoError(t, err)
	assert.Equal(t, "out.wasm", rs.Output)
	assert.Equal(t, FormatHex, rs.Format)

	var p struct {
		Kinds []string `yaml:"kinds"`
	}
	require.NoError(t, rs.Ops[0].Params.Decode(&p))
	assert.Equal(t, []string{"data", "element"}, p.Kinds)
}

func TestFromArgsScalarTypes(t *testing.T) {
	// Values are left untagged, so the decoder infers scalar types.
	rs, err := FromArgs("a.wasm", "", "",
		[]string{"checkstartfunc"},
		[]string{"checkstartfunc.require_start=true"})
	require.NoError(t, err)

	var p struct {
		RequireStart bool `yaml:"require_start"`
	}
	require.NoError(t, rs.Ops[0].Params.Decode(&p))
	assert.True(t, p.RequireStart)
}

func TestFromArgsValueWithEquals(t *testing.T) {
	rs, err := FromArgs("a.wasm", "", "",
		[]string{"snip"},
		[]string{`snip.patterns=^x=y$`})
	require.NoError(t, err)

	var p struct {
		Patterns string `yaml:"patterns"`
	}
	require.NoError(t, rs.Ops[0].Params.Decode(&p))
	assert.Equal(t, "^x=y$", p.Patterns)
}

func TestFromArgsErrors(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		format      string
		ops         []string
		assignments []string
	}{
		{"missing file", "", "", []string{"repack"}, nil},
		{"unknown format", "a.wasm", "elf", []string{"repack"}, nil},
		{"missing op prefix", "a.wasm", "", []string{"repack"}, []string{"preset=ewasm"}},
		{"missing value", "a.wasm", "", []string{"repack"}, []string{"repack.preset"}},
		{"unselected operation", "a.wasm", "", []string{"repack"}, []string{"deployer.preset=memory"}},
		{"duplicate operation", "a.wasm", "", []string{"repack", "repack"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromArgs(tt.file, "", tt.format, tt.ops, tt.assignments)
			require.Error(t, err)
			var cerr *Error
			assert.ErrorAs(t, err, &cerr)
		})
	}
}
