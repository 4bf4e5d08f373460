package preset

import (
	"github.com/pgavlin/warp/wasm"
)

const (
	i32 = wasm.ValueTypeI32
	i64 = wasm.ValueTypeI64
)

func fnRule(namespace, name string, params, results []wasm.ValueType) ImportRule {
	return ImportRule{
		Namespace: namespace,
		Name:      name,
		Kind:      wasm.ExternalFunction,
		Sig:       wasm.FunctionSig{ParamTypes: params, ReturnTypes: results},
		Required:  true,
	}
}

func vt(types ...wasm.ValueType) []wasm.ValueType {
	return types
}

var importPolicies = map[string]ImportPolicy{
	// The ewasm environment interface. Modules may import any subset of it,
	// but everything they import must be on this list with these signatures.
	"ewasm": {
		Rules: []ImportRule{
			fnRule("ethereum", "useGas", vt(i64), nil),
			fnRule("ethereum", "getGasLeft", nil, vt(i64)),
			fnRule("ethereum", "getAddress", vt(i32), nil),
			fnRule("ethereum", "getExternalBalance", vt(i32, i32), nil),
			fnRule("ethereum", "getBlockHash", vt(i64, i32), vt(i32)),
			fnRule("ethereum", "call", vt(i64, i32, i32, i32, i32), vt(i32)),
			fnRule("ethereum", "callCode", vt(i64, i32, i32, i32, i32), vt(i32)),
			fnRule("ethereum", "callDelegate", vt(i64, i32, i32, i32), vt(i32)),
			fnRule("ethereum", "callStatic", vt(i64, i32, i32, i32), vt(i32)),
			fnRule("ethereum", "create", vt(i64, i32, i32, i32), vt(i32)),
			fnRule("ethereum", "callDataCopy", vt(i32, i32, i32), nil),
			fnRule("ethereum", "getCallDataSize", nil, vt(i32)),
			fnRule("ethereum", "getCodeSize", nil, vt(i32)),
			fnRule("ethereum", "getExternalCodeSize", vt(i32), vt(i32)),
			fnRule("ethereum", "externalCodeCopy", vt(i32, i32, i32, i32), nil),
			fnRule("ethereum", "codeCopy", vt(i32, i32, i32), nil),
			fnRule("ethereum", "getCaller", vt(i32), nil),
			fnRule("ethereum", "getCallValue", vt(i32), nil),
			fnRule("ethereum", "getBlockDifficulty", vt(i32), nil),
			fnRule("ethereum", "getBlockCoinbase", vt(i32), nil),
			fnRule("ethereum", "getBlockNumber", nil, vt(i64)),
			fnRule("ethereum", "getBlockGasLimit", nil, vt(i64)),
			fnRule("ethereum", "getBlockTimestamp", nil, vt(i64)),
			fnRule("ethereum", "getTxGasPrice", vt(i32), nil),
			fnRule("ethereum", "getTxOrigin", vt(i32), nil),
			fnRule("ethereum", "storageStore", vt(i32, i32), nil),
			fnRule("ethereum", "storageLoad", vt(i32, i32), nil),
			fnRule("ethereum", "log", vt(i32, i32, i32, i32, i32, i32, i32), nil),
			fnRule("ethereum", "getReturnDataSize", nil, vt(i32)),
			fnRule("ethereum", "returnDataCopy", vt(i32, i32, i32), nil),
			fnRule("ethereum", "finish", vt(i32, i32), nil),
			fnRule("ethereum", "revert", vt(i32, i32), nil),
			fnRule("ethereum", "selfDestruct", vt(i32), nil),
		},
		RequireAll:     false,
		StrictUnlisted: true,
	},

	// Debug and bignum interfaces accompany other namespaces, so imports
	// outside the list pass; the listed names are signature-checked.
	"debug": {
		Rules: []ImportRule{
			fnRule("debug", "print32", vt(i32), nil),
			fnRule("debug", "print64", vt(i64), nil),
			fnRule("debug", "printMem", vt(i32, i32), nil),
			fnRule("debug", "printMemHex", vt(i32, i32), nil),
			fnRule("debug", "printStorage", vt(i32), nil),
			fnRule("debug", "printStorageHex", vt(i32), nil),
		},
		RequireAll:     false,
		StrictUnlisted: false,
	},
	"bignum": {
		Rules: []ImportRule{
			fnRule("bignum", "mul256", vt(i32, i32, i32), nil),
			fnRule("bignum", "umulmod256", vt(i32, i32, i32, i32), nil),
		},
		RequireAll:     false,
		StrictUnlisted: false,
	},
}

var exportPolicies = map[string]ExportPolicy{
	// An ewasm contract exports exactly a main function and its memory.
	"ewasm": {
		Rules: []ExportRule{
			{Name: "main", Kind: wasm.ExternalFunction, Sig: wasm.FunctionSig{}},
			{Name: "memory", Kind: wasm.ExternalMemory},
		},
		StrictUnlisted: true,
	},
}

var trimExports = map[string][]string{
	"ewasm": {"main", "memory"},
	"pwasm": {"_call"},
}

// Toolchains that assume a C-style linker export the entry point with a
// leading underscore.
var exportRenames = map[string]map[string]string{
	"ewasm": {
		"_main": "main",
	},
}

func rename(fromNamespace, fromName, toNamespace, toName string) [2]ImportName {
	return [2]ImportName{
		{Namespace: fromNamespace, Name: fromName},
		{Namespace: toNamespace, Name: toName},
	}
}

func renameTable(pairs ...[2]ImportName) map[ImportName]ImportName {
	table := make(map[ImportName]ImportName, len(pairs))
	for _, p := range pairs {
		table[p[0]] = p[1]
	}
	return table
}

var importRenames = map[string]map[ImportName]ImportName{
	// Compilers that know nothing about ewasm emit the interface under the
	// flat env namespace; this moves the entries where the VM looks them up.
	"ewasm": renameTable(
		rename("env", "ethereum_useGas", "ethereum", "useGas"),
		rename("env", "ethereum_getGasLeft", "ethereum", "getGasLeft"),
		rename("env", "ethereum_getAddress", "ethereum", "getAddress"),
		rename("env", "ethereum_getBalance", "ethereum", "getBalance"),
		rename("env", "ethereum_getTxGasPrice", "ethereum", "getTxGasPrice"),
		rename("env", "ethereum_getTxOrigin", "ethereum", "getTxOrigin"),
		rename("env", "ethereum_getCaller", "ethereum", "getCaller"),
		rename("env", "ethereum_getCallDataSize", "ethereum", "getCallDataSize"),
		rename("env", "ethereum_callDataCopy", "ethereum", "callDataCopy"),
		rename("env", "ethereum_getCodeSize", "ethereum", "getCodeSize"),
		rename("env", "ethereum_codeCopy", "ethereum", "codeCopy"),
		rename("env", "ethereum_getReturnDataSize", "ethereum", "getReturnDataSize"),
		rename("env", "ethereum_returnDataCopy", "ethereum", "returnDataCopy"),
		rename("env", "ethereum_call", "ethereum", "call"),
		rename("env", "ethereum_callCode", "ethereum", "callCode"),
		rename("env", "ethereum_callDelegate", "ethereum", "callDelegate"),
		rename("env", "ethereum_callStatic", "ethereum", "callStatic"),
		rename("env", "ethereum_storageLoad", "ethereum", "storageLoad"),
		rename("env", "ethereum_storageStore", "ethereum", "storageStore"),
		rename("env", "ethereum_revert", "ethereum", "revert"),
		rename("env", "ethereum_finish", "ethereum", "finish"),
		rename("env", "ethereum_selfDestruct", "ethereum", "selfDestruct"),
	),
}
