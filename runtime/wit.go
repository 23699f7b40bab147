package runtime

import (
	"regexp"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/host-offload/errors"
)

// witText is the boundary interface in WIT form, with byte payloads
// lowered to (ptr, len) pairs into guest memory and handles carried as
// u64. Functions returning a handle use s64: negative values are negated
// error codes. Functions returning unit use s32 error codes.
const witText = `
package wasi-custom:host-offload@0.1.0;

interface host-allocator {
  allocate-buffer: func(size: u64) -> s64;
  allocate-matrix-f32: func(rows: u32, cols: u32) -> s64;
  free-buffer: func(h: u64) -> s32;
  write-to-host: func(ptr: u32, len: u32, target: u64, offset: u64) -> s32;
  read-from-host: func(source: u64, offset: u64, len: u64, dst: u32) -> s32;
  register-matrix-dimensions: func(h: u64, rows: u32, cols: u32) -> s32;
  get-matrix-dimensions: func(h: u64, out: u32) -> s32;
  matrix-multiply-f32: func(a: u64, b: u64) -> s64;
}
`

// FuncSig describes one boundary function.
type FuncSig struct {
	Name       string
	ParamNames []string
	Params     []wit.Type
	Results    []wit.Type
}

// CoreSignature lowers the WIT signature to core wasm value types:
// 64-bit integers map to i64, everything else in this interface is
// 32-bit.
func (f FuncSig) CoreSignature() (params, results []api.ValueType) {
	lower := func(t wit.Type) api.ValueType {
		switch t.(type) {
		case wit.U64, wit.S64:
			return api.ValueTypeI64
		default:
			return api.ValueTypeI32
		}
	}
	for _, t := range f.Params {
		params = append(params, lower(t))
	}
	for _, t := range f.Results {
		results = append(results, lower(t))
	}
	return params, results
}

var (
	ifaceOnce  sync.Once
	ifaceFuncs []FuncSig
	ifaceErr   error
)

// InterfaceFunctions returns the boundary functions guests may import, in
// declaration order. Parsed lazily from the embedded WIT text.
func InterfaceFunctions() ([]FuncSig, error) {
	ifaceOnce.Do(func() {
		ifaceFuncs, ifaceErr = parseWitFunctions(witText)
	})
	return ifaceFuncs, ifaceErr
}

// parseWitFunctions extracts function signatures from WIT text.
// Pattern: name: func(params) -> result;
func parseWitFunctions(text string) ([]FuncSig, error) {
	funcPattern := regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*func\s*\(([^)]*)\)(?:\s*->\s*([^;]+))?`)

	var funcs []FuncSig
	for _, match := range funcPattern.FindAllStringSubmatch(text, -1) {
		sig := FuncSig{Name: match[1]}

		paramsStr := strings.TrimSpace(match[2])
		if paramsStr != "" {
			for _, p := range strings.Split(paramsStr, ",") {
				p = strings.TrimSpace(p)
				name, typStr, found := strings.Cut(p, ":")
				if !found {
					return nil, errors.InvalidData(errors.PhaseLoad, "unnamed parameter in WIT function "+sig.Name)
				}
				t, err := wit.ParseType(strings.TrimSpace(typStr))
				if err != nil {
					return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidData, err, "parse param type "+typStr)
				}
				sig.ParamNames = append(sig.ParamNames, strings.TrimSpace(name))
				sig.Params = append(sig.Params, t)
			}
		}

		if resultStr := strings.TrimSpace(match[3]); resultStr != "" {
			t, err := wit.ParseType(resultStr)
			if err != nil {
				return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidData, err, "parse result type "+resultStr)
			}
			sig.Results = []wit.Type{t}
		}

		funcs = append(funcs, sig)
	}

	if len(funcs) == 0 {
		return nil, errors.InvalidData(errors.PhaseLoad, "no functions found in WIT text")
	}
	return funcs, nil
}
