package synth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

func TestEncodeULEB128(t *testing.T) {
	tests := []struct {
		in   uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
		{16384, []byte{0x80, 0x80, 0x01}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EncodeULEB128(tt.in))
	}
}

// The built module must instantiate under wazero with its imports bound
// to a plain host module, export a growable memory, and route calls
// through to the host functions.
func TestEnvModule_Instantiates(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	var got []uint64
	_, err := rt.NewHostModuleBuilder("test_host").
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			got = append(got, stack[0], stack[1])
			stack[0] = stack[0] + stack[1]
		}), []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}).
		Export("add").
		Instantiate(ctx)
	require.NoError(t, err)

	b := NewEnvModuleBuilder("test_host")
	b.AddFunc("add", []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32})
	b.SetMemoryMinPages(2)

	env, err := rt.InstantiateWithConfig(ctx, b.Build(), wazero.NewModuleConfig().WithName("env"))
	require.NoError(t, err)

	mem := env.ExportedMemory("memory")
	require.NotNil(t, mem)
	assert.Equal(t, uint32(2*65536), mem.Size())

	// Memory is growable (no maximum).
	_, ok := mem.Grow(1)
	assert.True(t, ok)

	fn := env.ExportedFunction("add")
	require.NotNil(t, fn)
	res, err := fn.Call(ctx, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), res[0])
	assert.Equal(t, []uint64{3, 4}, got)
}

func TestParseMemoryImportMin(t *testing.T) {
	// A module importing only functions has no memory import.
	b := NewEnvModuleBuilder("host")
	b.AddFunc("f", []api.ValueType{api.ValueTypeI32}, nil)
	_, ok := ParseMemoryImportMin(b.Build(), "env")
	assert.False(t, ok)

	// Hand-assembled module importing (memory 3) from env.
	mod := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x02, 0x0c, // import section, 12 bytes
		0x01,                // one import
		0x03, 'e', 'n', 'v', // module "env"
		0x03, 'm', 'e', 'm', // truncated name: not "memory"
		0x02, 0x00, 0x03, // memory, no max, min 3
	}
	_, ok = ParseMemoryImportMin(mod, "env")
	assert.False(t, ok)

	mod = []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x02, 0x0f, // import section, 15 bytes
		0x01,
		0x03, 'e', 'n', 'v',
		0x06, 'm', 'e', 'm', 'o', 'r', 'y',
		0x02, 0x00, 0x03,
	}
	min, ok := ParseMemoryImportMin(mod, "env")
	require.True(t, ok)
	assert.Equal(t, uint32(3), min)

	_, ok = ParseMemoryImportMin([]byte("short"), "env")
	assert.False(t, ok)
}

func TestEnvModule_NoFuncs(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	b := NewEnvModuleBuilder("unused")
	env, err := rt.InstantiateWithConfig(ctx, b.Build(), wazero.NewModuleConfig().WithName("env"))
	require.NoError(t, err)
	require.NotNil(t, env.ExportedMemory("memory"))
}
