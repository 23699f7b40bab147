package engine

import (
	"context"
	"testing"

	"github.com/wippyai/host-offload/errors"
)

// emptyModule is the smallest valid core wasm binary: magic + version.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func TestLoadModule_Empty(t *testing.T) {
	ctx := context.Background()
	eng, err := New(ctx)
	if err != nil {
		t.Fatalf("engine creation failed: %v", err)
	}
	defer eng.Close(ctx)

	mod, err := eng.LoadModule(ctx, emptyModule)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(mod.ExportNames()) != 0 {
		t.Fatalf("empty module should export nothing, got %v", mod.ExportNames())
	}
	if mod.ImportsModule("wasi-custom:host-offload/host-allocator@0.1.0") {
		t.Fatal("empty module should import nothing")
	}
}

func TestLoadModule_Garbage(t *testing.T) {
	ctx := context.Background()
	eng, err := New(ctx)
	if err != nil {
		t.Fatalf("engine creation failed: %v", err)
	}
	defer eng.Close(ctx)

	_, err = eng.LoadModule(ctx, []byte("not a wasm module"))
	if err == nil {
		t.Fatal("expected error for invalid bytes")
	}
	if !errors.IsKind(err, errors.KindInvalidData) {
		t.Fatalf("expected invalid_data, got %v", err)
	}
}

func TestInstantiate_AndCallMissing(t *testing.T) {
	ctx := context.Background()
	eng, err := NewWithConfig(ctx, &Config{MemoryLimitPages: 16, DisableWASI: true})
	if err != nil {
		t.Fatalf("engine creation failed: %v", err)
	}
	defer eng.Close(ctx)

	mod, err := eng.LoadModule(ctx, emptyModule)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	inst, err := mod.Instantiate(ctx, &InstanceConfig{Name: "guest"})
	if err != nil {
		t.Fatalf("instantiate failed: %v", err)
	}
	defer inst.Close(ctx)

	if _, err := inst.Call(ctx, "run"); !errors.IsKind(err, errors.KindNotFound) {
		t.Fatalf("expected not_found for missing export, got %v", err)
	}
	if inst.Memory() != nil {
		t.Fatal("empty module has no memory")
	}
}
