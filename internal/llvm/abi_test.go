package llvm

import (
	"testing"

	"github.com/oriproj/ori/internal/registry"
	"github.com/oriproj/ori/internal/typepool"
)

func TestByteSizeSumsStructFields(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()
	types.Define(&registry.TypeEntry{
		Name: "Point",
		Kind: registry.KindStruct,
		Idx:  pool.NewNamed("Point"),
		Fields: []registry.FieldDef{
			{Name: "x", Ty: typepool.INT},
			{Name: "y", Ty: typepool.INT},
		},
	})
	pointTy := pool.NewNamed("Point")
	if got := ByteSize(types, pool, pointTy); got != 16 {
		t.Fatalf("expected 16 bytes, got %d", got)
	}
}

func TestComputeAbiUsesSretForLargeReturn(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()
	types.Define(&registry.TypeEntry{
		Name: "Big",
		Kind: registry.KindStruct,
		Idx:  pool.NewNamed("Big"),
		Fields: []registry.FieldDef{
			{Name: "a", Ty: typepool.INT},
			{Name: "b", Ty: typepool.INT},
			{Name: "c", Ty: typepool.INT},
		},
	})
	bigTy := pool.NewNamed("Big")
	abi := ComputeAbi(types, pool, nil, bigTy)
	if abi.Return != RetSret {
		t.Fatalf("expected RetSret for a 24-byte struct, got %v", abi.Return)
	}
}

func TestComputeAbiDirectForSmallReturn(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()
	abi := ComputeAbi(types, pool, nil, typepool.INT)
	if abi.Return != RetDirect {
		t.Fatalf("expected RetDirect for Int, got %v", abi.Return)
	}
}

func TestComputeAbiVoidForUnit(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()
	abi := ComputeAbi(types, pool, nil, typepool.UNIT)
	if abi.Return != RetVoid {
		t.Fatalf("expected RetVoid for Unit, got %v", abi.Return)
	}
}
