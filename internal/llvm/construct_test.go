package llvm

import (
	"strings"
	"testing"

	"github.com/oriproj/ori/internal/arcir"
	"github.com/oriproj/ori/internal/llvm/irwriter"
	"github.com/oriproj/ori/internal/registry"
	"github.com/oriproj/ori/internal/typepool"
)

func pointRegistry() (*typepool.Pool, *registry.TypeRegistry, typepool.Idx) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()
	pointTy := pool.NewNamed("Point")
	types.Define(&registry.TypeEntry{
		Name: "Point",
		Kind: registry.KindStruct,
		Idx:  pointTy,
		Fields: []registry.FieldDef{
			{Name: "x", Ty: typepool.INT},
			{Name: "y", Ty: typepool.INT},
		},
	})
	return pool, types, pointTy
}

func TestLowerConstructStructAllocatesAndStoresFields(t *testing.T) {
	pool, types, pointTy := pointRegistry()

	b := arcir.NewBuilder("make_point", []arcir.ArcParam{
		{Var: 0, Ty: typepool.INT},
		{Var: 1, Ty: typepool.INT},
	}, pointTy)
	b.Emit(arcir.ArcInstr{
		Kind: arcir.IConstruct, Dst: 2, Ty: pointTy,
		Ctor: arcir.CtorKind{Kind: arcir.CtorStruct, Name: "Point"},
		Args: []arcir.ArcVarId{0, 1},
	})
	b.Terminate(arcir.ArcTerminator{Kind: arcir.TReturn, ReturnValue: 2})
	fn := b.Finish()

	mod := irwriter.NewModule("test")
	LowerFunction(mod, fn, []string{"main"}, pool, types)
	out := mod.String()

	if !strings.Contains(out, "%Point = type { i64, i64 }") {
		t.Fatalf("missing struct decl:\n%s", out)
	}
	if !strings.Contains(out, "call ptr @ori_rc_alloc(i64 16)") {
		t.Fatalf("missing alloc call:\n%s", out)
	}
	if !strings.Contains(out, "getelementptr inbounds %Point, ptr %2, i32 0, i32 0") {
		t.Fatalf("missing field-0 gep:\n%s", out)
	}
	if !strings.Contains(out, "store i64 %1, ptr") {
		t.Fatalf("missing field-1 store:\n%s", out)
	}
}

func TestLowerProjectLoadsStructField(t *testing.T) {
	pool, types, pointTy := pointRegistry()

	b := arcir.NewBuilder("get_x", []arcir.ArcParam{{Var: 0, Ty: pointTy}}, typepool.INT)
	b.Emit(arcir.ArcInstr{Kind: arcir.IProject, Dst: 1, Ty: typepool.INT, Value1: 0, Field: 0})
	b.Terminate(arcir.ArcTerminator{Kind: arcir.TReturn, ReturnValue: 1})
	fn := b.Finish()

	mod := irwriter.NewModule("test")
	LowerFunction(mod, fn, nil, pool, types)
	out := mod.String()

	if !strings.Contains(out, "getelementptr inbounds %Point, ptr %0, i32 0, i32 0") {
		t.Fatalf("expected typed struct GEP, got:\n%s", out)
	}
	if !strings.Contains(out, "%1 = load i64, ptr") {
		t.Fatalf("expected load into dst, got:\n%s", out)
	}
}

func enumRegistry() (*typepool.Pool, *registry.TypeRegistry, typepool.Idx) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()
	optTy := pool.NewNamed("Opt")
	types.Define(&registry.TypeEntry{
		Name: "Opt",
		Kind: registry.KindEnum,
		Idx:  optTy,
		Variants: []registry.VariantDef{
			{Name: "None", Discriminant: 0},
			{Name: "Some", Payload: []typepool.Idx{typepool.INT}, Discriminant: 1},
		},
	})
	return pool, types, optTy
}

func TestLowerConstructEnumVariantBoxesTagAndPayload(t *testing.T) {
	pool, types, optTy := enumRegistry()

	b := arcir.NewBuilder("make_some", []arcir.ArcParam{{Var: 0, Ty: typepool.INT}}, optTy)
	b.Emit(arcir.ArcInstr{
		Kind: arcir.IConstruct, Dst: 1, Ty: optTy,
		Ctor: arcir.CtorKind{Kind: arcir.CtorEnumVariant, Name: "Opt", Variant: 1},
		Args: []arcir.ArcVarId{0},
	})
	b.Terminate(arcir.ArcTerminator{Kind: arcir.TReturn, ReturnValue: 1})
	fn := b.Finish()

	mod := irwriter.NewModule("test")
	LowerFunction(mod, fn, nil, pool, types)
	out := mod.String()

	if !strings.Contains(out, "call ptr @ori_list_alloc_data(i64 1)") {
		t.Fatalf("expected payload array alloc, got:\n%s", out)
	}
	if !strings.Contains(out, "call ptr @ori_rc_alloc(i64 16)") {
		t.Fatalf("expected 16-byte box alloc for { tag, payload }, got:\n%s", out)
	}
	if !strings.Contains(out, "store i64 1, ptr") {
		t.Fatalf("expected tag store of variant index 1, got:\n%s", out)
	}
}

func TestLowerResetReuseExpandsToBranches(t *testing.T) {
	pool, types, pointTy := pointRegistry()

	b := arcir.NewBuilder("reset_point", []arcir.ArcParam{
		{Var: 0, Ty: pointTy}, {Var: 1, Ty: typepool.INT}, {Var: 2, Ty: typepool.INT},
	}, pointTy)
	b.Emit(arcir.ArcInstr{Kind: arcir.IReset, Token: 3, Value1: 0})
	b.Emit(arcir.ArcInstr{
		Kind: arcir.IReuse, Dst: 4, Ty: pointTy, Token: 3,
		Ctor: arcir.CtorKind{Kind: arcir.CtorStruct, Name: "Point"},
		Args: []arcir.ArcVarId{1, 2},
	})
	b.Terminate(arcir.ArcTerminator{Kind: arcir.TReturn, ReturnValue: 4})
	fn := b.Finish()

	mod := irwriter.NewModule("test")
	LowerFunction(mod, fn, nil, pool, types)
	out := mod.String()

	if !strings.Contains(out, "call i1 @ori_rc_is_shared(ptr %0)") {
		t.Fatalf("expected IsShared check, got:\n%s", out)
	}
	if !strings.Contains(out, "icmp eq ptr %3, null") {
		t.Fatalf("expected null-token check, got:\n%s", out)
	}
	if !strings.Contains(out, "phi ptr") {
		t.Fatalf("expected phi join for reuse result, got:\n%s", out)
	}
}
