package llvm

import (
	"strings"
	"testing"

	"github.com/oriproj/ori/internal/llvm/irwriter"
	"github.com/oriproj/ori/internal/registry"
	"github.com/oriproj/ori/internal/typepool"
)

func pairEntry(pool *typepool.Pool, derives ...string) *registry.TypeEntry {
	pairTy := pool.NewNamed("Pair")
	return &registry.TypeEntry{
		Name: "Pair",
		Kind: registry.KindStruct,
		Idx:  pairTy,
		Fields: []registry.FieldDef{
			{Name: "a", Ty: typepool.INT},
			{Name: "b", Ty: typepool.INT},
		},
		Derives: derives,
	}
}

func TestDeriveEqShortCircuitsOnFirstField(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()
	entry := pairEntry(pool, "Eq")
	types.Define(entry)

	mod := irwriter.NewModule("test")
	DeriveFunctions(mod, []string{"main"}, pool, types, entry)
	out := mod.String()

	if !strings.Contains(out, "define i1 @_ori_main$Pair$eq(ptr %self, ptr %other)") {
		t.Fatalf("missing eq signature:\n%s", out)
	}
	if !strings.Contains(out, "label %eq.false.2") {
		t.Fatalf("expected a branch targeting the shared false block, got:\n%s", out)
	}
	if !strings.Contains(out, "eq.check.") {
		t.Fatalf("expected an intermediate per-field check block, got:\n%s", out)
	}
	if !strings.Contains(out, "ret i1 true") || !strings.Contains(out, "ret i1 false") {
		t.Fatalf("expected both true/false returns, got:\n%s", out)
	}
}

func TestDeriveComparableLexicographic(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()
	entry := pairEntry(pool, "Comparable")
	types.Define(entry)

	mod := irwriter.NewModule("test")
	DeriveFunctions(mod, nil, pool, types, entry)
	out := mod.String()

	if !strings.Contains(out, "define i8 @_ori_Pair$compare(ptr %self, ptr %other)") {
		t.Fatalf("missing compare signature:\n%s", out)
	}
	if !strings.Contains(out, "icmp slt i64") || !strings.Contains(out, "icmp sgt i64") {
		t.Fatalf("expected lt/gt comparisons on the first int field, got:\n%s", out)
	}
}

func TestDeriveHashUsesFNV1aConstants(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()
	entry := pairEntry(pool, "Hashable")
	types.Define(entry)

	mod := irwriter.NewModule("test")
	DeriveFunctions(mod, nil, pool, types, entry)
	out := mod.String()

	if !strings.Contains(out, "14695981039346656037") {
		t.Fatalf("expected FNV offset basis, got:\n%s", out)
	}
	if !strings.Contains(out, ", 1099511628211") {
		t.Fatalf("expected FNV prime multiply, got:\n%s", out)
	}
}

func TestDerivePrintableConcatenatesFields(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()
	entry := pairEntry(pool, "Printable")
	types.Define(entry)

	mod := irwriter.NewModule("test")
	DeriveFunctions(mod, nil, pool, types, entry)
	out := mod.String()

	if !strings.Contains(out, `c"Pair("`) {
		t.Fatalf("expected type-name prefix constant, got:\n%s", out)
	}
	if !strings.Contains(out, "call %ori.str @ori_str_from_int") {
		t.Fatalf("expected int field stringification, got:\n%s", out)
	}
	if !strings.Contains(out, "call %ori.str @ori_str_concat") {
		t.Fatalf("expected concatenation calls, got:\n%s", out)
	}
}

func TestDeriveCloneUsesSretForLargeStruct(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()
	bigTy := pool.NewNamed("Big")
	entry := &registry.TypeEntry{
		Name: "Big",
		Kind: registry.KindStruct,
		Idx:  bigTy,
		Fields: []registry.FieldDef{
			{Name: "a", Ty: typepool.INT},
			{Name: "b", Ty: typepool.INT},
			{Name: "c", Ty: typepool.INT},
		},
		Derives: []string{"Clone"},
	}
	types.Define(entry)

	mod := irwriter.NewModule("test")
	DeriveFunctions(mod, nil, pool, types, entry)
	out := mod.String()

	if !strings.Contains(out, "define void @_ori_Big$clone(ptr noalias sret(%Big) %sret, ptr %self)") {
		t.Fatalf("expected sret signature for a 24-byte struct, got:\n%s", out)
	}
}

func TestDeriveCloneReturnsDirectForSmallStruct(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()
	entry := pairEntry(pool, "Clone")
	types.Define(entry)

	mod := irwriter.NewModule("test")
	DeriveFunctions(mod, nil, pool, types, entry)
	out := mod.String()

	if !strings.Contains(out, "define %Pair @_ori_Pair$clone(ptr %self)") {
		t.Fatalf("expected direct-return signature for a 16-byte struct, got:\n%s", out)
	}
}

func TestDeriveDefaultZeroInitializes(t *testing.T) {
	pool := typepool.New()
	types := registry.NewTypeRegistry()
	entry := pairEntry(pool, "Default")
	types.Define(entry)

	mod := irwriter.NewModule("test")
	DeriveFunctions(mod, nil, pool, types, entry)
	out := mod.String()

	if !strings.Contains(out, "ret %Pair zeroinitializer") {
		t.Fatalf("expected zeroinitializer return, got:\n%s", out)
	}
}
