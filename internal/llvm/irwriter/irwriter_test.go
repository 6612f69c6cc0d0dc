package irwriter

import (
	"strings"
	"testing"
)

func TestModuleRendersStructsGlobalsExternsThenFuncs(t *testing.T) {
	m := NewModule("test")
	m.DeclareStruct("Point", "%Point = type { i64, i64 }")
	m.DeclareStruct("Point", "%Point = type { i64, i64 }") // idempotent
	m.DeclareExtern("ori_rc_dec", "declare void @ori_rc_dec(ptr)")
	m.DeclareGlobal(".str.0", `@.str.0 = private constant [5 x i8] c"hello"`)

	f := m.NewFunction("_ori_main$f")
	f.SetSignature("define i64 @_ori_main$f(i64 %0)")
	f.NewBlock("bb0")
	f.Emit("ret i64 %0")

	out := m.String()
	if want := "%Point = type { i64, i64 }"; strings.Count(out, want) != 1 {
		t.Fatalf("expected struct decl exactly once, got:\n%s", out)
	}
	if !strings.Contains(out, "declare void @ori_rc_dec(ptr)") {
		t.Fatalf("expected extern decl, got:\n%s", out)
	}
	if !strings.Contains(out, "define i64 @_ori_main$f(i64 %0) {") {
		t.Fatalf("expected function header, got:\n%s", out)
	}
	if !strings.Contains(out, "bb0:") || !strings.Contains(out, "ret i64 %0") {
		t.Fatalf("expected block body, got:\n%s", out)
	}
}

func TestFunctionWithPersonalityRendersAfterSignature(t *testing.T) {
	f := &Function{Name: "f"}
	f.SetSignature("define void @f()")
	f.Personality = "personality ptr @rust_eh_personality"
	f.NewBlock("bb0")
	f.Emit("ret void")

	out := f.String()
	if !strings.Contains(out, "define void @f() personality ptr @rust_eh_personality {") {
		t.Fatalf("expected personality on header line, got:\n%s", out)
	}
}
