package llvm

import "fmt"

// Runtime ABI symbols named directly by spec §6. ArcFunction lowering
// calls these by name; declare() registers the matching `declare` line
// the first time a symbol is actually used.
const (
	rtRcAlloc   = "ori_rc_alloc"
	rtRcInc     = "ori_rc_inc"
	rtRcDec     = "ori_rc_dec"
	rtStrEq     = "ori_str_eq"
	rtStrConcat = "ori_str_concat"
	rtStrHash   = "ori_str_hash"
	rtStrCompare = "ori_str_compare"
	rtStrFromInt   = "ori_str_from_int"
	rtStrFromFloat = "ori_str_from_float"
	rtStrFromBool  = "ori_str_from_bool"
	rtListNew      = "ori_list_new"
	rtListLen      = "ori_list_len"
	rtListAllocData = "ori_list_alloc_data"
	rtPanic = "ori_panic"

	ehPersonality = "rust_eh_personality"
)

// Runtime symbols this package adds beyond spec §6's named list, to give
// the PrimOp escape hatch internal/lower documents (variant/option/
// result/list pattern tests, see lower.go's emitPatternTest) something
// concrete to call at the LLVM level. Spec §6 enumerates the
// general-purpose runtime surface but doesn't name a reader for "is this
// Option some or none" or "is this box uniquely owned" -- both are
// needed to realize recipes spec §4.7/§4.8 describe in prose (Reset's
// IsShared check; match arms over Option/Result/List). Naming follows
// the existing `ori_<domain>_<verb>` convention.
const (
	rtRcIsShared      = "ori_rc_is_shared"
	rtOptionIsSome    = "ori_option_is_some"
	rtOptionUnwrap    = "ori_option_unwrap"
	rtResultIsOk      = "ori_result_is_ok"
	rtResultUnwrapOk  = "ori_result_unwrap_ok"
	rtResultUnwrapErr = "ori_result_unwrap_err"
	rtListNth         = "ori_list_nth"
)

// runtimeSignatures maps every runtime symbol this package can call to
// its `declare` line, so a single declare() call can look up the right
// text regardless of which lowering path needed it first.
var runtimeSignatures = map[string]string{
	rtRcAlloc:       "declare ptr @ori_rc_alloc(i64)",
	rtRcInc:         "declare void @ori_rc_inc(ptr, i64)",
	rtRcDec:         "declare void @ori_rc_dec(ptr)",
	rtRcIsShared:    "declare i1 @ori_rc_is_shared(ptr)",
	rtStrEq:         "declare i1 @ori_str_eq(%ori.str, %ori.str)",
	rtStrConcat:     "declare %ori.str @ori_str_concat(%ori.str, %ori.str)",
	rtStrHash:       "declare i64 @ori_str_hash(%ori.str)",
	rtStrCompare:    "declare i8 @ori_str_compare(%ori.str, %ori.str)",
	rtStrFromInt:    "declare %ori.str @ori_str_from_int(i64)",
	rtStrFromFloat:  "declare %ori.str @ori_str_from_float(double)",
	rtStrFromBool:   "declare %ori.str @ori_str_from_bool(i1)",
	rtListNew:       "declare ptr @ori_list_new(ptr, i64)",
	rtListLen:       "declare i64 @ori_list_len(ptr)",
	rtListNth:       "declare ptr @ori_list_nth(ptr, i64)",
	rtListAllocData: "declare ptr @ori_list_alloc_data(i64)",
	rtPanic:         "declare void @ori_panic(%ori.str)",
	rtOptionIsSome:  "declare i1 @ori_option_is_some(ptr)",
	rtOptionUnwrap:  "declare ptr @ori_option_unwrap(ptr)",
	rtResultIsOk:    "declare i1 @ori_result_is_ok(ptr)",
	rtResultUnwrapOk:  "declare ptr @ori_result_unwrap_ok(ptr)",
	rtResultUnwrapErr: "declare ptr @ori_result_unwrap_err(ptr)",
	ehPersonality:     "declare i32 @rust_eh_personality(...)",
}

type moduleDeclarer interface {
	DeclareExtern(symbol, line string)
}

// declare registers symbol's extern line with mod, panicking only if the
// caller asked for a symbol this package doesn't know (a programmer
// error, not a user-facing one).
func declare(mod moduleDeclarer, symbol string) string {
	line, ok := runtimeSignatures[symbol]
	if !ok {
		panic(fmt.Sprintf("llvm: no declare() signature registered for runtime symbol %q", symbol))
	}
	mod.DeclareExtern(symbol, line)
	return symbol
}
