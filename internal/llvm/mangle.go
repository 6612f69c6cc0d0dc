package llvm

import "strings"

// Mangle implements spec §6's symbol-mangling scheme:
// `_ori_<module>$<function>`, nested modules joined by `$` before the
// function name: `_ori_<parent>$<child>$<function>`.
func Mangle(modulePath []string, function string) string {
	if len(modulePath) == 0 {
		return "_ori_$" + function
	}
	return "_ori_" + strings.Join(modulePath, "$") + "$" + function
}

// Demangle decodes a symbol produced by Mangle back into its module path
// and function name, powering the `ori demangle` CLI subcommand (spec §6).
func Demangle(symbol string) (modulePath []string, function string, ok bool) {
	const prefix = "_ori_"
	if !strings.HasPrefix(symbol, prefix) {
		return nil, "", false
	}
	rest := strings.TrimPrefix(symbol, prefix)
	parts := strings.Split(rest, "$")
	if len(parts) < 2 {
		return nil, "", false
	}
	modulePath = parts[:len(parts)-1]
	if len(modulePath) == 1 && modulePath[0] == "" {
		modulePath = nil
	}
	return modulePath, parts[len(parts)-1], true
}

// symbolName translates an ARC-level function/method name into its
// mangled LLVM symbol. internal/lower (see lower.go's lowerMethodCall)
// names method-call targets "Type::method"; every other ArcFunction.Name
// or IApply.Func is a plain function name. Both map onto the same
// `_ori_<module>$...$<function>` scheme, with "Type::method" spelled as
// an extra path segment ahead of the function name.
func symbolName(name string, modulePath []string) string {
	if idx := strings.Index(name, "::"); idx >= 0 {
		typeName, method := name[:idx], name[idx+2:]
		return Mangle(append(append([]string(nil), modulePath...), typeName), method)
	}
	return Mangle(modulePath, name)
}
