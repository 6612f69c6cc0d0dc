package pipeline

import (
	"fmt"
	"strings"

	"github.com/oriproj/ori/internal/registry"
	"github.com/oriproj/ori/internal/typepool"
)

// resolveAnnotation turns the surface type-annotation text carried on
// ast.ParamDecl.Type (and a FuncDecl's declared return type) into a
// typepool.Idx. ast.go documents that string as "resolved to a
// typepool.Idx by the caller that owns the Pool" -- this is that
// caller. The grammar handled here is deliberately the narrow slice
// actually needed for annotations (names, "<...>" generic application,
// "(...)" tuples, and "(...) -> R" function types), not the full
// surface expression/declaration grammar that the out-of-scope front
// end owns.
func resolveAnnotation(raw string, pool *typepool.Pool, types *registry.TypeRegistry, rigid map[string]typepool.Idx, freshVar func() typepool.Idx) (typepool.Idx, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return freshVar(), nil
	}
	p := &annParser{s: raw, pool: pool, types: types, rigid: rigid}
	idx, err := p.parseType()
	if err != nil {
		return typepool.Invalid, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return typepool.Invalid, fmt.Errorf("unexpected trailing input in type annotation %q at offset %d", raw, p.pos)
	}
	return idx, nil
}

var builtinPrimitives = map[string]typepool.Idx{
	"Int": typepool.INT, "Float": typepool.FLOAT, "Bool": typepool.BOOL,
	"Str": typepool.STR, "String": typepool.STR, "Char": typepool.CHAR,
	"Byte": typepool.BYTE, "Unit": typepool.UNIT, "Never": typepool.NEVER,
	"Ordering": typepool.ORDERING, "Duration": typepool.DURATION, "Size": typepool.SIZE,
}

type annParser struct {
	s     string
	pos   int
	pool  *typepool.Pool
	types *registry.TypeRegistry
	rigid map[string]typepool.Idx
}

func (p *annParser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t') {
		p.pos++
	}
}

func (p *annParser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func isIdentByte(c byte, first bool) bool {
	if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' {
		return true
	}
	return !first && c >= '0' && c <= '9'
}

func (p *annParser) parseIdent() (string, error) {
	start := p.pos
	if p.pos >= len(p.s) || !isIdentByte(p.s[p.pos], true) {
		return "", fmt.Errorf("expected identifier in type annotation %q at offset %d", p.s, p.pos)
	}
	p.pos++
	for p.pos < len(p.s) && isIdentByte(p.s[p.pos], false) {
		p.pos++
	}
	return p.s[start:p.pos], nil
}

func (p *annParser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		return fmt.Errorf("expected %q in type annotation %q at offset %d", c, p.s, p.pos)
	}
	p.pos++
	return nil
}

// parseType parses one type, starting at the current position.
func (p *annParser) parseType() (typepool.Idx, error) {
	p.skipSpace()
	if p.peek() == '(' {
		return p.parseParenOrFunc()
	}
	name, err := p.parseIdent()
	if err != nil {
		return typepool.Invalid, err
	}
	p.skipSpace()
	var args []typepool.Idx
	if p.peek() == '<' {
		p.pos++
		for {
			p.skipSpace()
			a, err := p.parseType()
			if err != nil {
				return typepool.Invalid, err
			}
			args = append(args, a)
			p.skipSpace()
			if p.peek() == ',' {
				p.pos++
				continue
			}
			break
		}
		if err := p.expect('>'); err != nil {
			return typepool.Invalid, err
		}
	}
	return p.resolveNamed(name, args)
}

func (p *annParser) parseParenOrFunc() (typepool.Idx, error) {
	p.pos++ // consume '('
	var elems []typepool.Idx
	p.skipSpace()
	if p.peek() != ')' {
		for {
			p.skipSpace()
			e, err := p.parseType()
			if err != nil {
				return typepool.Invalid, err
			}
			elems = append(elems, e)
			p.skipSpace()
			if p.peek() == ',' {
				p.pos++
				continue
			}
			break
		}
	}
	if err := p.expect(')'); err != nil {
		return typepool.Invalid, err
	}
	p.skipSpace()
	if strings.HasPrefix(p.s[p.pos:], "->") {
		p.pos += 2
		ret, err := p.parseType()
		if err != nil {
			return typepool.Invalid, err
		}
		return p.pool.NewFunction(elems, ret), nil
	}
	switch len(elems) {
	case 0:
		return typepool.UNIT, nil
	case 1:
		return elems[0], nil
	default:
		return p.pool.NewTuple(elems), nil
	}
}

func (p *annParser) resolveNamed(name string, args []typepool.Idx) (typepool.Idx, error) {
	if v, ok := p.rigid[name]; ok {
		if len(args) > 0 {
			return typepool.Invalid, fmt.Errorf("generic parameter %q cannot take type arguments", name)
		}
		return v, nil
	}
	if idx, ok := builtinPrimitives[name]; ok {
		if len(args) > 0 {
			return typepool.Invalid, fmt.Errorf("primitive type %q cannot take type arguments", name)
		}
		return idx, nil
	}
	switch name {
	case "List":
		if len(args) != 1 {
			return typepool.Invalid, fmt.Errorf("List<T> takes exactly one type argument, got %d", len(args))
		}
		return p.pool.NewList(args[0]), nil
	case "Option":
		if len(args) != 1 {
			return typepool.Invalid, fmt.Errorf("Option<T> takes exactly one type argument, got %d", len(args))
		}
		return p.pool.NewOption(args[0]), nil
	case "Result":
		if len(args) != 2 {
			return typepool.Invalid, fmt.Errorf("Result<T, E> takes exactly two type arguments, got %d", len(args))
		}
		return p.pool.NewResult(args[0], args[1]), nil
	case "Map":
		if len(args) != 2 {
			return typepool.Invalid, fmt.Errorf("Map<K, V> takes exactly two type arguments, got %d", len(args))
		}
		return p.pool.NewMap(args[0], args[1]), nil
	case "Set":
		if len(args) != 1 {
			return typepool.Invalid, fmt.Errorf("Set<T> takes exactly one type argument, got %d", len(args))
		}
		return p.pool.NewSet(args[0]), nil
	case "Range":
		if len(args) != 1 {
			return typepool.Invalid, fmt.Errorf("Range<T> takes exactly one type argument, got %d", len(args))
		}
		return p.pool.NewRange(args[0]), nil
	case "Channel":
		if len(args) != 1 {
			return typepool.Invalid, fmt.Errorf("Channel<T> takes exactly one type argument, got %d", len(args))
		}
		return p.pool.NewChannel(args[0]), nil
	}

	entry, ok := p.types.Lookup(name)
	if !ok {
		return typepool.Invalid, fmt.Errorf("unknown type %q in annotation", name)
	}
	if len(entry.TypeParams) != len(args) {
		return typepool.Invalid, fmt.Errorf("%s takes %d type argument(s), got %d", name, len(entry.TypeParams), len(args))
	}
	if len(args) == 0 {
		return p.pool.NewNamed(name), nil
	}
	return p.pool.NewApplied(name, args), nil
}
