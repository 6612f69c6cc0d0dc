package arcir

import "github.com/oriproj/ori/internal/typepool"

// Builder assembles an ArcFunction incrementally — used by the AST->ARC
// lowering pass (spec §4.3) and by tests that construct fixture IR.
type Builder struct {
	fn      *ArcFunction
	curBody []ArcInstr
	cur     ArcBlockId
}

// NewBuilder starts a builder for a function named name.
func NewBuilder(name string, params []ArcParam, ret typepool.Idx) *Builder {
	b := &Builder{fn: &ArcFunction{Name: name, Params: params, ReturnType: ret}}
	for _, p := range params {
		b.ensureVarType(p.Var, p.Ty)
	}
	b.cur = b.NewBlock(nil)
	b.fn.Entry = b.cur
	return b
}

func (b *Builder) ensureVarType(v ArcVarId, ty typepool.Idx) {
	for len(b.fn.VarTypes) <= int(v) {
		b.fn.VarTypes = append(b.fn.VarTypes, typepool.Invalid)
	}
	b.fn.VarTypes[v] = ty
}

// NewBlock allocates a fresh block with the given parameters and returns
// its ID. The builder keeps emitting into the current block; call
// SetCurrent to switch to the new one.
func (b *Builder) NewBlock(params []BlockParam) ArcBlockId {
	id := ArcBlockId(len(b.fn.Blocks))
	b.fn.Blocks = append(b.fn.Blocks, ArcBlock{ID: id, Params: params})
	for _, p := range params {
		b.ensureVarType(p.Var, p.Ty)
	}
	return id
}

// SetCurrent switches the block the builder appends instructions into.
func (b *Builder) SetCurrent(id ArcBlockId) { b.cur = id }

// Current returns the block currently being emitted into.
func (b *Builder) Current() ArcBlockId { return b.cur }

// Emit appends instr to the current block and records its destination's
// type in VarTypes.
func (b *Builder) Emit(instr ArcInstr) {
	if dst, ok := instr.Defines(); ok {
		b.ensureVarType(dst, instr.Ty)
	}
	b.fn.Blocks[b.cur].Body = append(b.fn.Blocks[b.cur].Body, instr)
}

// Terminate sets the current block's terminator.
func (b *Builder) Terminate(term ArcTerminator) {
	b.fn.Blocks[b.cur].Terminator = term
}

// Finish returns the assembled function.
func (b *Builder) Finish() *ArcFunction { return b.fn }
