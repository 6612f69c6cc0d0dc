package arcir

import "github.com/oriproj/ori/internal/typepool"

// InstrKind tags an ArcInstr variant (spec §3.5).
type InstrKind int

const (
	ILet InstrKind = iota
	IApply
	IApplyIndirect
	IPartialApply
	IProject
	IConstruct
	IRcInc
	IRcDec
	IIsShared
	ISet
	ISetTag
	IReset
	IReuse
)

// ArcInstr is a single ARC IR instruction. All variants live in one
// struct (spec §9: "tagged variants... no vtables") with a Kind
// discriminant selecting which fields are meaningful — the Go analogue
// of the Rust `enum ArcInstr`.
type ArcInstr struct {
	Kind InstrKind

	Dst   ArcVarId
	Ty    typepool.Idx
	Value ArcValue // Let

	Func    string       // Apply / PartialApply / Invoke(-adjacent, see terminator)
	Closure ArcVarId     // ApplyIndirect
	Args    []ArcVarId   // Apply / ApplyIndirect / PartialApply / Construct / Reuse

	Value1 ArcVarId // Project.value / Set.value / Reset.var
	Field  uint32   // Project.field / Set.field

	Ctor CtorKind // Construct / Reuse

	Var   ArcVarId // RcInc/RcDec/IsShared.var; Set.base; SetTag.base
	Count uint32   // RcInc

	Tag uint64 // SetTag

	Token ArcVarId // Reset.token (dst) / Reuse.token (input)
}

// UsedVars returns the variables this instruction reads (not including
// Dst), used by RC insertion/elimination liveness analysis.
func (i *ArcInstr) UsedVars() []ArcVarId {
	switch i.Kind {
	case ILet:
		switch i.Value.Kind {
		case ValueVar:
			return []ArcVarId{i.Value.Var}
		case ValuePrimOp:
			return append([]ArcVarId(nil), i.Value.PrimArgs...)
		default:
			return nil
		}
	case IApply, IPartialApply:
		return append([]ArcVarId(nil), i.Args...)
	case IApplyIndirect:
		return append([]ArcVarId{i.Closure}, i.Args...)
	case IProject:
		return []ArcVarId{i.Value1}
	case IConstruct:
		return append([]ArcVarId(nil), i.Args...)
	case IRcInc, IRcDec, IIsShared:
		return []ArcVarId{i.Var}
	case ISet:
		return []ArcVarId{i.Var, i.Value1}
	case ISetTag:
		return []ArcVarId{i.Var}
	case IReset:
		return []ArcVarId{i.Value1}
	case IReuse:
		return append([]ArcVarId{i.Token}, i.Args...)
	default:
		return nil
	}
}

// Defines reports whether this instruction defines dst, and the var if so.
func (i *ArcInstr) Defines() (ArcVarId, bool) {
	switch i.Kind {
	case ILet, IApply, IApplyIndirect, IPartialApply, IProject, IConstruct, IIsShared, IReuse:
		return i.Dst, true
	case IReset:
		return i.Token, true
	default:
		return 0, false
	}
}

// ArcTerminator is how control leaves a basic block (spec §3.5).
type ArcTerminator struct {
	Kind TermKind

	ReturnValue ArcVarId

	Target ArcBlockId
	Args   []ArcVarId

	Cond               ArcVarId
	ThenBlock, ElseBlock ArcBlockId

	Scrutinee ArcVarId
	Cases     []SwitchCase
	Default   ArcBlockId

	// Invoke
	InvokeDst    ArcVarId
	InvokeTy     typepool.Idx
	InvokeFunc   string
	InvokeArgs   []ArcVarId
	NormalBlock  ArcBlockId
	UnwindBlock  ArcBlockId
}

type TermKind int

const (
	TReturn TermKind = iota
	TJump
	TBranch
	TSwitch
	TInvoke
	TResume
	TUnreachable
)

// SwitchCase is one (discriminant, target) arm of a Switch terminator.
type SwitchCase struct {
	Value  uint64
	Target ArcBlockId
}

// UsedVars for a terminator (arguments it reads, for liveness).
func (t *ArcTerminator) UsedVars() []ArcVarId {
	switch t.Kind {
	case TReturn:
		return []ArcVarId{t.ReturnValue}
	case TJump:
		return append([]ArcVarId(nil), t.Args...)
	case TBranch:
		return []ArcVarId{t.Cond}
	case TSwitch:
		return []ArcVarId{t.Scrutinee}
	case TInvoke:
		return append([]ArcVarId(nil), t.InvokeArgs...)
	default:
		return nil
	}
}

// Successors returns every block this terminator may transfer control to.
func (t *ArcTerminator) Successors() []ArcBlockId {
	switch t.Kind {
	case TJump:
		return []ArcBlockId{t.Target}
	case TBranch:
		return []ArcBlockId{t.ThenBlock, t.ElseBlock}
	case TSwitch:
		out := make([]ArcBlockId, 0, len(t.Cases)+1)
		for _, c := range t.Cases {
			out = append(out, c.Target)
		}
		return append(out, t.Default)
	case TInvoke:
		return []ArcBlockId{t.NormalBlock, t.UnwindBlock}
	default:
		return nil
	}
}

// BlockParam is a block parameter: a phi-like value received from
// predecessor Jump/Branch/Switch/Invoke arguments (spec §3.5).
type BlockParam struct {
	Var ArcVarId
	Ty  typepool.Idx
}

// ArcBlock is a basic block: parameters, a sequential instruction body,
// and exactly one terminator (spec §3.5).
type ArcBlock struct {
	ID         ArcBlockId
	Params     []BlockParam
	Body       []ArcInstr
	Terminator ArcTerminator
}

// ArcFunction is a complete lowered function (spec §3.5).
type ArcFunction struct {
	Name       string
	Params     []ArcParam
	ReturnType typepool.Idx
	Blocks     []ArcBlock
	Entry      ArcBlockId
	VarTypes   []typepool.Idx // indexed by ArcVarId
}

// VarType looks up the type of a variable.
func (f *ArcFunction) VarType(v ArcVarId) typepool.Idx {
	return f.VarTypes[v]
}

// Block returns the block with the given ID.
func (f *ArcFunction) Block(id ArcBlockId) *ArcBlock {
	return &f.Blocks[id]
}

// Predecessors computes, for every block, the set of blocks whose
// terminator names it as a successor. Used throughout RC elimination
// (spec §4.6 phases 2-3) and borrow inference.
func (f *ArcFunction) Predecessors() map[ArcBlockId][]ArcBlockId {
	preds := make(map[ArcBlockId][]ArcBlockId)
	for i := range f.Blocks {
		b := &f.Blocks[i]
		for _, succ := range b.Terminator.Successors() {
			preds[succ] = append(preds[succ], b.ID)
		}
	}
	return preds
}
