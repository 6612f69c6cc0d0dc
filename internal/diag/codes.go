package diag

// Code is an E-numbered error code (spec §7). Families are grouped by
// leading digit: E1xxx parse/syntax, E2xxx name resolution, E3xxx type
// checking, E4xxx ARC lowering, E5xxx LLVM/codegen.
type Code string

const (
	// E1xxx — parse/syntax (external collaborator; named here for
	// completeness of the taxonomy surface only).
	E1000UnexpectedToken Code = "E1000"
	E1001UnclosedDelim   Code = "E1001"

	// E2xxx — name resolution.
	E2000UnboundName   Code = "E2000"
	E2001UnknownModule Code = "E2001"
	E2002AmbiguousName Code = "E2002"

	// E3xxx — type checking.
	E3000TypeMismatch          Code = "E3000"
	E3001UnknownIdent          Code = "E3001"
	E3002TraitBoundNotSatisfied Code = "E3002"
	E3003MissingField          Code = "E3003"
	E3004DuplicateField        Code = "E3004"
	E3005UndefinedField        Code = "E3005"
	E3006NotAStruct            Code = "E3006"
	E3007ClosureSelfCapture    Code = "E3007"
	E3008InfiniteType          Code = "E3008"
	E3009RigidMismatch         Code = "E3009"
	E3010CapabilityUnsatisfied Code = "E3010"
	E3011ArgCountMismatch      Code = "E3011"
	E3012TupleLengthMismatch   Code = "E3012"
	E3013NoSuchMethod          Code = "E3013"
	E3014Coherence             Code = "E3014"

	// E4xxx — ARC lowering.
	E4000UnsupportedExpr    Code = "E4000" // warning
	E4001UnsupportedPattern Code = "E4001" // warning
	E4002InvariantViolation Code = "E4002" // error (compiler bug)

	// E5xxx — LLVM/codegen.
	E5000VerificationFailed    Code = "E5000"
	E5001OptimizationFailed    Code = "E5001"
	E5002EmissionFailed        Code = "E5002"
	E5003UnsupportedTarget     Code = "E5003"
	E5004RuntimeNotFound       Code = "E5004"
	E5005LinkerNotFound        Code = "E5005"
	E5006LinkFailed            Code = "E5006"
	E5007DebugInfoFailed       Code = "E5007"
	E5008WasmError             Code = "E5008"
	E5009ModuleConfigFailed    Code = "E5009"
)

// Severity distinguishes hard errors from accumulated warnings.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Family returns the coarse family a code belongs to, e.g. "typecheck".
func (c Code) Family() string {
	if len(c) < 2 {
		return "unknown"
	}
	switch c[1] {
	case '1':
		return "parse"
	case '2':
		return "resolve"
	case '3':
		return "typecheck"
	case '4':
		return "arc"
	case '5':
		return "codegen"
	default:
		return "unknown"
	}
}

// defaultSeverity mirrors spec §7's propagation policy: ARC lowering
// distinguishes warnings (unsupported-but-skippable constructs) from
// errors (internal invariant violations); all other families are hard
// errors once reported (the front-end still accumulates them rather
// than failing fast, per spec §7's "accumulation over fast-fail").
func (c Code) defaultSeverity() Severity {
	switch c {
	case E4000UnsupportedExpr, E4001UnsupportedPattern:
		return SeverityWarning
	default:
		return SeverityError
	}
}
