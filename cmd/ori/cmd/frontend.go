package cmd

import (
	"fmt"

	"github.com/oriproj/ori/internal/ast"
)

// unimplementedFrontend is the literal boundary named by pipeline.Frontend:
// the lexer/parser surface grammar is an explicit out-of-scope external
// collaborator (spec §1), so this CLI does not ship one. Every other
// piece of `ori build` -- dependency graph construction, scheduling,
// type checking, ARC optimization, and LLVM codegen -- is fully wired
// and runs unmodified once a real Frontend is plugged in here.
type unimplementedFrontend struct{}

func (unimplementedFrontend) ParseUnit(path string, source []byte) ([]*ast.FuncDecl, error) {
	return nil, fmt.Errorf("%s: no front end is linked into this build (lexer/parser surface grammar is an external collaborator)", path)
}
