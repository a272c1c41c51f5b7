// Package enumvalidator reports string literals assigned to enum-typed fields.
//
// An enum is a named string type whose declaring package also declares
// constants of that type, like model.Role. Fields of such types must be set
// from the declared constants so that a typo such as "asistant" cannot reach
// the database.
package enumvalidator

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

var Analyzer = &analysis.Analyzer{
	Name:     "enumvalidator",
	Doc:      "reports string literals assigned to enum-typed struct fields",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

func run(pass *analysis.Pass) (any, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.AssignStmt)(nil),
		(*ast.CompositeLit)(nil),
	}

	insp.Preorder(nodeFilter, func(n ast.Node) {
		switch node := n.(type) {
		case *ast.AssignStmt:
			if len(node.Lhs) != len(node.Rhs) {
				return
			}
			for i, lhs := range node.Lhs {
				sel, ok := lhs.(*ast.SelectorExpr)
				if !ok || !isStringLiteral(node.Rhs[i]) {
					continue
				}
				if named := enumType(pass.TypesInfo.TypeOf(sel)); named != nil {
					pass.Reportf(node.Rhs[i].Pos(), "enum field %s assigned string literal, use a %s constant", sel.Sel.Name, named.Obj().Name())
				}
			}
		case *ast.CompositeLit:
			for _, elt := range node.Elts {
				kv, ok := elt.(*ast.KeyValueExpr)
				if !ok || !isStringLiteral(kv.Value) {
					continue
				}
				key, ok := kv.Key.(*ast.Ident)
				if !ok {
					continue
				}
				field, ok := pass.TypesInfo.ObjectOf(key).(*types.Var)
				if !ok || !field.IsField() {
					continue
				}
				if named := enumType(field.Type()); named != nil {
					pass.Reportf(kv.Value.Pos(), "enum field %s assigned string literal, use a %s constant", key.Name, named.Obj().Name())
				}
			}
		}
	})

	return nil, nil
}

func isStringLiteral(expr ast.Expr) bool {
	lit, ok := ast.Unparen(expr).(*ast.BasicLit)
	return ok && lit.Kind == token.STRING
}

// enumType returns t as a named type when it is a string type with at least one
// constant of that type declared next to it.
func enumType(t types.Type) *types.Named {
	named, ok := t.(*types.Named)
	if !ok {
		return nil
	}
	basic, ok := named.Underlying().(*types.Basic)
	if !ok || basic.Kind() != types.String {
		return nil
	}

	pkg := named.Obj().Pkg()
	if pkg == nil {
		return nil
	}
	scope := pkg.Scope()
	for _, name := range scope.Names() {
		if c, ok := scope.Lookup(name).(*types.Const); ok && types.Identical(c.Type(), named) {
			return named
		}
	}
	return nil
}
