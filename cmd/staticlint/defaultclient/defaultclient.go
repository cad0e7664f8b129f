// Package defaultclient defines an analyzer that reports uses of the net/http default client
// outside tests. Outgoing requests must go through a client with an explicit timeout.
package defaultclient

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer is the defaultclient analyzer.
var Analyzer = &analysis.Analyzer{
	Name: "defaultclient",
	Doc:  "reports http.Get, http.Post and http.DefaultClient outside _test.go files",
	Run:  run,
}

var forbidden = map[string]bool{
	"DefaultClient": true,
	"Get":           true,
	"Head":          true,
	"Post":          true,
	"PostForm":      true,
}

func run(pass *analysis.Pass) (any, error) {
	if pass.TypesInfo == nil {
		return nil, nil
	}
	for _, f := range pass.Files {
		if strings.HasSuffix(pass.Fset.Position(f.Pos()).Filename, "_test.go") {
			continue
		}
		ast.Inspect(f, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok || sel.Sel == nil {
				return true
			}
			if name, bad := defaultClientUse(pass, sel); bad {
				pass.Reportf(sel.Pos(), "http.%s has no timeout; use a configured *http.Client", name)
			}
			return true
		})
	}
	return nil, nil
}

func defaultClientUse(pass *analysis.Pass, sel *ast.SelectorExpr) (string, bool) {
	obj := pass.TypesInfo.Uses[sel.Sel]
	if obj == nil || obj.Pkg() == nil || obj.Pkg().Path() != "net/http" {
		return "", false
	}
	switch obj.(type) {
	case *types.Func, *types.Var:
		return obj.Name(), forbidden[obj.Name()]
	default:
		return "", false
	}
}
