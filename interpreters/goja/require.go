package goja

import (
	"context"
	"fmt"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// requirePrefix wraps a script so that a top-level "return" parses.
const requirePrefix = "function script() {\n"

// InlineRequires replaces each statement require("name") at the top
// level of a script with the source the provider gives for name.
//
// Inlining happens before compilation, so a script and its libraries
// compile to one Program and no require function exists at runtime.
func InlineRequires(ctx context.Context, src string, provider func(context.Context, string) (string, error)) (string, error) {
	wrapped := requirePrefix + src + "\n}"
	p, err := parser.ParseFile(nil, "", wrapped, 0)
	if err != nil {
		return "", err
	}
	if len(p.Body) != 1 {
		return "", fmt.Errorf("script isn't a function body")
	}
	decl, is := p.Body[0].(*ast.FunctionDeclaration)
	if !is {
		return "", fmt.Errorf("script isn't a function body")
	}

	type required struct {
		from, to int
		name     string
	}
	var requires []required

	for _, s := range decl.Function.Body.List {
		exps, is := s.(*ast.ExpressionStatement)
		if !is {
			continue
		}
		call, is := exps.Expression.(*ast.CallExpression)
		if !is {
			continue
		}
		if id, is := call.Callee.(*ast.Identifier); !is || id.Name != "require" {
			continue
		}
		if len(call.ArgumentList) != 1 {
			return "", fmt.Errorf("require takes one argument, not %d", len(call.ArgumentList))
		}
		lit, is := call.ArgumentList[0].(*ast.StringLiteral)
		if !is {
			return "", fmt.Errorf("require needs a string literal")
		}

		// file.Idx is 1-based.
		from := int(exps.Idx0()) - 1 - len(requirePrefix)
		to := int(exps.Idx1()) - 1 - len(requirePrefix)
		if to < len(src) && src[to] == ';' {
			to++
		}
		requires = append(requires, required{from: from, to: to, name: lit.Value.String()})
	}

	if len(requires) == 0 {
		return src, nil
	}

	var acc strings.Builder
	at := 0
	for _, r := range requires {
		lib, err := provider(ctx, r.name)
		if err != nil {
			return "", err
		}
		acc.WriteString(src[at:r.from])
		acc.WriteString(lib)
		acc.WriteString("\n")
		at = r.to
	}
	acc.WriteString(src[at:])
	return acc.String(), nil
}
