package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "brandreach"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// Third-party packages the inner layers may use. Tracing and retry policy
// live in the application layer; the domain stays dependency free.
var applicationThirdParty = []string{
	"github.com/cenkalti/backoff/v5",
	"go.opentelemetry.io/otel",
}

func main() {
	violations := collectViolations("contexts")
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var violations []violation

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		rel, relErr := filepath.Rel(filepath.Dir(root), path)
		if relErr != nil {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 4 || parts[0] != "contexts" {
			return nil
		}

		servicePrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[1], parts[2])
		violations = append(violations, validateFile(path, filepath.ToSlash(path), parts[3], servicePrefix)...)
		return nil
	})

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File == violations[j].File {
			if violations[i].Line == violations[j].Line {
				return violations[i].Import < violations[j].Import
			}
			return violations[i].Line < violations[j].Line
		}
		return violations[i].File < violations[j].File
	})
	return violations
}

func validateFile(path string, normalizedPath string, layer string, servicePrefix string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: normalizedPath, Line: 1, Rule: "file must parse"}}
	}

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		line := fset.Position(imp.Pos()).Line
		if rule := checkImport(layer, servicePrefix, importPath); rule != "" {
			violations = append(violations, violation{
				File:   normalizedPath,
				Line:   line,
				Import: importPath,
				Rule:   rule,
			})
		}
	}
	return violations
}

// checkImport returns the broken rule, or "" when the import is allowed.
func checkImport(layer string, servicePrefix string, importPath string) string {
	if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, servicePrefix) {
		return "cross-service imports are forbidden"
	}

	var allowed []string
	switch layer {
	case "domain":
		allowed = []string{servicePrefix + "/domain"}
	case "ports":
		allowed = []string{servicePrefix + "/domain", servicePrefix + "/ports", modulePath + "/contracts"}
	case "application":
		allowed = append([]string{
			servicePrefix + "/application",
			servicePrefix + "/domain",
			servicePrefix + "/ports",
			modulePath + "/contracts",
		}, applicationThirdParty...)
	default:
		return ""
	}

	if strings.Contains(importPath, "/adapters/") || strings.HasSuffix(importPath, "/adapters") {
		return layer + " must not import adapters"
	}
	if hasPrefix(importPath, modulePath+"/internal") {
		return layer + " must not import runtime infrastructure"
	}
	if isStdlib(importPath) || isAllowed(importPath, allowed) {
		return ""
	}
	return layer + " import is outside explicit allowlist"
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first := importPath
	if idx := strings.Index(first, "/"); idx != -1 {
		first = first[:idx]
	}
	return !strings.Contains(first, ".")
}
