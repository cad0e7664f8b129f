// Command staticlint runs the project's static checks: the go vet passes, staticcheck SA checks,
// ST1000, nilerr, forcetypeassert and defaultclient.
//
// Analyzers listed in STATICLINT_DISABLE (comma separated names) are skipped.
//
//	go run ./cmd/staticlint ./...
package main

import (
	"os"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"

	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/buildtag"
	"golang.org/x/tools/go/analysis/passes/cgocall"
	"golang.org/x/tools/go/analysis/passes/composite"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilfunc"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shift"
	"golang.org/x/tools/go/analysis/passes/stdmethods"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/tests"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"golang.org/x/tools/go/analysis/passes/unsafeptr"
	"golang.org/x/tools/go/analysis/passes/unusedresult"

	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"

	"github.com/gostaticanalysis/forcetypeassert"
	"github.com/gostaticanalysis/nilerr"
	"github.com/vshulcz/Cubeship/cmd/staticlint/defaultclient"
)

func main() {
	multichecker.Main(filterAnalyzers(allAnalyzers(), os.Getenv("STATICLINT_DISABLE"))...)
}

func allAnalyzers() []*analysis.Analyzer {
	var analyzers []*analysis.Analyzer

	analyzers = append(analyzers,
		assign.Analyzer,
		atomic.Analyzer,
		bools.Analyzer,
		buildtag.Analyzer,
		cgocall.Analyzer,
		composite.Analyzer,
		copylock.Analyzer,
		errorsas.Analyzer,
		httpresponse.Analyzer,
		loopclosure.Analyzer,
		lostcancel.Analyzer,
		nilfunc.Analyzer,
		printf.Analyzer,
		shift.Analyzer,
		stdmethods.Analyzer,
		structtag.Analyzer,
		tests.Analyzer,
		unmarshal.Analyzer,
		unreachable.Analyzer,
		unsafeptr.Analyzer,
		unusedresult.Analyzer,
	)

	for _, a := range staticcheck.Analyzers {
		if a == nil || a.Analyzer == nil {
			continue
		}
		if strings.HasPrefix(a.Analyzer.Name, "SA") {
			analyzers = append(analyzers, a.Analyzer)
		}
	}

	var st1000 *analysis.Analyzer
	for _, la := range stylecheck.Analyzers {
		if la != nil && la.Analyzer != nil && la.Analyzer.Name == "ST1000" {
			st1000 = la.Analyzer
			break
		}
	}
	if st1000 != nil {
		analyzers = append(analyzers, st1000)
	}

	return append(analyzers, nilerr.Analyzer, forcetypeassert.Analyzer, defaultclient.Analyzer)
}

// filterAnalyzers drops the analyzers named in disabled.
func filterAnalyzers(analyzers []*analysis.Analyzer, disabled string) []*analysis.Analyzer {
	skip := make(map[string]bool)
	for name := range strings.SplitSeq(disabled, ",") {
		if name = strings.TrimSpace(name); name != "" {
			skip[name] = true
		}
	}
	filtered := make([]*analysis.Analyzer, 0, len(analyzers))
	for _, a := range analyzers {
		if !skip[a.Name] {
			filtered = append(filtered, a)
		}
	}
	return filtered
}
