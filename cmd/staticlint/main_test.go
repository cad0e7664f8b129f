package main

import (
	"testing"

	"golang.org/x/tools/go/analysis"
)

func TestFilterAnalyzers(t *testing.T) {
	input := []*analysis.Analyzer{
		{Name: "printf"},
		{Name: "SA1000"},
		{Name: "defaultclient"},
	}

	tests := []struct {
		name     string
		disabled string
		want     []string
	}{
		{name: "nothing disabled", disabled: "", want: []string{"printf", "SA1000", "defaultclient"}},
		{name: "one", disabled: "SA1000", want: []string{"printf", "defaultclient"}},
		{name: "list with spaces", disabled: " printf , defaultclient ,", want: []string{"SA1000"}},
		{name: "unknown name", disabled: "nope", want: []string{"printf", "SA1000", "defaultclient"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterAnalyzers(input, tt.disabled)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d analyzers, want %d", len(got), len(tt.want))
			}
			for i, a := range got {
				if a.Name != tt.want[i] {
					t.Errorf("analyzer %d = %s, want %s", i, a.Name, tt.want[i])
				}
			}
		})
	}
}

func TestAllAnalyzers(t *testing.T) {
	seen := make(map[string]bool)
	for _, a := range allAnalyzers() {
		if a == nil {
			t.Fatal("nil analyzer")
		}
		if seen[a.Name] {
			t.Errorf("duplicate analyzer %s", a.Name)
		}
		seen[a.Name] = true
	}
	for _, name := range []string{"printf", "ST1000", "nilerr", "forcetypeassert", "defaultclient"} {
		if !seen[name] {
			t.Errorf("missing analyzer %s", name)
		}
	}
}
