package graph

import (
	"fmt"
	"strings"

	"girder/internal/facts"
)

// Duplicate pairs the two module facts that share an id.
type Duplicate struct {
	First  facts.ModuleFact `json:"first"`
	Second facts.ModuleFact `json:"second"`
}

// DuplicateModuleError reports module facts with colliding ids. Construction
// is aborted; no partial graph is returned. All collisions are listed so the
// caller can fix the input in one pass.
type DuplicateModuleError struct {
	Duplicates []Duplicate `json:"duplicates"`
}

func (e *DuplicateModuleError) Error() string {
	ids := make([]string, 0, len(e.Duplicates))
	for _, d := range e.Duplicates {
		ids = append(ids, d.First.ID)
	}
	return fmt.Sprintf("duplicate module ids: %s", strings.Join(ids, ", "))
}

// DanglingReferenceError reports edges whose endpoints name modules absent
// from the supplied module facts. All offending edges are listed.
type DanglingReferenceError struct {
	Edges []facts.EdgeFact `json:"edges"`
}

func (e *DanglingReferenceError) Error() string {
	refs := make([]string, 0, len(e.Edges))
	for _, edge := range e.Edges {
		refs = append(refs, edge.String())
	}
	return fmt.Sprintf("edges reference unknown modules: %s", strings.Join(refs, "; "))
}
