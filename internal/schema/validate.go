package schema

import (
	"fmt"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// Validate renders s and loads the SDL with gqlparser, which checks it
// against the GraphQL type system rules. The loaded schema is returned so
// callers can validate operations against it.
func Validate(s *Schema) (*ast.Schema, error) {
	if s.GetQueryType() == nil {
		return nil, fmt.Errorf("schema: query type %q is not defined", s.QueryType)
	}
	if s.MutationType != "" && s.GetMutationType() == nil {
		return nil, fmt.Errorf("schema: mutation type %q is not defined", s.MutationType)
	}
	for _, name := range s.TypeNames() {
		t := s.Types[name]
		if t.Kind == TypeKindObject && len(t.Fields) == 0 {
			return nil, fmt.Errorf("schema: object type %q has no fields", name)
		}
		if t.Kind == TypeKindInputObject && len(t.InputFields) == 0 {
			return nil, fmt.Errorf("schema: input type %q has no fields", name)
		}
	}
	loaded, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: Render(s)})
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return loaded, nil
}
