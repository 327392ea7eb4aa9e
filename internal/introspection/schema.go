// Package introspection answers __schema and __type queries against a
// composed schema.
//
// Operations are validated by gqlparser, whose prelude declares the
// introspection types with their enums. The executable schema only needs
// object types to walk, so __TypeKind and __DirectiveLocation values are
// carried as plain strings.
package introspection

import "github.com/hanpama/boost/internal/schema"

func str() *schema.TypeRef           { return schema.NamedType("String") }
func nnStr() *schema.TypeRef         { return schema.NonNullType(str()) }
func nnBool() *schema.TypeRef        { return schema.NonNullType(schema.NamedType("Boolean")) }
func named(n string) *schema.TypeRef { return schema.NamedType(n) }
func nn(n string) *schema.TypeRef    { return schema.NonNullType(named(n)) }

// listOf returns [name!] and, when nonNull, [name!]!.
func listOf(name string, nonNull bool) *schema.TypeRef {
	l := schema.ListType(nn(name))
	if nonNull {
		return schema.NonNullType(l)
	}
	return l
}

func includeDeprecated() *schema.InputValue {
	return schema.NewInputValue("includeDeprecated", "", schema.NamedType("Boolean")).SetDefault(false)
}

func types() []*schema.Type {
	return []*schema.Type{
		schema.NewType("__Schema", schema.TypeKindObject, "").
			AddField(schema.NewField("description", "", str())).
			AddField(schema.NewField("types", "", listOf("__Type", true))).
			AddField(schema.NewField("queryType", "", nn("__Type"))).
			AddField(schema.NewField("mutationType", "", named("__Type"))).
			AddField(schema.NewField("subscriptionType", "", named("__Type"))).
			AddField(schema.NewField("directives", "", listOf("__Directive", true))),

		schema.NewType("__Type", schema.TypeKindObject, "").
			AddField(schema.NewField("kind", "", nnStr())).
			AddField(schema.NewField("name", "", str())).
			AddField(schema.NewField("description", "", str())).
			AddField(schema.NewField("specifiedByURL", "", str())).
			AddField(schema.NewField("fields", "", listOf("__Field", false)).AddArgument(includeDeprecated())).
			AddField(schema.NewField("interfaces", "", listOf("__Type", false))).
			AddField(schema.NewField("possibleTypes", "", listOf("__Type", false))).
			AddField(schema.NewField("enumValues", "", listOf("__EnumValue", false)).AddArgument(includeDeprecated())).
			AddField(schema.NewField("inputFields", "", listOf("__InputValue", false)).AddArgument(includeDeprecated())).
			AddField(schema.NewField("ofType", "", named("__Type"))).
			AddField(schema.NewField("isOneOf", "", schema.NamedType("Boolean"))),

		schema.NewType("__Field", schema.TypeKindObject, "").
			AddField(schema.NewField("name", "", nnStr())).
			AddField(schema.NewField("description", "", str())).
			AddField(schema.NewField("args", "", listOf("__InputValue", true)).AddArgument(includeDeprecated())).
			AddField(schema.NewField("type", "", nn("__Type"))).
			AddField(schema.NewField("isDeprecated", "", nnBool())).
			AddField(schema.NewField("deprecationReason", "", str())),

		schema.NewType("__InputValue", schema.TypeKindObject, "").
			AddField(schema.NewField("name", "", nnStr())).
			AddField(schema.NewField("description", "", str())).
			AddField(schema.NewField("type", "", nn("__Type"))).
			AddField(schema.NewField("defaultValue", "", str())).
			AddField(schema.NewField("isDeprecated", "", nnBool())).
			AddField(schema.NewField("deprecationReason", "", str())),

		schema.NewType("__EnumValue", schema.TypeKindObject, "").
			AddField(schema.NewField("name", "", nnStr())).
			AddField(schema.NewField("description", "", str())).
			AddField(schema.NewField("isDeprecated", "", nnBool())).
			AddField(schema.NewField("deprecationReason", "", str())),

		schema.NewType("__Directive", schema.TypeKindObject, "").
			AddField(schema.NewField("name", "", nnStr())).
			AddField(schema.NewField("description", "", str())).
			AddField(schema.NewField("locations", "", schema.NonNullType(schema.ListType(nnStr())))).
			AddField(schema.NewField("args", "", listOf("__InputValue", true)).AddArgument(includeDeprecated())).
			AddField(schema.NewField("isRepeatable", "", nnBool())),
	}
}

// extend returns a copy of s whose query type also has __schema and
// __type. s is left untouched.
func extend(s *schema.Schema) *schema.Schema {
	out := &schema.Schema{
		QueryType:    s.QueryType,
		MutationType: s.MutationType,
		Types:        make(map[string]*schema.Type, len(s.Types)+8),
		Directives:   s.Directives,
		Description:  s.Description,
	}
	for name, t := range s.Types {
		out.Types[name] = t
	}
	for _, t := range types() {
		out.AddType(t)
	}
	if q := s.GetQueryType(); q != nil {
		cp := *q
		cp.Fields = append(append([]*schema.Field(nil), q.Fields...),
			schema.NewField("__schema", "Access the current type schema of this server.", nn("__Schema")),
			schema.NewField("__type", "Request the type information of a single type.", named("__Type")).
				AddArgument(schema.NewInputValue("name", "", nnStr())),
		)
		out.Types[q.Name] = &cp
	}
	return out
}
