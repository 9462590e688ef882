package videos

import (
	"github.com/graphql-go/graphql"
	"github.com/pkg/errors"
	"go.appointy.com/vidgraph/relay"
)

// Schema collects types and root fields while the Register functions run.
// Build turns it into a graphql.Schema.
type Schema struct {
	defs     *relay.NodeDefinitions
	objects  map[string]*graphql.Object
	inputs   map[string]*graphql.InputObject
	query    graphql.Fields
	mutation graphql.Fields
}

// NewSchema returns an empty Schema whose Node interface is defs.
func NewSchema(defs *relay.NodeDefinitions) *Schema {
	return &Schema{
		defs:     defs,
		objects:  map[string]*graphql.Object{},
		inputs:   map[string]*graphql.InputObject{},
		query:    graphql.Fields{},
		mutation: graphql.Fields{},
	}
}

// Object returns the object type registered under name, or nil.
func (sb *Schema) Object(name string) *graphql.Object {
	return sb.objects[name]
}

// Build assembles the schema. The root types are QueryType and Mutation.
func (sb *Schema) Build() (graphql.Schema, error) {
	if len(sb.query) == 0 {
		return graphql.Schema{}, errors.New("schema has no query fields")
	}

	cfg := graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name:   "QueryType",
			Fields: sb.query,
		}),
		Types: sb.defs.Types(),
	}
	if len(sb.mutation) > 0 {
		cfg.Mutation = graphql.NewObject(graphql.ObjectConfig{
			Name:   "Mutation",
			Fields: sb.mutation,
		})
	}

	schema, err := graphql.NewSchema(cfg)
	if err != nil {
		return graphql.Schema{}, errors.Wrap(err, "building schema")
	}
	return schema, nil
}

// RegisterSchema runs every registration in dependency order: object types
// before the inputs and root fields that refer to them.
func RegisterSchema(sb *Schema, s *Server) {
	RegisterObjects(sb, s)
	RegisterInputs(sb)

	RegisterQuery(sb, s)
	RegisterMutation(sb, s)
}
