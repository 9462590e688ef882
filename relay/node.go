// Package relay exposes a node.Resolver through the GraphQL object
// identification convention: a Node interface, node/nodes root fields and a
// global id field on every object type that implements Node.
package relay

import (
	"github.com/graphql-go/graphql"
	"github.com/iancoleman/strcase"
	"go.appointy.com/vidgraph/node"
)

// TypeName returns the GraphQL type name used for kind, e.g. "Video" for
// "video".
func TypeName(kind string) string {
	return strcase.ToCamel(kind)
}

// NodeDefinitions holds the Node interface and the root fields that look up
// objects by global id.
type NodeDefinitions struct {
	NodeInterface *graphql.Interface
	NodeField     *graphql.Field
	NodesField    *graphql.Field

	resolver *node.Resolver
	types    map[string]*graphql.Object
}

// NewNodeDefinitions returns the definitions backed by r. Object types are
// attached with Bind before the schema is built.
func NewNodeDefinitions(r *node.Resolver) *NodeDefinitions {
	d := &NodeDefinitions{
		resolver: r,
		types:    map[string]*graphql.Object{},
	}

	d.NodeInterface = graphql.NewInterface(graphql.InterfaceConfig{
		Name:        "Node",
		Description: "An object with an ID",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.ID),
				Description: "The id of the object.",
			},
		},
		ResolveType: func(p graphql.ResolveTypeParams) *graphql.Object {
			kind, err := d.resolver.Kind(p.Value)
			if err != nil {
				return nil
			}
			return d.types[kind]
		},
	})

	d.NodeField = &graphql.Field{
		Name:        "node",
		Description: "Fetches an object given its ID",
		Type:        d.NodeInterface,
		Args: graphql.FieldConfigArgument{
			"id": &graphql.ArgumentConfig{
				Type:        graphql.NewNonNull(graphql.ID),
				Description: "The ID of an object",
			},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			id, _ := p.Args["id"].(string)
			obj, err := d.resolver.ResolveID(p.Context, id)
			if err != nil {
				return nil, err
			}
			return obj, nil
		},
	}

	d.NodesField = &graphql.Field{
		Name:        "nodes",
		Description: "Fetches objects given their IDs",
		Type:        graphql.NewNonNull(graphql.NewList(d.NodeInterface)),
		Args: graphql.FieldConfigArgument{
			"ids": &graphql.ArgumentConfig{
				Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.ID))),
				Description: "The IDs of objects",
			},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			raw, _ := p.Args["ids"].([]interface{})
			ids := make([]string, 0, len(raw))
			for _, v := range raw {
				if s, ok := v.(string); ok {
					ids = append(ids, s)
				}
			}
			objs, err := d.resolver.ResolveIDs(p.Context, ids)
			if err != nil {
				return nil, err
			}
			return objs, nil
		},
	}

	return d
}

// Bind makes obj the GraphQL type of values of kind. obj must implement
// NodeInterface.
func (d *NodeDefinitions) Bind(kind string, obj *graphql.Object) {
	d.types[kind] = obj
}

// Types returns the bound object types so they can be listed in the schema
// config; types only reachable through Node would otherwise be unknown.
func (d *NodeDefinitions) Types() []graphql.Type {
	out := make([]graphql.Type, 0, len(d.types))
	for _, kind := range d.resolver.Registry().Kinds() {
		if obj, ok := d.types[kind]; ok {
			out = append(out, obj)
		}
	}
	return out
}

// GlobalIDField returns an "id: ID!" field computing the global id of its
// source object.
func (d *NodeDefinitions) GlobalIDField(description string) *graphql.Field {
	if description == "" {
		description = "The ID of an object"
	}
	return &graphql.Field{
		Type:        graphql.NewNonNull(graphql.ID),
		Description: description,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			id, err := d.resolver.IDFor(p.Source)
			if err != nil {
				return nil, err
			}
			return id, nil
		},
	}
}
