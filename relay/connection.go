package relay

import (
	"context"

	"github.com/graphql-go/graphql"
	gqlrelay "github.com/graphql-go/relay"
)

// ListFunc returns every item of a connection, in order.
type ListFunc func(ctx context.Context) ([]interface{}, error)

// CountFunc returns the number of items of a connection.
type CountFunc func(ctx context.Context) (int, error)

// ConnectionConfig describes a connection field over NodeType.
type ConnectionConfig struct {
	NodeType    *graphql.Object
	Description string
	List        ListFunc
	// Count backs the totalCount field. The field is left out when nil.
	Count CountFunc
}

// ConnectionField returns a root field resolving to a <Node>Connection that is
// paged with the first/after/last/before arguments. Cursors are opaque offsets
// into the list.
func ConnectionField(cfg ConnectionConfig) *graphql.Field {
	fields := graphql.Fields{}
	if cfg.Count != nil {
		fields["totalCount"] = &graphql.Field{
			Type:        graphql.Int,
			Description: "A count of the total number of objects in this connection.",
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return cfg.Count(p.Context)
			},
		}
	}

	defs := gqlrelay.ConnectionDefinitions(gqlrelay.ConnectionConfig{
		Name:             cfg.NodeType.Name(),
		NodeType:         cfg.NodeType,
		ConnectionFields: fields,
	})

	return &graphql.Field{
		Type:        defs.ConnectionType,
		Description: cfg.Description,
		Args:        gqlrelay.ConnectionArgs,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			items, err := cfg.List(p.Context)
			if err != nil {
				return nil, err
			}
			return gqlrelay.ConnectionFromArray(items, gqlrelay.NewConnectionArguments(p.Args)), nil
		},
	}
}
