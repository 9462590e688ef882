package videos

import (
	"context"

	"github.com/graphql-go/graphql"
	"github.com/pkg/errors"
	"go.appointy.com/vidgraph/node"
	"go.appointy.com/vidgraph/relay"
)

// RegisterQuery registers the query root fields: node and nodes from the node
// definitions, plus direct lookups by local key, the videos connection and the list fields.
func RegisterQuery(sb *Schema, s *Server) {
	video := sb.Object("Video")
	channel := sb.Object("Channel")

	sb.query["node"] = sb.defs.NodeField
	sb.query["nodes"] = sb.defs.NodesField

	sb.query["video"] = &graphql.Field{
		Type:        video,
		Description: "Fetch a video by its local id.",
		Args: graphql.FieldConfigArgument{
			"id": &graphql.ArgumentConfig{
				Type:        graphql.NewNonNull(graphql.ID),
				Description: "The id of the video.",
			},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			id, _ := p.Args["id"].(string)
			v, err := s.store.GetVideo(p.Context, id)
			if errors.Is(err, node.ErrNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return v, nil
		},
	}

	sb.query["videos"] = relay.ConnectionField(relay.ConnectionConfig{
		NodeType:    video,
		Description: "All videos, oldest first.",
		List: func(ctx context.Context) ([]interface{}, error) {
			vs, err := s.store.ListVideos(ctx)
			if err != nil {
				return nil, err
			}
			items := make([]interface{}, len(vs))
			for i, v := range vs {
				items[i] = v
			}
			return items, nil
		},
		Count: s.store.CountVideos,
	})

	sb.query["videoCount"] = &graphql.Field{
		Type:        graphql.Int,
		Description: "The number of videos.",
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return s.store.CountVideos(p.Context)
		},
	}

	sb.query["channel"] = &graphql.Field{
		Type:        channel,
		Description: "Fetch a channel by its local id.",
		Args: graphql.FieldConfigArgument{
			"id": &graphql.ArgumentConfig{
				Type:        graphql.NewNonNull(graphql.ID),
				Description: "The id of the channel.",
			},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			id, _ := p.Args["id"].(string)
			c, err := s.store.GetChannel(p.Context, id)
			if errors.Is(err, node.ErrNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}

	sb.query["channels"] = &graphql.Field{
		Type:        graphql.NewList(channel),
		Description: "All channels, oldest first.",
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return s.store.ListChannels(p.Context)
		},
	}
}
