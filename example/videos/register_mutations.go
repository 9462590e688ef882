package videos

import (
	"context"

	"github.com/graphql-go/graphql"
	"go.appointy.com/vidgraph/relay"
)

// RegisterMutation registers createVideo, which takes a VideoInput, and
// addVideo, which follows the clientMutationId convention.
func RegisterMutation(sb *Schema, s *Server) {
	video := sb.Object("Video")

	sb.mutation["createVideo"] = &graphql.Field{
		Type:        video,
		Description: "Create a new video.",
		Args: graphql.FieldConfigArgument{
			"video": &graphql.ArgumentConfig{
				Type: graphql.NewNonNull(sb.inputs["VideoInput"]),
			},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			raw, _ := p.Args["video"].(map[string]interface{})
			return s.createVideo(p.Context, raw)
		},
	}

	sb.mutation["addVideo"] = relay.MutationWithClientMutationID(relay.MutationConfig{
		Name:        "AddVideo",
		Description: "Add a new video.",
		InputFields: videoInputFields(),
		OutputFields: graphql.Fields{
			"video": &graphql.Field{Type: video},
		},
		MutateAndGetPayload: func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
			v, err := s.createVideo(ctx, input)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"video": v}, nil
		},
	})
}

// createVideo stores a video from a coerced input object. A channelId is a
// global id and must resolve to a channel.
func (s *Server) createVideo(ctx context.Context, raw map[string]interface{}) (*Video, error) {
	in := videoInputFrom(raw)
	if id, _ := raw["channelId"].(string); id != "" {
		ch, err := s.channel(ctx, id)
		if err != nil {
			return nil, err
		}
		in.ChannelID = ch.ID
	}
	return s.store.CreateVideo(ctx, in)
}
