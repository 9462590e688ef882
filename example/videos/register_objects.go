package videos

import (
	"github.com/graphql-go/graphql"
	"go.appointy.com/vidgraph/relay"
)

// RegisterObjects registers Video and Channel. Both implement Node and are
// bound to their kinds so node(id) can resolve to them.
func RegisterObjects(sb *Schema, s *Server) {
	var video, channel *graphql.Object

	video = graphql.NewObject(graphql.ObjectConfig{
		Name:        relay.TypeName(KindVideo),
		Description: "A video on some place.",
		Interfaces:  []*graphql.Interface{sb.defs.NodeInterface},
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id": sb.defs.GlobalIDField("The id of the video."),
				"title": &graphql.Field{
					Type:        graphql.String,
					Description: "The title of the video.",
					Resolve:     videoField(func(v *Video) interface{} { return v.Title }),
				},
				"duration": &graphql.Field{
					Type:        graphql.Int,
					Description: "The duration of the video (in seconds).",
					Resolve:     videoField(func(v *Video) interface{} { return v.Duration }),
				},
				"released": &graphql.Field{
					Type:        graphql.Boolean,
					Description: "Whether or not the video has been released.",
					Resolve:     videoField(func(v *Video) interface{} { return v.Released }),
				},
				"watched": &graphql.Field{
					Type:        graphql.Boolean,
					Description: "Whether or not the viewer has watched the video.",
					Resolve:     videoField(func(v *Video) interface{} { return v.Watched }),
				},
				"createdAt": &graphql.Field{
					Type:        graphql.DateTime,
					Description: "When the video was added.",
					Resolve:     videoField(func(v *Video) interface{} { return v.CreatedAt }),
				},
				"channel": &graphql.Field{
					Type:        channel,
					Description: "The channel that published the video.",
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						v, ok := p.Source.(*Video)
						if !ok || v.ChannelID == "" {
							return nil, nil
						}
						return s.store.GetChannel(p.Context, v.ChannelID)
					},
				},
			}
		}),
	})

	channel = graphql.NewObject(graphql.ObjectConfig{
		Name:        relay.TypeName(KindChannel),
		Description: "A channel publishing videos.",
		Interfaces:  []*graphql.Interface{sb.defs.NodeInterface},
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id": sb.defs.GlobalIDField("The id of the channel."),
				"name": &graphql.Field{
					Type:        graphql.String,
					Description: "The name of the channel.",
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						if c, ok := p.Source.(*Channel); ok {
							return c.Name, nil
						}
						return nil, nil
					},
				},
				"videos": &graphql.Field{
					Type:        graphql.NewList(video),
					Description: "The videos published on the channel.",
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						c, ok := p.Source.(*Channel)
						if !ok {
							return nil, nil
						}
						return s.store.VideosByChannel(p.Context, c.ID)
					},
				},
			}
		}),
	})

	sb.objects[video.Name()] = video
	sb.objects[channel.Name()] = channel
	sb.defs.Bind(KindVideo, video)
	sb.defs.Bind(KindChannel, channel)
}

func videoField(get func(v *Video) interface{}) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		v, ok := p.Source.(*Video)
		if !ok {
			return nil, nil
		}
		return get(v), nil
	}
}
