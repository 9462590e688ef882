package videos

import "github.com/graphql-go/graphql"

// videoInputFields are shared by VideoInput and the relay AddVideoInput.
func videoInputFields() graphql.InputObjectConfigFieldMap {
	return graphql.InputObjectConfigFieldMap{
		"title": &graphql.InputObjectFieldConfig{
			Type:        graphql.NewNonNull(graphql.String),
			Description: "The title of the video.",
		},
		"duration": &graphql.InputObjectFieldConfig{
			Type:        graphql.NewNonNull(graphql.Int),
			Description: "The duration of the video (in seconds).",
		},
		"released": &graphql.InputObjectFieldConfig{
			Type:        graphql.NewNonNull(graphql.Boolean),
			Description: "Whether or not the video is released.",
		},
		"channelId": &graphql.InputObjectFieldConfig{
			Type:        graphql.ID,
			Description: "The global id of the channel publishing the video.",
		},
	}
}

// RegisterInputs registers VideoInput.
func RegisterInputs(sb *Schema) {
	in := graphql.NewInputObject(graphql.InputObjectConfig{
		Name:        "VideoInput",
		Description: "The fields of a new video.",
		Fields:      videoInputFields(),
	})
	sb.inputs[in.Name()] = in
}
