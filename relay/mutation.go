package relay

import (
	"context"

	"github.com/graphql-go/graphql"
)

const clientMutationID = "clientMutationId"

// MutateFn performs a mutation. input holds the coerced fields of the input
// object; the returned map is resolved against the output fields.
type MutateFn func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error)

// MutationConfig describes a mutation following the clientMutationId
// convention.
type MutationConfig struct {
	Name                string
	Description         string
	InputFields         graphql.InputObjectConfigFieldMap
	OutputFields        graphql.Fields
	MutateAndGetPayload MutateFn
}

// MutationWithClientMutationID returns a mutation field taking a single
// "input: <Name>Input!" argument and returning "<Name>Payload". The
// clientMutationId of the input is echoed back in the payload.
func MutationWithClientMutationID(cfg MutationConfig) *graphql.Field {
	inputFields := graphql.InputObjectConfigFieldMap{}
	for name, f := range cfg.InputFields {
		inputFields[name] = f
	}
	inputFields[clientMutationID] = &graphql.InputObjectFieldConfig{Type: graphql.String}

	outputFields := graphql.Fields{}
	for name, f := range cfg.OutputFields {
		outputFields[name] = f
	}
	outputFields[clientMutationID] = &graphql.Field{Type: graphql.String}

	inputType := graphql.NewInputObject(graphql.InputObjectConfig{
		Name:   cfg.Name + "Input",
		Fields: inputFields,
	})
	payloadType := graphql.NewObject(graphql.ObjectConfig{
		Name:   cfg.Name + "Payload",
		Fields: outputFields,
	})

	return &graphql.Field{
		Name:        cfg.Name,
		Description: cfg.Description,
		Type:        payloadType,
		Args: graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(inputType)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			input, _ := p.Args["input"].(map[string]interface{})
			if input == nil {
				input = map[string]interface{}{}
			}

			payload, err := cfg.MutateAndGetPayload(p.Context, input)
			if err != nil {
				return nil, err
			}
			if payload == nil {
				payload = map[string]interface{}{}
			}
			payload[clientMutationID] = input[clientMutationID]
			return payload, nil
		},
	}
}
