package videos

import (
	"context"

	"github.com/pkg/errors"
	"go.appointy.com/vidgraph/node"
)

// RegisterKinds registers the video and channel kinds on b, fetching from
// store and classifying by Go type.
func RegisterKinds(b *node.Builder, store *Store) *node.Builder {
	node.Register(b, KindVideo, store.GetVideo, func(v *Video) string { return v.ID })
	node.Register(b, KindChannel, store.GetChannel, func(c *Channel) string { return c.ID })
	return b
}

// channel resolves a global id that must refer to a channel.
func (s *Server) channel(ctx context.Context, id string) (*Channel, error) {
	obj, err := s.resolver.ResolveID(ctx, id)
	if err != nil {
		return nil, err
	}
	ch, ok := obj.(*Channel)
	if !ok {
		return nil, errors.Errorf("%s is not the id of a channel", id)
	}
	return ch, nil
}
