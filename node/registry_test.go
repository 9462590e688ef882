package node_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.appointy.com/vidgraph/node"
)

type video struct {
	ID    string
	Title string
}

type channel struct {
	ID   string
	Name string
}

type videoStore map[string]*video

func (s videoStore) get(_ context.Context, key string) (*video, error) {
	return s[key], nil
}

func videoKey(v *video) string { return v.ID }

func TestRegistryKindsInOrder(t *testing.T) {
	b := node.NewBuilder()
	node.Register(b, "video", videoStore{}.get, videoKey)
	node.Register(b, "channel", func(context.Context, string) (*channel, error) { return nil, nil }, func(c *channel) string { return c.ID })

	r, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, []string{"video", "channel"}, r.Kinds())
}

func TestRegistryLookupUnknownKind(t *testing.T) {
	r := node.NewBuilder().MustBuild()

	_, err := r.Lookup("ghost")
	require.True(t, errors.Is(err, node.ErrUnknownKind))
}

type mapFetcher struct {
	objs map[string]interface{}
}

func (f *mapFetcher) Fetch(_ context.Context, key string) (interface{}, error) {
	return f.objs[key], nil
}

func TestRegisterSameFetcherTwiceIsNoop(t *testing.T) {
	fetch := &mapFetcher{}
	classify := func(interface{}) (string, bool) { return "", false }

	b := node.NewBuilder().
		Register("video", fetch, classify).
		Register("video", fetch, classify)

	r, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, []string{"video"}, r.Kinds())
}

func TestRegisterOtherPointerFails(t *testing.T) {
	classify := func(interface{}) (string, bool) { return "", false }

	_, err := node.NewBuilder().
		Register("video", &mapFetcher{}, classify).
		Register("video", &mapFetcher{}, classify).
		Build()
	require.True(t, errors.Is(err, node.ErrDuplicateKind), "got %v", err)
}

func TestRegisterStoresOfSameTypeFails(t *testing.T) {
	storeA := videoStore{"a": {ID: "a", Title: "A"}}
	storeB := videoStore{"a": {ID: "a", Title: "B"}}

	b := node.NewBuilder()
	node.Register(b, "video", storeA.get, videoKey)
	node.Register(b, "video", storeB.get, videoKey)

	_, err := b.Build()
	require.True(t, errors.Is(err, node.ErrDuplicateKind), "got %v", err)
}

func TestRegisterFuncTwiceFails(t *testing.T) {
	store := videoStore{}
	b := node.NewBuilder()
	node.Register(b, "video", store.get, videoKey)
	node.Register(b, "video", store.get, videoKey)

	// Funcs cannot be compared, so a second registration is never assumed
	// to be the same one.
	_, err := b.Build()
	require.True(t, errors.Is(err, node.ErrDuplicateKind), "got %v", err)
}

func TestRegisterDifferentFetcherFails(t *testing.T) {
	classify := func(interface{}) (string, bool) { return "", false }

	b := node.NewBuilder().
		Register("video", node.FetchFunc(func(context.Context, string) (interface{}, error) { return 1, nil }), classify).
		Register("video", node.FetchFunc(func(context.Context, string) (interface{}, error) { return 2, nil }), classify)

	_, err := b.Build()
	require.True(t, errors.Is(err, node.ErrDuplicateKind), "got %v", err)
	require.Panics(t, func() { b.MustBuild() })
}

func TestRegisterInvalid(t *testing.T) {
	fetch := node.FetchFunc(func(context.Context, string) (interface{}, error) { return nil, nil })
	classify := func(interface{}) (string, bool) { return "", false }

	_, err := node.NewBuilder().Register("vid:eo", fetch, classify).Build()
	require.True(t, errors.Is(err, node.ErrInvalidKind))

	_, err = node.NewBuilder().Register("video", nil, classify).Build()
	require.True(t, errors.Is(err, node.ErrMissingFunc))

	_, err = node.NewBuilder().Register("video", fetch, nil).Build()
	require.True(t, errors.Is(err, node.ErrMissingFunc))

	b := node.NewBuilder()
	node.Register[*video](b, "video", nil, videoKey)
	_, err = b.Build()
	require.True(t, errors.Is(err, node.ErrMissingFunc))
}

func TestClassifyFirstMatchWins(t *testing.T) {
	fetch := node.FetchFunc(func(context.Context, string) (interface{}, error) { return nil, nil })
	titled := func(obj interface{}) (string, bool) {
		v, ok := obj.(*video)
		if !ok || v.Title == "" {
			return "", false
		}
		return v.ID, true
	}
	anyVideo := func(obj interface{}) (string, bool) {
		v, ok := obj.(*video)
		if !ok {
			return "", false
		}
		return v.ID, true
	}

	r := node.NewBuilder().
		Register("feature", fetch, titled).
		Register("clip", fetch, anyVideo).
		MustBuild()

	kind, key, err := r.Classify(&video{ID: "a", Title: "X"})
	require.NoError(t, err)
	require.Equal(t, "feature", kind)
	require.Equal(t, "a", key)

	kind, _, err = r.Classify(&video{ID: "b"})
	require.NoError(t, err)
	require.Equal(t, "clip", kind)
}

func TestClassifyUnrecognized(t *testing.T) {
	b := node.NewBuilder()
	node.Register(b, "video", videoStore{}.get, videoKey)
	r := b.MustBuild()

	_, _, err := r.Classify(&channel{ID: "c"})
	require.True(t, errors.Is(err, node.ErrUnclassifiable))

	_, _, err = r.Classify(video{ID: "a"})
	require.True(t, errors.Is(err, node.ErrUnclassifiable), "value is not the registered pointer type")

	_, _, err = r.Classify(nil)
	require.True(t, errors.Is(err, node.ErrUnclassifiable))

	var nilVideo *video
	_, _, err = r.Classify(nilVideo)
	require.True(t, errors.Is(err, node.ErrUnclassifiable))
}
