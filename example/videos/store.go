package videos

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/appointy/idgen"
	"github.com/pkg/errors"
	"go.appointy.com/vidgraph/config"
	"go.appointy.com/vidgraph/node"
	"go.uber.org/zap"
	"gocloud.dev/docstore"
	"gocloud.dev/docstore/memdocstore"
	"gocloud.dev/gcerrors"
)

// Store keeps videos and channels in in-memory docstore collections. It is
// safe for concurrent use.
type Store struct {
	videos   *docstore.Collection
	channels *docstore.Collection
	logger   *zap.Logger

	mu  sync.Mutex
	seq int64
	now func() time.Time
}

// NewStore opens empty collections.
func NewStore(logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	videos, err := memdocstore.OpenCollection("id", nil)
	if err != nil {
		return nil, errors.Wrap(err, "opening video collection")
	}
	channels, err := memdocstore.OpenCollection("id", nil)
	if err != nil {
		_ = videos.Close()
		return nil, errors.Wrap(err, "opening channel collection")
	}

	return &Store{
		videos:   videos,
		channels: channels,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Close releases both collections.
func (s *Store) Close() error {
	verr := s.videos.Close()
	cerr := s.channels.Close()
	if verr != nil {
		return verr
	}
	return cerr
}

func (s *Store) nextSeq() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Seed inserts the configured channels and videos, in order.
func (s *Store) Seed(ctx context.Context, seed config.Seed) error {
	for _, c := range seed.Channels {
		ch := &Channel{ID: c.ID, Name: c.Name, Seq: s.nextSeq()}
		if err := s.channels.Create(ctx, ch); err != nil {
			return errors.Wrapf(err, "seeding channel %s", c.ID)
		}
	}

	for _, v := range seed.Videos {
		vid := &Video{
			ID:        v.ID,
			Seq:       s.nextSeq(),
			Title:     v.Title,
			Duration:  v.Duration,
			Released:  v.Released,
			Watched:   v.Watched,
			ChannelID: v.ChannelID,
			CreatedAt: s.now(),
		}
		if err := s.videos.Create(ctx, vid); err != nil {
			return errors.Wrapf(err, "seeding video %s", v.ID)
		}
	}

	s.logger.Debug("store seeded", zap.Int("channels", len(seed.Channels)), zap.Int("videos", len(seed.Videos)))
	return nil
}

// GetVideo returns the video with the given local key. A missing video is
// reported with an error wrapping node.ErrNotFound.
func (s *Store) GetVideo(ctx context.Context, id string) (*Video, error) {
	if id == "" {
		return nil, errors.Wrap(node.ErrNotFound, "video with empty id")
	}

	v := &Video{ID: id}
	if err := s.videos.Get(ctx, v); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, errors.Wrapf(node.ErrNotFound, "video %s", id)
		}
		return nil, errors.Wrapf(err, "getting video %s", id)
	}
	return v, nil
}

// ListVideos returns all videos in creation order.
func (s *Store) ListVideos(ctx context.Context) ([]*Video, error) {
	return s.queryVideos(ctx, s.videos.Query())
}

// VideosByChannel returns the videos of a channel in creation order.
func (s *Store) VideosByChannel(ctx context.Context, channelID string) ([]*Video, error) {
	return s.queryVideos(ctx, s.videos.Query().Where("channelId", "=", channelID))
}

func (s *Store) queryVideos(ctx context.Context, q *docstore.Query) ([]*Video, error) {
	iter := q.Get(ctx)
	defer iter.Stop()

	var out []*Video
	for {
		v := &Video{}
		err := iter.Next(ctx, v)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "listing videos")
		}
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// CountVideos returns the number of stored videos.
func (s *Store) CountVideos(ctx context.Context) (int, error) {
	vs, err := s.ListVideos(ctx)
	if err != nil {
		return 0, err
	}
	return len(vs), nil
}

// CreateVideo stores a new video under a fresh local key.
func (s *Store) CreateVideo(ctx context.Context, in VideoInput) (*Video, error) {
	if in.Title == "" {
		return nil, errors.New("video title must not be empty")
	}
	if in.Duration < 0 {
		return nil, errors.Errorf("video duration %d must not be negative", in.Duration)
	}
	if in.ChannelID != "" {
		if _, err := s.GetChannel(ctx, in.ChannelID); err != nil {
			return nil, err
		}
	}

	v := &Video{
		ID:        idgen.New("vid"),
		Seq:       s.nextSeq(),
		Title:     in.Title,
		Duration:  in.Duration,
		Released:  in.Released,
		ChannelID: in.ChannelID,
		CreatedAt: s.now(),
	}
	if err := s.videos.Create(ctx, v); err != nil {
		return nil, errors.Wrap(err, "creating video")
	}

	s.logger.Debug("video created", zap.String("id", v.ID), zap.String("title", v.Title))
	return v, nil
}

// GetChannel returns the channel with the given local key. A missing channel
// is reported with an error wrapping node.ErrNotFound.
func (s *Store) GetChannel(ctx context.Context, id string) (*Channel, error) {
	if id == "" {
		return nil, errors.Wrap(node.ErrNotFound, "channel with empty id")
	}

	c := &Channel{ID: id}
	if err := s.channels.Get(ctx, c); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, errors.Wrapf(node.ErrNotFound, "channel %s", id)
		}
		return nil, errors.Wrapf(err, "getting channel %s", id)
	}
	return c, nil
}

// ListChannels returns all channels in creation order.
func (s *Store) ListChannels(ctx context.Context) ([]*Channel, error) {
	iter := s.channels.Query().Get(ctx)
	defer iter.Stop()

	var out []*Channel
	for {
		c := &Channel{}
		err := iter.Next(ctx, c)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "listing channels")
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// CreateChannel stores a new channel under a fresh local key.
func (s *Store) CreateChannel(ctx context.Context, name string) (*Channel, error) {
	if name == "" {
		return nil, errors.New("channel name must not be empty")
	}

	c := &Channel{ID: idgen.New("chn"), Seq: s.nextSeq(), Name: name}
	if err := s.channels.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "creating channel")
	}
	return c, nil
}
