package videos

import "time"

// Kinds under which videos and channels are registered in the node registry.
const (
	KindVideo   = "video"
	KindChannel = "channel"
)

// Video is a video on some place. Field tags name the docstore fields.
type Video struct {
	ID        string    `docstore:"id"`
	Seq       int64     `docstore:"seq"`
	Title     string    `docstore:"title"`
	Duration  int       `docstore:"duration"` // seconds
	Released  bool      `docstore:"released"`
	Watched   bool      `docstore:"watched"`
	ChannelID string    `docstore:"channelId"`
	CreatedAt time.Time `docstore:"createdAt"`
}

// Channel publishes videos.
type Channel struct {
	ID   string `docstore:"id"`
	Seq  int64  `docstore:"seq"`
	Name string `docstore:"name"`
}

// VideoInput holds the fields a client sets when creating a video.
type VideoInput struct {
	Title     string
	Duration  int
	Released  bool
	ChannelID string
}

// videoInputFrom reads a coerced VideoInput/AddVideoInput argument.
func videoInputFrom(m map[string]interface{}) VideoInput {
	in := VideoInput{}
	in.Title, _ = m["title"].(string)
	in.Duration, _ = m["duration"].(int)
	in.Released, _ = m["released"].(bool)
	return in
}
