package media

import (
	"strings"

	mp4tag "github.com/Sorrow446/go-mp4tag"

	"daycaresync/pkg/errors"
)

// VideoTagger embeds title/keyword metadata into an MP4 container in place
type VideoTagger interface {
	Tag(path, title string, keywords []string) error
}

// mp4Tagger tags via the container's title atom plus a freeform Keywords
// atom, matching what media players surface.
type mp4Tagger struct{}

// NewMP4Tagger returns the default MP4 container tagger
func NewMP4Tagger() VideoTagger {
	return mp4Tagger{}
}

func (mp4Tagger) Tag(path, title string, keywords []string) error {
	f, err := mp4tag.Open(path)
	if err != nil {
		return errors.New(errors.ErrorTypeMediaWrite, "failed to open MP4 container: %v", err)
	}
	defer f.Close()

	tags := &mp4tag.MP4Tags{
		Title: title,
		Custom: map[string]string{
			"Keywords": strings.Join(keywords, ","),
		},
	}

	if err := f.Write(tags, []string{}); err != nil {
		return errors.New(errors.ErrorTypeMediaWrite, "failed to write MP4 tags: %v", err)
	}
	return nil
}
