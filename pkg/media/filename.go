package media

import (
	"fmt"
	"time"

	"daycaresync/pkg/errors"
)

const (
	// filenameTimeLayout is the filesystem-safe reformat: colons become
	// hyphens, fractional seconds and offset are dropped.
	filenameTimeLayout = "2006-01-02T15-04-05"

	filenamePrefix = "daycare-"
)

// descriptorTimeLayouts are the creation timestamp formats seen in media
// descriptors: ISO-8601 with a numeric offset, with or without a colon in
// the offset. Fractional seconds of any length are accepted by the parser.
var descriptorTimeLayouts = []string{
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05-07:00",
}

func parseDescriptorTime(timestamp string) (time.Time, error) {
	var lastErr error
	for _, layout := range descriptorTimeLayouts {
		t, err := time.Parse(layout, timestamp)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Filename derives the destination filename for a media item from its
// creation timestamp and kind. Deterministic: the same (timestamp, kind)
// pair always yields the same name.
func Filename(timestamp string, isVideo bool) (string, error) {
	t, err := parseDescriptorTime(timestamp)
	if err != nil {
		return "", errors.New(errors.ErrorTypeParsing, "bad media timestamp %q: %v", timestamp, err)
	}

	ext := "jpg"
	if isVideo {
		ext = "mp4"
	}

	return fmt.Sprintf("%s%s.%s", filenamePrefix, t.Format(filenameTimeLayout), ext), nil
}
