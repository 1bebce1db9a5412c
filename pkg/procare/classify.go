package procare

import "daycaresync/pkg/errors"

// MediaActivities filters activity records down to their media descriptors,
// preserving order. Pure function: no I/O, same input always yields the same
// output. A photo/video record with a missing descriptor or missing source
// URL is malformed feed data and fails the whole call.
func MediaActivities(records []Activity) ([]Media, error) {
	media := make([]Media, 0, len(records))

	for i, rec := range records {
		if !rec.IsMedia() {
			continue
		}

		if rec.Activiable == nil {
			return nil, errors.New(errors.ErrorTypeParsing,
				"record %d (%s) has no media descriptor", i, rec.ActivityType)
		}
		if rec.Activiable.SourceURL() == "" {
			return nil, errors.New(errors.ErrorTypeParsing,
				"record %d (%s) has no source URL", i, rec.ActivityType)
		}

		media = append(media, *rec.Activiable)
	}

	return media, nil
}
