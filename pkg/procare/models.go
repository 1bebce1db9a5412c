package procare

// Activity type tags used by the daily activity feed. Anything outside the
// media pair (meals, naps, notes...) is carried through untouched and ignored
// by the classifier.
const (
	ActivityTypePhoto = "photo_activity"
	ActivityTypeVideo = "video_activity"
)

// KidsResponse is the children list endpoint response
type KidsResponse struct {
	Kids []Kid `json:"kids"`
}

// Kid identifies one child on the account
type Kid struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ActivitiesResponse is one page of the activity feed
type ActivitiesResponse struct {
	DailyActivities []Activity `json:"daily_activities"`
}

// Activity is one entry in a child's activity feed. Activiable is only
// populated for photo/video activities.
type Activity struct {
	ID           string `json:"id,omitempty"`
	ActivityType string `json:"activity_type"`
	ActivityTime string `json:"activity_time,omitempty"`
	Activiable   *Media `json:"activiable,omitempty"`
}

// IsMedia reports whether the activity carries downloadable media
func (a *Activity) IsMedia() bool {
	return a.ActivityType == ActivityTypePhoto || a.ActivityType == ActivityTypeVideo
}

// Media describes a downloadable photo or video. Exactly one of MainURL and
// VideoFileURL is meaningful, selected by IsVideo.
type Media struct {
	Caption      string `json:"caption"`
	Date         string `json:"date"` // ISO-8601 with offset
	IsVideo      bool   `json:"is_video"`
	MainURL      string `json:"main_url,omitempty"`
	VideoFileURL string `json:"video_file_url,omitempty"`
}

// SourceURL returns the remote URL for the media kind
func (m *Media) SourceURL() string {
	if m.IsVideo {
		return m.VideoFileURL
	}
	return m.MainURL
}
