package procare

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	// DefaultBaseURL is the parent-facing API host
	DefaultBaseURL = "https://api-school.kinderlime.com"

	// KidsEndpoint lists the account's children
	KidsEndpoint = "/api/web/parent/kids/"

	// ActivitiesEndpoint is the paginated daily activity feed
	ActivitiesEndpoint = "/api/web/parent/daily_activities/"
)

// KidsURL builds the children list URL
func KidsURL(baseURL string) string {
	return baseURL + KidsEndpoint
}

// ActivitiesURL builds one page of the activity feed filtered to an inclusive
// date range. Pages are 1-based.
func ActivitiesURL(baseURL, kidID, dateFrom, dateTo string, page int) string {
	params := url.Values{}
	params.Set("kid_id", kidID)
	params.Set("filters[daily_activity][date_from]", dateFrom)
	params.Set("filters[daily_activity][date_to]", dateTo)
	params.Set("page", strconv.Itoa(page))

	return fmt.Sprintf("%s%s?%s", baseURL, ActivitiesEndpoint, params.Encode())
}
