package procare

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKidsURL(t *testing.T) {
	assert.Equal(t,
		"https://api-school.kinderlime.com/api/web/parent/kids/",
		KidsURL(DefaultBaseURL))
}

func TestActivitiesURL(t *testing.T) {
	raw := ActivitiesURL(DefaultBaseURL, "kid-42", "2023-01-01", "2023-12-31", 3)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, ActivitiesEndpoint, parsed.Path)

	query := parsed.Query()
	assert.Equal(t, "kid-42", query.Get("kid_id"))
	assert.Equal(t, "2023-01-01", query.Get("filters[daily_activity][date_from]"))
	assert.Equal(t, "2023-12-31", query.Get("filters[daily_activity][date_to]"))
	assert.Equal(t, "3", query.Get("page"))

	// Brackets in the filter keys must be percent-encoded on the wire
	assert.Contains(t, raw, "filters%5Bdaily_activity%5D%5Bdate_from%5D=2023-01-01")
}
