package procare

import "context"

// ListChildren enumerates the account's children
func (c *Client) ListChildren(ctx context.Context) ([]Kid, error) {
	var resp KidsResponse
	if err := c.getJSON(ctx, KidsURL(c.baseURL), &resp); err != nil {
		c.logger.WithError(err).Error("failed to list children")
		return nil, err
	}

	c.logger.InfoWithFields("children listed", map[string]interface{}{
		"count": len(resp.Kids),
	})

	return resp.Kids, nil
}

// FetchActivities walks the activity feed for one child across the inclusive
// [dateFrom, dateTo] range, requesting page 1, 2, 3... until the provider
// returns an empty page. Records accumulate into a slice allocated per call
// and come back in request order. Any transport or auth failure aborts the
// walk with a typed error.
func (c *Client) FetchActivities(ctx context.Context, kidID, dateFrom, dateTo string) ([]Activity, error) {
	var records []Activity

	for page := 1; ; page++ {
		var resp ActivitiesResponse
		url := ActivitiesURL(c.baseURL, kidID, dateFrom, dateTo, page)
		if err := c.getJSON(ctx, url, &resp); err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"kid_id": kidID,
				"page":   page,
			}).Error("failed to fetch activity page")
			return nil, err
		}

		if len(resp.DailyActivities) == 0 {
			break
		}

		records = append(records, resp.DailyActivities...)

		c.logger.DebugWithFields("activity page fetched", map[string]interface{}{
			"kid_id": kidID,
			"page":   page,
			"count":  len(resp.DailyActivities),
		})
	}

	c.logger.InfoWithFields("activity feed exhausted", map[string]interface{}{
		"kid_id":  kidID,
		"records": len(records),
	})

	return records, nil
}
