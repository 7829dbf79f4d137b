package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// Weather is the report the backend attaches to the next chat turns.
type Weather struct {
	// Report is the human readable current conditions and forecast.
	Report string `json:"report"`

	// Data holds the raw provider payloads.
	Data struct {
		Current  json.RawMessage `json:"current"`
		Forecast json.RawMessage `json:"forecast"`
	} `json:"data"`
}

// ShareLocation sends the user's coordinates. The backend fetches the local
// weather and uses it as context for following replies.
func (c *Client) ShareLocation(ctx context.Context, lat, lon float64) (*Weather, error) {
	if lat == 0 || lon == 0 {
		return nil, fmt.Errorf("missing coordinates")
	}

	in := struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}{Lat: lat, Lon: lon}

	out := &Weather{}
	if err := c.postJSON(ctx, "/chat/api/weather/", in, out); err != nil {
		return nil, err
	}
	return out, nil
}
