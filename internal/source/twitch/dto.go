package twitch

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FollowsResponse is the body of GET /users/{user}/follows/channels
type FollowsResponse struct {
	Total   *int     `json:"_total"`
	Follows []Follow `json:"follows"`
}

type Follow struct {
	CreatedAt string      `json:"created_at"`
	Channel   *ChannelDTO `json:"channel"`
}

type ChannelDTO struct {
	ID          FlexID `json:"_id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Logo        string `json:"logo"`
	Status      string `json:"status"`
	Game        string `json:"game"`
}

// StreamResponse is the body of GET /streams/{channel}; Stream is null
// while the channel is offline.
type StreamResponse struct {
	Stream *StreamDTO `json:"stream"`
}

type StreamDTO struct {
	ID      FlexID `json:"_id"`
	Game    string `json:"game"`
	Viewers int    `json:"viewers"`
}

// FlexID accepts identifiers encoded either as JSON numbers or strings
type FlexID string

func (id *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %w", err)
	}
	*id = FlexID(n.String())
	return nil
}
