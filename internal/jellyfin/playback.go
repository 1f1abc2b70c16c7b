package jellyfin

import (
	"context"
	"net/url"

	"finwatch/internal/models"
)

type mediaStreamJSON struct {
	Index        int    `json:"Index"`
	Type         string `json:"Type"`
	Codec        string `json:"Codec"`
	Language     string `json:"Language"`
	DisplayTitle string `json:"DisplayTitle"`
}

type mediaSourceJSON struct {
	ID                   string            `json:"Id"`
	Container            string            `json:"Container"`
	TranscodingURL       string            `json:"TranscodingUrl"`
	SupportsDirectStream bool              `json:"SupportsDirectStream"`
	MediaStreams         []mediaStreamJSON `json:"MediaStreams"`
}

type playbackInfoResponse struct {
	MediaSources  []mediaSourceJSON `json:"MediaSources"`
	PlaySessionID string            `json:"PlaySessionId"`
}

// ResolvePlaybackSource negotiates playable renditions for an item. The
// result is never cached: device-profile negotiation may change between
// sessions.
func (c *Client) ResolvePlaybackSource(ctx context.Context, itemID string) ([]models.MediaSource, error) {
	creds, ok := c.creds.Current()
	if !ok {
		return nil, &Error{Kind: KindNotConfigured}
	}

	body := map[string]any{
		"UserId":             creds.UserID,
		"AutoOpenLiveStream": false,
	}
	var resp playbackInfoResponse
	if err := c.doWith(ctx, c.resolve, "POST", "/Items/"+itemID+"/PlaybackInfo", nil, body, &resp); err != nil {
		return nil, err
	}

	sources := make([]models.MediaSource, 0, len(resp.MediaSources))
	for _, sj := range resp.MediaSources {
		src := models.MediaSource{
			ID:            sj.ID,
			Container:     sj.Container,
			PlaySessionID: resp.PlaySessionID,
		}
		if sj.TranscodingURL != "" {
			src.TranscodingURL = creds.ServerURL + sj.TranscodingURL
		}
		if sj.SupportsDirectStream {
			src.DirectStreamURL = c.videoStreamURL(creds, itemID, sj.ID, sj.Container, resp.PlaySessionID, false)
		}
		for _, ms := range sj.MediaStreams {
			src.Streams = append(src.Streams, models.MediaStream{
				Index:        ms.Index,
				Type:         ms.Type,
				Codec:        ms.Codec,
				Language:     ms.Language,
				DisplayTitle: ms.DisplayTitle,
			})
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// StaticStreamURL constructs the direct-file URL for a source, the last
// resort when neither a transcode manifest nor a direct-stream URL was
// negotiated.
func (c *Client) StaticStreamURL(itemID string, src models.MediaSource) string {
	creds, ok := c.creds.Current()
	if !ok {
		return ""
	}
	return c.videoStreamURL(creds, itemID, src.ID, src.Container, src.PlaySessionID, true)
}

func (c *Client) videoStreamURL(creds models.Credentials, itemID, sourceID, container, playSessionID string, static bool) string {
	q := url.Values{
		"MediaSourceId": {sourceID},
		"api_key":       {creds.AccessToken},
	}
	if static {
		q.Set("Static", "true")
	}
	if playSessionID != "" {
		q.Set("PlaySessionId", playSessionID)
	}
	path := "/Videos/" + itemID + "/stream"
	if container != "" {
		path += "." + container
	}
	return creds.ServerURL + path + "?" + q.Encode()
}

type playingBody struct {
	ItemID        string `json:"ItemId"`
	PositionTicks int64  `json:"PositionTicks"`
	IsPaused      bool   `json:"IsPaused,omitempty"`
	PlaySessionID string `json:"PlaySessionId,omitempty"`
	CanSeek       bool   `json:"CanSeek"`
}

// ReportPlaybackStart tells the server playback began at the given position.
func (c *Client) ReportPlaybackStart(ctx context.Context, itemID string, positionTicks int64, playSessionID string) error {
	return c.do(ctx, "POST", "/Sessions/Playing", nil, playingBody{
		ItemID:        itemID,
		PositionTicks: positionTicks,
		PlaySessionID: playSessionID,
		CanSeek:       true,
	}, nil)
}

// ReportPlaybackProgress persists the current head position.
func (c *Client) ReportPlaybackProgress(ctx context.Context, itemID string, positionTicks int64, paused bool, playSessionID string) error {
	return c.do(ctx, "POST", "/Sessions/Playing/Progress", nil, playingBody{
		ItemID:        itemID,
		PositionTicks: positionTicks,
		IsPaused:      paused,
		PlaySessionID: playSessionID,
		CanSeek:       true,
	}, nil)
}

// ReportPlaybackStopped persists the final position for the session.
func (c *Client) ReportPlaybackStopped(ctx context.Context, itemID string, positionTicks int64, playSessionID string) error {
	return c.do(ctx, "POST", "/Sessions/Playing/Stopped", nil, playingBody{
		ItemID:        itemID,
		PositionTicks: positionTicks,
		PlaySessionID: playSessionID,
	}, nil)
}
