package jellyfin

import (
	"context"
	"errors"
	"net/http"

	"finwatch/internal/models"
)

type segmentJSON struct {
	Type       string `json:"Type"`
	StartTicks int64  `json:"StartTicks"`
	EndTicks   int64  `json:"EndTicks"`
}

type segmentsResponse struct {
	Items []segmentJSON `json:"Items"`
}

func segmentKind(t string) (models.SegmentKind, bool) {
	switch t {
	case "Intro":
		return models.SegmentIntro, true
	case "Outro":
		return models.SegmentCredits, true
	case "Recap":
		return models.SegmentRecap, true
	case "Preview":
		return models.SegmentPreview, true
	case "Commercial":
		return models.SegmentCommercial, true
	}
	return "", false
}

// Segments fetches the named time ranges (intro, credits, recap,
// preview, commercial) for an item. Servers without segment support
// return 404; that is absence, not an error.
func (c *Client) Segments(ctx context.Context, itemID string) ([]models.Segment, error) {
	var resp segmentsResponse
	err := c.do(ctx, "GET", "/MediaSegments/"+itemID, nil, nil, &resp)
	if err != nil {
		var ge *Error
		if errors.As(err, &ge) && ge.Kind == KindHTTP && ge.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	segments := make([]models.Segment, 0, len(resp.Items))
	for _, sj := range resp.Items {
		kind, ok := segmentKind(sj.Type)
		if !ok {
			continue
		}
		segments = append(segments, models.Segment{
			Kind:       kind,
			StartTicks: sj.StartTicks,
			EndTicks:   sj.EndTicks,
		})
	}
	return segments, nil
}
