package testrail

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

// links is the cursor block of a paginated envelope.
type links struct {
	Next *string `json:"next"`
	Prev *string `json:"prev"`
}

// page is one decoded response of a list endpoint.
type page[T any] struct {
	items []T
	next  string
}

// fetchAll follows the _links.next cursor until it is absent and returns the
// items of every page in server order. Pages are requested strictly one after
// another since each URL comes from the previous response.
func fetchAll[T any](ctx context.Context, c *Client, path, itemsKey string) ([]T, error) {
	var all []T
	pageNum := 1

	for {
		body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
		if err != nil {
			return nil, err
		}

		p, err := decodePage[T](body, itemsKey)
		if err != nil {
			return nil, err
		}
		all = append(all, p.items...)

		c.logger.Debug().
			Str("resource", itemsKey).
			Int("page", pageNum).
			Int("count", len(p.items)).
			Int("total", len(all)).
			Msg("Retrieved page from TestRail")

		if p.next == "" {
			break
		}
		// The cursor is relative to the API root and lacks the routing prefix.
		path = pathPrefix + p.next
		pageNum++
	}

	if all == nil {
		all = []T{}
	}
	return all, nil
}

// decodePage reads either an envelope {<itemsKey>: [...], _links: {...}} or a
// bare array, which is treated as the last page.
func decodePage[T any](body responseBody, itemsKey string) (page[T], error) {
	var p page[T]

	trimmed := bytes.TrimSpace(body.data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &p.items); err != nil {
			return p, newMalformedError(body.resp, body.data, err)
		}
		return p, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return p, newMalformedError(body.resp, body.data, err)
	}

	if raw, ok := envelope[itemsKey]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &p.items); err != nil {
			return p, newMalformedError(body.resp, body.data, err)
		}
	}

	if raw, ok := envelope["_links"]; ok && !isNull(raw) {
		var l links
		if err := json.Unmarshal(raw, &l); err != nil {
			return p, newMalformedError(body.resp, body.data, err)
		}
		if l.Next != nil {
			p.next = *l.Next
		}
	}

	return p, nil
}

// decodeList decodes a single non-paginated list response that may be either
// a bare array or an envelope keyed by itemsKey.
func decodeList[T any](body responseBody, itemsKey string) ([]T, error) {
	p, err := decodePage[T](body, itemsKey)
	if err != nil {
		return nil, err
	}
	if p.items == nil {
		return []T{}, nil
	}
	return p.items, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
