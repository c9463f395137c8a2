package spotify

import (
	"context"
	"encoding/json"
)

// Paging is a page of results as returned by every list endpoint.
//
// Items are kept raw so callers decode them into whatever entity the page
// holds. A Paging embedded in a simplified object (for example the
// "tracks" field of a playlist listing) may carry only Href and Total;
// Loaded reports whether the server sent an actual page.
type Paging struct {
	Href     string            `json:"href"`
	Items    []json.RawMessage `json:"items"`
	Limit    int               `json:"limit"`
	Next     string            `json:"next"`
	Offset   int               `json:"offset"`
	Previous string            `json:"previous"`
	Total    int               `json:"total"`

	loaded bool
}

// UnmarshalJSON records whether the "next" key was present.
func (p *Paging) UnmarshalJSON(data []byte) error {
	type plain Paging
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	_, p.loaded = keys["next"]
	return nil
}

// Loaded reports whether this is a full page rather than an href/total stub.
func (p *Paging) Loaded() bool {
	return p != nil && p.loaded
}

// HasNext reports whether another page follows.
func (p *Paging) HasNext() bool {
	return p != nil && p.Next != ""
}

// Next fetches the page after page. It returns nil, nil when there is none.
func (c *Client) Next(ctx context.Context, page *Paging) (*Paging, error) {
	if !page.HasNext() {
		return nil, nil
	}
	var next Paging
	if err := c.Get(ctx, page.Next, nil, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// Previous fetches the page before page. It returns nil, nil when there is none.
func (c *Client) Previous(ctx context.Context, page *Paging) (*Paging, error) {
	if page == nil || page.Previous == "" {
		return nil, nil
	}
	var prev Paging
	if err := c.Get(ctx, page.Previous, nil, &prev); err != nil {
		return nil, err
	}
	return &prev, nil
}

// Page wraps raw items into a loaded Paging. It is meant for tests and
// for callers that assemble pages themselves.
func Page(href, next string, total int, items ...json.RawMessage) *Paging {
	return &Paging{
		Href:   href,
		Items:  items,
		Next:   next,
		Total:  total,
		Limit:  len(items),
		loaded: true,
	}
}
