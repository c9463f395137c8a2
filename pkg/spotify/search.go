package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// CountryCodes are the markets searched by SearchMarkets when none are given.
var CountryCodes = []string{
	"AD", "AR", "AU", "AT", "BE", "BO", "BR", "BG", "CA", "CL",
	"CO", "CR", "CY", "CZ", "DK", "DO", "EC", "SV", "EE", "FI",
	"FR", "DE", "GR", "GT", "HN", "HK", "HU", "IS", "ID", "IE",
	"IT", "JP", "LV", "LI", "LT", "LU", "MY", "MT", "MX", "MC",
	"NL", "NZ", "NI", "NO", "PA", "PY", "PE", "PH", "PL", "PT",
	"SG", "ES", "SK", "SE", "CH", "TW", "TR", "GB", "US", "UY",
}

// SearchOptions configures a search query.
type SearchOptions struct {
	Types  []string // track, artist, album, playlist, show, episode (default track)
	Limit  int      // 1-50 (default 10)
	Offset int
	Market string
}

// SearchResult maps a plural type name ("tracks", "artists", ...) to its page.
type SearchResult map[string]*Paging

func (o SearchOptions) params(q string) url.Values {
	types := o.Types
	if len(types) == 0 {
		types = []string{KindTrack}
	}
	limit := o.Limit
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("type", strings.Join(types, ","))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(o.Offset))
	params.Set("market", o.Market)
	return params
}

// Search runs a catalog search.
func (c *Client) Search(ctx context.Context, q string, opts SearchOptions) (SearchResult, error) {
	if q == "" {
		return nil, fmt.Errorf("spotify: search query cannot be empty")
	}
	var result SearchResult
	if err := c.Get(ctx, "search", opts.params(q), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// SearchMarkets runs the same search once per market. When total is positive
// it stops once that many results of the first requested type have been
// collected, shrinking the per-market limit as it approaches the cap.
// An empty markets list searches every entry of CountryCodes.
func (c *Client) SearchMarkets(ctx context.Context, q string, opts SearchOptions, markets []string, total int) (map[string]SearchResult, error) {
	if q == "" {
		return nil, fmt.Errorf("spotify: search query cannot be empty")
	}
	if len(markets) == 0 {
		markets = CountryCodes
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	if total > 0 && limit > total {
		c.logDebugf("spotify: limit was auto-adjusted to equal %d as it must not be higher than total", total)
		limit = total
	}

	firstType := KindTrack
	if len(opts.Types) > 0 {
		firstType = opts.Types[0]
	}
	firstType += "s"

	results := make(map[string]SearchResult, len(markets))
	count := 0
	for _, market := range markets {
		marketOpts := opts
		marketOpts.Market = market
		marketOpts.Limit = limit

		result, err := c.Search(ctx, q, marketOpts)
		if err != nil {
			return results, fmt.Errorf("spotify: search in market %s: %w", market, err)
		}
		results[market] = result

		if page := result[firstType]; page != nil {
			count += len(page.Items)
		}
		if total > 0 && count >= total {
			break
		}
		if total > 0 && limit > total-count {
			limit = total - count
		}
	}
	return results, nil
}
