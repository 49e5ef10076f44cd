package freshdesk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
)

const (
	// listPageSize is the page size of plain-array list endpoints.
	listPageSize = 100

	// searchPageSize is the fixed page size of the search endpoint.
	searchPageSize = 30

	// maxSearchPages is the remote search API's hard page ceiling.
	maxSearchPages = 10
)

// fetchAllPages drains a plain-array list endpoint: pages of listPageSize
// are requested sequentially until a short or empty page signals the end of
// the collection.
func fetchAllPages[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var items []T

	for page := 1; ; page++ {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(listPageSize))

		body, err := c.get(ctx, path, q)
		if err != nil {
			return nil, fmt.Errorf("page %d of %s: %w", page, path, err)
		}

		var pageItems []T
		if err := json.Unmarshal(body, &pageItems); err != nil {
			return nil, fmt.Errorf("decode page %d of %s: %w", page, path, err)
		}

		items = append(items, pageItems...)
		if len(pageItems) < listPageSize {
			return items, nil
		}
	}
}

// searchPage is the object shape of search endpoint responses.
type searchPage[T any] struct {
	Results []T `json:"results"`
	Total   int `json:"total"`
}

// searchAllPages drains a search endpoint. Page 1 is fetched first to learn
// the total; the remaining pages are requested concurrently, bounded by the
// shared scheduler, up to maxPages. A failed page contributes an empty
// result rather than aborting the whole fetch: completeness of the common
// case wins over total correctness of one page.
func searchAllPages[T any](ctx context.Context, c *Client, path, query string, maxPages int) ([]T, int, error) {
	if maxPages <= 0 || maxPages > maxSearchPages {
		maxPages = maxSearchPages
	}

	first, total, err := searchOnePage[T](ctx, c, path, query, 1)
	if err != nil {
		return nil, 0, err
	}

	pages := (total + searchPageSize - 1) / searchPageSize
	if pages > maxPages {
		c.logger.Warn("search result truncated at page cap",
			"path", path,
			"total", total,
			"max_pages", maxPages,
		)
		pages = maxPages
	}
	if pages <= 1 {
		return first, total, nil
	}

	results := make([][]T, pages)
	results[0] = first

	var wg sync.WaitGroup
	for page := 2; page <= pages; page++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			items, _, err := searchOnePage[T](ctx, c, path, query, page)
			if err != nil {
				c.metrics.RecordPageFailure()
				c.logger.Warn("search page failed, continuing without it",
					"path", path,
					"page", page,
					"error", err,
				)
				return
			}
			results[page-1] = items
		}(page)
	}
	wg.Wait()

	merged := make([]T, 0, total)
	for _, pageItems := range results {
		merged = append(merged, pageItems...)
	}
	return merged, total, nil
}

func searchOnePage[T any](ctx context.Context, c *Client, path, query string, page int) ([]T, int, error) {
	q := url.Values{}
	q.Set("query", fmt.Sprintf("%q", query))
	q.Set("page", strconv.Itoa(page))

	body, err := c.get(ctx, path, q)
	if err != nil {
		return nil, 0, err
	}

	var decoded searchPage[T]
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, 0, fmt.Errorf("decode search page %d of %s: %w", page, path, err)
	}
	return decoded.Results, decoded.Total, nil
}
