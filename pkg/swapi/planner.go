package swapi

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/andkozlov/starload/pkg/whttp"
)

// The source API pages its listings with a fixed size of 10 items.
const pageSize = 10

// ErrUpstreamUnavailable means the one-shot metadata request against a list
// endpoint failed or its response carried no item count. Unlike per-page
// fetches this is not retried: without a count there is nothing to plan.
var ErrUpstreamUnavailable = errors.New("upstream metadata unavailable")

// PlanPages asks the list endpoint for its total item count and returns the
// ordered page URLs needed to read the whole collection, ?page=1 upward.
// A count of zero yields an empty plan.
func PlanPages(session *retryablehttp.Client, baseURL string) ([]string, error) {
	res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
		Method: "GET",
		URL:    baseURL,
	}, session)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, baseURL, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: status %d", ErrUpstreamUnavailable, baseURL, res.StatusCode)
	}

	count := gjson.GetBytes(res.Body, "count")
	if !count.Exists() {
		return nil, fmt.Errorf("%w: %s: no count field in response", ErrUpstreamUnavailable, baseURL)
	}

	pages := (int(count.Int()) + pageSize - 1) / pageSize
	urls := make([]string, 0, pages)
	for page := 1; page <= pages; page++ {
		urls = append(urls, fmt.Sprintf("%s?page=%d", baseURL, page))
	}
	return urls, nil
}

// PlanPhotos returns one portrait URL per character index, base{1}.jpg through
// base{n}.jpg. Portrait ids are 1-based and contiguous, so the caller passes
// the character count.
func PlanPhotos(baseURL string, n int) []string {
	urls := make([]string, 0, n)
	for id := 1; id <= n; id++ {
		urls = append(urls, fmt.Sprintf("%s%d.jpg", baseURL, id))
	}
	return urls
}
