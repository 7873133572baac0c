package swapi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/schollz/progressbar/v3"
	"github.com/tidwall/gjson"

	"github.com/andkozlov/starload/pkg/whttp"
)

const (
	defaultConcurrency = 10
	defaultMaxAttempts = 10

	retryBaseWait = 500 * time.Millisecond
	retryMaxWait  = 10 * time.Second
)

// ErrExhaustedRetries means a single URL kept failing until its attempt
// budget ran out. The whole batch fails: the pipeline never works with a
// partially fetched collection.
var ErrExhaustedRetries = errors.New("exhausted retries")

// NewSession builds the shared retrying HTTP client every fetch in a run goes
// through. Transport-level retries happen inside the client; the Fetcher adds
// its own bounded loop on top for payload-level failures.
func NewSession() *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 2
	c.Logger = nil
	return c
}

// Fetcher downloads many independent URLs concurrently over one shared
// session and returns the payloads in input order.
type Fetcher struct {
	Session     *retryablehttp.Client
	Concurrency int  // worker count, defaults to 10 if <= 0
	MaxAttempts int  // per-URL attempt budget, defaults to 10 if <= 0
	Progress    bool // show a progress bar while the batch runs
	Log         Logger
}

// FetchJSON downloads every URL and requires each payload to be valid JSON.
// Invalid payloads count as failed attempts and are retried.
func (f *Fetcher) FetchJSON(urls []string, desc string) ([][]byte, error) {
	return f.fetchAll(urls, desc, true)
}

// FetchRaw downloads every URL and returns the raw bytes, whatever they are.
func (f *Fetcher) FetchRaw(urls []string, desc string) ([][]byte, error) {
	return f.fetchAll(urls, desc, false)
}

func (f *Fetcher) fetchAll(urls []string, desc string, expectJSON bool) ([][]byte, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	concurrency := f.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if concurrency > len(urls) {
		concurrency = len(urls)
	}

	var bar *progressbar.ProgressBar
	if f.Progress {
		bar = progressbar.NewOptions(len(urls),
			progressbar.OptionSetDescription(desc),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionShowCount(),
		)
	}

	// Results are written by index so output order matches input order no
	// matter which worker finishes first.
	results := make([][]byte, len(urls))
	errs := make([]error, len(urls))

	jobs := make(chan int, concurrency)
	processGroup := new(sync.WaitGroup)
	processGroup.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go func() {
			defer processGroup.Done()
			for idx := range jobs {
				results[idx], errs[idx] = f.fetchOne(urls[idx], expectJSON)
				if bar != nil {
					_ = bar.Add(1)
				}
			}
		}()
	}

	for idx := range urls {
		jobs <- idx
	}
	close(jobs)
	processGroup.Wait()

	if bar != nil {
		_ = bar.Finish()
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// fetchOne keeps re-issuing one request until it succeeds or the attempt
// budget runs out, backing off exponentially between attempts.
func (f *Fetcher) fetchOne(url string, expectJSON bool) ([]byte, error) {
	maxAttempts := f.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	wait := retryBaseWait
	for attempt := 1; ; attempt++ {
		body, err := f.attempt(url, expectJSON)
		if err == nil {
			return body, nil
		}
		if attempt >= maxAttempts {
			return nil, fmt.Errorf("%w: %s after %d attempts: %v", ErrExhaustedRetries, url, attempt, err)
		}

		if f.Log != nil {
			f.Log.Warnf("Data acquisition error for %s, repeated attempt follows: %v", url, err)
		}
		time.Sleep(wait)
		wait *= 2
		if wait > retryMaxWait {
			wait = retryMaxWait
		}
	}
}

func (f *Fetcher) attempt(url string, expectJSON bool) ([]byte, error) {
	res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
		Method: "GET",
		URL:    url,
	}, f.Session)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("status %d", res.StatusCode)
	}
	if expectJSON && !gjson.ValidBytes(res.Body) {
		return nil, errors.New("response is not valid JSON")
	}
	return res.Body, nil
}
