package whttp

import (
	"bytes"
	"io"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/html"
)

type WHTTPHeader struct {
	Name  string
	Value string
}

type WHTTPReq struct {
	URL     string
	Method  string
	Headers []WHTTPHeader
}

type WHTTPRes struct {
	StatusCode int
	Body       []byte
	// HTMLTitle is set when the body parses as an HTML document with a
	// <title> element. Upstream services answer some requests with an
	// HTML error page and a 200 status, so the title is the only useful
	// diagnostic for those.
	HTMLTitle string
}

var defaultClient = newQuietClient()

func newQuietClient() *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 2
	c.Logger = nil
	return c
}

// GetDefaultClient returns the shared retrying HTTP client. Callers that need
// a proxy or custom transport can mutate its HTTPClient before first use.
func GetDefaultClient() *retryablehttp.Client {
	return defaultClient
}

func SendHTTPRequest(wReq *WHTTPReq, client *retryablehttp.Client) (wRes *WHTTPRes, err error) {
	if client == nil {
		client = defaultClient
	}

	req, err := retryablehttp.NewRequest(wReq.Method, wReq.URL, nil)
	if err != nil {
		return nil, err
	}

	// Set common headers
	req.Header.Set("User-Agent", "starload (+https://github.com/andkozlov/starload)")
	req.Header.Set("Accept-Language", "en")

	// Set custom headers
	for _, h := range wReq.Headers {
		req.Header.Add(h.Name, h.Value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	wRes = &WHTTPRes{}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	wRes.Body = bodyBytes
	wRes.StatusCode = resp.StatusCode

	if looksLikeHTML(bodyBytes) {
		if title, ok := getHTMLTitle(bodyBytes); ok {
			wRes.HTMLTitle = strings.ToValidUTF8(strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(title, "\n", ""), "\r", "")), "")
		}
	}

	return wRes, nil
}

func looksLikeHTML(body []byte) bool {
	head := bytes.TrimSpace(body)
	if len(head) == 0 || head[0] != '<' {
		return false
	}
	return true
}

func isTitleElement(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Data == "title"
}

func traverse(n *html.Node) (string, bool) {
	if isTitleElement(n) {
		if n.FirstChild != nil {
			return n.FirstChild.Data, true
		}
		return "", true
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		result, ok := traverse(c)
		if ok {
			return result, ok
		}
	}

	return "", false
}

func getHTMLTitle(body []byte) (string, bool) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", false
	}

	return traverse(doc)
}
