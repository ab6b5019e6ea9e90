package tool

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// WebpageReader is a tool that fetches a web page and returns its readable
// text content. The fetched HTML is sanitized before extraction, and script,
// style and nav elements are dropped.
type WebpageReader struct {
	Client    *http.Client
	Selector  string
	MaxLength int

	policy *bluemonday.Policy
}

type WebpageOption func(*WebpageReader)

// WithWebpageClient sets the HTTP client used to fetch pages.
func WithWebpageClient(client *http.Client) WebpageOption {
	return func(w *WebpageReader) {
		w.Client = client
	}
}

// WithWebpageSelector sets the CSS selector to extract text from (default "body").
func WithWebpageSelector(selector string) WebpageOption {
	return func(w *WebpageReader) {
		w.Selector = selector
	}
}

// WithWebpageMaxLength caps the extracted text length in bytes.
func WithWebpageMaxLength(maxLength int) WebpageOption {
	return func(w *WebpageReader) {
		if maxLength > 0 {
			w.MaxLength = maxLength
		}
	}
}

// NewWebpageReader creates a new WebpageReader tool.
func NewWebpageReader(opts ...WebpageOption) *WebpageReader {
	w := &WebpageReader{
		Client:    http.DefaultClient,
		Selector:  "body",
		MaxLength: 8000,
		policy:    bluemonday.UGCPolicy(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Name returns the name of the tool.
func (w *WebpageReader) Name() string {
	return "Webpage_Reader"
}

// Description returns the description of the tool.
func (w *WebpageReader) Description() string {
	return "Fetches a web page and returns its readable text content. " +
		"Useful for reading articles and documentation. " +
		"Input should be a URL."
}

// Call fetches the page and extracts its text.
func (w *WebpageReader) Call(ctx context.Context, input string) (string, error) {
	pageURL := strings.TrimSpace(input)
	if pageURL == "" {
		return "", fmt.Errorf("empty URL")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := w.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, nav, header, footer, noscript").Remove()

	raw := doc.Find(w.Selector).Text()
	text := collapseWhitespace(w.policy.Sanitize(raw))
	if text == "" {
		return "No readable content found", nil
	}

	if len(text) > w.MaxLength {
		text = text[:w.MaxLength] + "..."
	}

	return text, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
