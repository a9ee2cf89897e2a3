package models

import "time"

// CrawlRequest is the payload for GET/POST /api/v1/crawl and the input of
// crawler.Host.Crawl.
type CrawlRequest struct {
	// URL is the page to read. Required. Scheme-less input is accepted
	// ("example.com" reads as "http://example.com").
	URL string `json:"url" form:"url" binding:"required"`

	// TargetSelector narrows the captured HTML to the elements matching this
	// CSS selector before main-content extraction.
	TargetSelector string `json:"target_selector,omitempty" form:"target_selector"`

	// Timeout is the deadline in seconds for the whole request.
	// Default: 30. Max: 120.
	Timeout int `json:"timeout,omitempty" form:"timeout" binding:"omitempty,min=1,max=120"`

	// Stealth enables anti-bot-detection evasions in the browser engines.
	Stealth bool `json:"stealth,omitempty" form:"stealth"`

	// Headers are extra HTTP headers sent with the page request.
	Headers map[string]string `json:"headers,omitempty" form:"-"`

	// Format selects the response body: "json" (default) or "text"
	// (the canonical document serialization).
	Format string `json:"format,omitempty" form:"format" binding:"omitempty,oneof=json text"`
}

// Defaults applies default values to unset fields.
func (r *CrawlRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 30
	}
	if r.Format == "" {
		r.Format = "json"
	}
}

// ScrapeRequest is what the pipeline hands to a snapshot source once the URL
// has been normalized.
type ScrapeRequest struct {
	URL            string
	TargetSelector string
	Headers        map[string]string
	Stealth        bool

	// Timeout is informational for engines that size their own budgets;
	// the deadline itself travels on the context.
	Timeout time.Duration
}
