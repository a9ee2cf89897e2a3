package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/reader/cleaner"
	"github.com/use-agent/reader/engine"
	"github.com/use-agent/reader/models"
)

// Scrape loads req.URL in a pooled tab and streams snapshots of it: one after
// the load event, then one after each DOM-settle period until the page stops
// changing or MaxSnapshots is reached.
//
// Nothing happens until the first Next; closing the stream cancels the
// page work and returns the tab to the pool.
func (s *Scraper) Scrape(ctx context.Context, req *models.ScrapeRequest) (models.SnapshotStream, error) {
	return engine.NewProducerStream(ctx, func(ctx context.Context, emit engine.EmitFunc) error {
		return s.scrapePage(ctx, req, emit)
	}), nil
}

// scrapePage contains the full rod-based page lifecycle.
//
//  1. Timeout guard          – hard deadline on the entire operation
//  2. Acquire page           – borrow a tab from the pool (or create one)
//  3. DEFER: release         – about:blank + return to pool, or retire
//  4. Stealth injection      – mask navigator.webdriver etc. (before navigation!)
//  5. Extra headers          – caller headers + Google Referer
//  6. Hijack mount           – block images/CSS/fonts/media/ads (before navigation!)
//  7. Navigate               – bounded by NavigationTimeout
//  8. Snapshot loop          – load event, then DOM-stable rounds
func (s *Scraper) scrapePage(ctx context.Context, req *models.ScrapeRequest, emit engine.EmitFunc) (err error) {
	// ── 1. Timeout guard ──────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(ctx, s.timeoutFor(req))
	defer cancel()

	// ── 2. Acquire page from pool ─────────────────────────────────────
	page, err := s.acquirePage()
	if err != nil {
		return err
	}

	// ── 3. Release, scoring the page on how the load went ─────────────
	emitted := 0
	defer func() {
		s.releasePage(page, err == nil || emitted > 0)
	}()

	// ── 4. Stealth injection ──────────────────────────────────────────
	if req.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	// ── 5. Extra headers ──────────────────────────────────────────────
	if headers := extraHeaders(req); len(headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(page)
	}

	// ── 6. Mount hijack router ────────────────────────────────────────
	if router := s.blocker.mount(page); router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)

	// ── 7. Navigate ───────────────────────────────────────────────────
	if navErr := s.navigate(p, req.URL); navErr != nil {
		return categorizeError(navErr, "navigation to target URL failed")
	}

	// ── 8. Snapshot loop ──────────────────────────────────────────────
	if loadErr := p.WaitLoad(); loadErr != nil {
		slog.Debug("WaitLoad did not complete, capturing current DOM",
			"url", req.URL, "error", loadErr,
		)
	}

	var prevHTML string
	for i := 0; i < s.scraperCfg.MaxSnapshots; i++ {
		if i > 0 {
			if stableErr := p.WaitDOMStable(s.scraperCfg.SettleInterval, 0.1); stableErr != nil {
				slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
					"url", req.URL, "error", stableErr,
				)
			}
		}

		c, capErr := capture(p, req)
		if capErr != nil {
			if emitted > 0 && ctx.Err() == nil {
				// Keep what the consumer already has.
				slog.Warn("snapshot capture failed, ending page stream",
					"url", req.URL, "snapshots", emitted, "error", capErr,
				)
				return nil
			}
			return categorizeError(capErr, "failed to extract page HTML")
		}
		if i > 0 && c.HTML == prevHTML {
			break
		}
		prevHTML = c.HTML

		if err := emit(cleaner.NewSnapshot(c)); err != nil {
			return err
		}
		emitted++
	}

	return nil
}

// timeoutFor returns the request's timeout, defaulted and capped by config.
func (s *Scraper) timeoutFor(req *models.ScrapeRequest) time.Duration {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = s.scraperCfg.DefaultTimeout
	}
	if timeout > s.scraperCfg.MaxTimeout {
		timeout = s.scraperCfg.MaxTimeout
	}
	return timeout
}

// navigate bounds page.Navigate by NavigationTimeout on top of the request
// deadline.
func (s *Scraper) navigate(p *rod.Page, target string) error {
	if s.scraperCfg.NavigationTimeout <= 0 {
		return p.Navigate(target)
	}
	np := p.Timeout(s.scraperCfg.NavigationTimeout)
	defer np.CancelTimeout()
	return np.Navigate(target)
}

// capture reads the rendered page.
func capture(p *rod.Page, req *models.ScrapeRequest) (cleaner.Capture, error) {
	rawHTML, err := p.HTML()
	if err != nil {
		return cleaner.Capture{}, err
	}

	href := evalStringOrEmpty(p, `() => window.location.href`)
	if href == "" {
		href = req.URL
	}

	return cleaner.Capture{
		HTML:     rawHTML,
		Title:    evalStringOrEmpty(p, `() => document.title`),
		Href:     href,
		Text:     evalStringOrEmpty(p, `() => document.body ? document.body.innerText : ""`),
		Engine:   "rod",
		Selector: req.TargetSelector,
	}, nil
}

// extraHeaders merges caller headers over a Google search Referer, which
// makes the visit look like it came from a result page.
func extraHeaders(req *models.ScrapeRequest) map[string]string {
	headers := make(map[string]string, len(req.Headers)+1)
	if _, hasReferer := req.Headers["Referer"]; !hasReferer {
		if u, err := url.Parse(req.URL); err == nil && u.Hostname() != "" {
			headers["Referer"] = "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
		}
	}
	for k, v := range req.Headers {
		headers[k] = v
	}
	return headers
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to appropriate HTTP status codes.
func categorizeError(err error, msg string) error {
	var se *models.ScrapeError
	switch {
	case errors.As(err, &se):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
