package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/reader/cleaner"
	"github.com/use-agent/reader/config"
	"github.com/use-agent/reader/models"
)

// Crawler reads one page into a Document. crawler.Host implements it.
type Crawler interface {
	Crawl(ctx context.Context, req *models.CrawlRequest) (*models.Document, error)
}

// Crawl returns a handler for GET and POST /api/v1/crawl.
//
// Orchestration flow:
//  1. Bind query (GET) or JSON body (POST), apply defaults.
//  2. Clamp the timeout and bind it to the request context.
//  3. Crawler.Crawl → Document.
//  4. Respond as JSON, or as the canonical text when format=text or the
//     client accepts text/plain.
func Crawl(cr Crawler, scraperCfg config.ScraperConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.CrawlRequest
		var bindErr error
		if c.Request.Method == http.MethodGet {
			bindErr = c.ShouldBindQuery(&req)
		} else {
			bindErr = c.ShouldBindJSON(&req)
		}
		if bindErr != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, bindErr.Error(), bindErr),
				wantsText(c, req.Format), totalStart)
			return
		}
		if req.Timeout == 0 {
			req.Timeout = int(scraperCfg.DefaultTimeout / time.Second)
		}
		// Decide before Defaults fills in "json", so Accept still counts.
		asText := wantsText(c, req.Format)
		req.Defaults()

		// ── 2. Timeout ──────────────────────────────────────────────
		timeout := time.Duration(req.Timeout) * time.Second
		if scraperCfg.MaxTimeout > 0 && timeout > scraperCfg.MaxTimeout {
			timeout = scraperCfg.MaxTimeout
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		// ── 3. Crawl ────────────────────────────────────────────────
		doc, err := cr.Crawl(ctx, &req)
		if err != nil {
			respondError(c, err, asText, totalStart)
			return
		}

		// ── 4. Respond ──────────────────────────────────────────────
		if asText {
			c.String(http.StatusOK, doc.String())
			return
		}
		c.JSON(http.StatusOK, models.CrawlResponse{
			Success: true,
			Data:    doc,
			Tokens:  cleaner.EstimateTokens(doc.Content),
			Timing:  models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()},
		})
	}
}

// wantsText reports whether the canonical text serialization was requested.
// An explicit format wins over the Accept header.
func wantsText(c *gin.Context, format string) bool {
	switch format {
	case "text":
		return true
	case "json":
		return false
	}
	return strings.Contains(c.GetHeader("Accept"), "text/plain")
}

// respondError maps an error to its HTTP status and writes it as JSON, or as
// a single "CODE: message" line for text clients.
func respondError(c *gin.Context, err error, asText bool, start time.Time) {
	detail := errorDetail(err)
	status := mapErrorToStatus(err)

	if asText {
		c.String(status, detail.Code+": "+detail.Message+"\n")
		return
	}
	c.JSON(status, models.CrawlResponse{
		Success: false,
		Error:   detail,
		Timing:  models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
	})
}

func errorDetail(err error) *models.ErrorDetail {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se.ToDetail()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &models.ErrorDetail{Code: models.ErrCodeTimeout, Message: "request timed out"}
	}
	return &models.ErrorDetail{Code: models.ErrCodeInternal, Message: err.Error()}
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(err error) int {
	switch errorDetail(err).Code {
	case models.ErrCodeInvalidURL, models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeNoContent, models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
