package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/reader/models"
)

func handleReadURL(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 130 * time.Second}
	endpoint := strings.TrimRight(apiURL, "/") + "/api/v1/crawl"

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		reqBody := models.CrawlRequest{
			URL:            url,
			TargetSelector: request.GetString("target_selector", ""),
			Stealth:        request.GetBool("stealth", false),
			Timeout:        int(request.GetFloat("timeout", 0)),
			Format:         "json",
		}

		respBody, err := apiPost(ctx, client, endpoint, apiKey, reqBody)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var crawlResp models.CrawlResponse
		if err := json.Unmarshal(respBody, &crawlResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !crawlResp.Success || crawlResp.Data == nil {
			errMsg := "read failed"
			if crawlResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", crawlResp.Error.Code, crawlResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		result := crawlResp.Data.String()
		if crawlResp.Tokens > 0 {
			result += fmt.Sprintf("\n---\nTokens: ~%d", crawlResp.Tokens)
		}
		return mcp.NewToolResultText(result), nil
	}
}

// apiPost sends a JSON POST to the reader API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, endpoint, apiKey string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}
