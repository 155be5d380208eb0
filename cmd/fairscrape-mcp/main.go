// Command fairscrape-mcp exposes the fairscrape HTTP API as MCP tools over
// stdio. It needs a running "fairscrape serve".
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/fairscrape/models"
)

func main() {
	apiURL := os.Getenv("FAIRSCRAPE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("FAIRSCRAPE_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "FAIRSCRAPE_API_KEY is required")
		os.Exit(1)
	}

	s := newServer(strings.TrimRight(apiURL, "/"), apiKey)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(apiURL, apiKey string) *server.MCPServer {
	s := server.NewMCPServer(
		"fairscrape",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	extractTool := mcp.NewTool("extract_exhibitor",
		mcp.WithDescription("Render one Leipzig Book Fair exhibitor profile page in a headless browser and return its name, country, contact person, email, phone, website, address and hall/stand."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The exhibitor profile URL"),
		),
		mcp.WithNumber("max_age",
			mcp.Description("Accept a cached record younger than this many milliseconds (default: 0, always render)"),
		),
	)
	s.AddTool(extractTool, handleExtractExhibitor(apiURL, apiKey))

	collectTool := mcp.NewTool("collect_exhibitors",
		mcp.WithDescription("Render the exhibitor directory, scroll until every entry is loaded and return the exhibitor profile URLs in page order."),
		mcp.WithString("listing_url",
			mcp.Description("Directory URL (default: the configured Leipzig Book Fair 2026 directory)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Return at most this many URLs (default: all)"),
		),
	)
	s.AddTool(collectTool, handleCollectExhibitors(apiURL, apiKey))

	return s
}

// apiPost sends a POST request to the fairscrape API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func handleExtractExhibitor(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		maxAge := request.GetInt("max_age", 0)
		if maxAge < 0 {
			return mcp.NewToolResultError("max_age must not be negative"), nil
		}

		payload := models.ExtractRequest{URL: url, MaxAge: maxAge}
		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/extract", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("extract request failed: %v", err)), nil
		}

		var resp models.ExtractResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse extract response: %v", err)), nil
		}
		if !resp.Success || resp.Data == nil {
			return mcp.NewToolResultError(apiError("extract failed", resp.Error)), nil
		}

		text := formatRecord(resp.Data)
		if resp.Cached {
			text += "(served from cache)\n"
		}
		return mcp.NewToolResultText(text), nil
	}
}

func handleCollectExhibitors(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 5 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload := models.CollectRequest{
			ListingURL: request.GetString("listing_url", ""),
			Limit:      request.GetInt("limit", 0),
		}
		if payload.Limit < 0 {
			return mcp.NewToolResultError("limit must not be negative"), nil
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/collect", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("collect request failed: %v", err)), nil
		}

		var resp models.CollectResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse collect response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(apiError("collect failed", resp.Error)), nil
		}

		return mcp.NewToolResultText(formatAddresses(&resp)), nil
	}
}

func apiError(fallback string, detail *models.ErrorDetail) string {
	if detail == nil {
		return fallback
	}
	return fmt.Sprintf("[%s] %s", detail.Code, detail.Message)
}

// formatRecord renders a record as one "Label: value" line per column.
func formatRecord(rec *models.ExhibitorRecord) string {
	var sb strings.Builder
	header := models.Header()
	for i, v := range rec.Row() {
		if v == "" {
			v = "-"
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", header[i], v))
	}
	return sb.String()
}

func formatAddresses(resp *models.CollectResponse) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d exhibitor pages", resp.Total))
	if len(resp.URLs) < resp.Total {
		sb.WriteString(fmt.Sprintf(", showing %d", len(resp.URLs)))
	}
	sb.WriteString(":\n\n")
	for _, u := range resp.URLs {
		sb.WriteString(u + "\n")
	}
	return sb.String()
}
