package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// statementResponse mirrors the cfscrape /scrape response.
type statementResponse struct {
	HTML     string `json:"html"`
	Markdown string `json:"markdown"`
}

// codeResponse mirrors the cfscrape /code response.
type codeResponse struct {
	Code string `json:"code"`
}

// errorResponse mirrors the cfscrape error body.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func main() {
	apiURL := os.Getenv("CFSCRAPE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:3000"
	}
	apiKey := os.Getenv("CFSCRAPE_API_KEY")

	s := newServer(apiURL, apiKey)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(apiURL, apiKey string) *server.MCPServer {
	s := server.NewMCPServer(
		"cfscrape",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	statementTool := mcp.NewTool("get_problem_statement",
		mcp.WithDescription("Fetch a Codeforces problem statement through a real browser that passes the Cloudflare check. Returns the statement HTML, or Markdown with TeX math when format is 'markdown'."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Codeforces problem URL, e.g. https://codeforces.com/problemset/problem/4/A"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'markdown' (default) or 'html'"),
			mcp.Enum("markdown", "html"),
		),
	)
	s.AddTool(statementTool, handleStatement(apiURL, apiKey))

	codeTool := mcp.NewTool("get_submission_code",
		mcp.WithDescription("Fetch the source code of a Codeforces submission as plain text."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Codeforces submission URL, e.g. https://codeforces.com/contest/4/submission/123456"),
		),
	)
	s.AddTool(codeTool, handleSubmissionCode(apiURL, apiKey))

	return s
}

// extractionClient outlives the server-side clearance poll and element wait.
func extractionClient() *http.Client {
	return &http.Client{Timeout: 120 * time.Second}
}

// apiGet sends a GET request to the cfscrape API and decodes a 200 body
// into out. Non-200 responses are turned into an error carrying the API's
// error code.
func apiGet(ctx context.Context, client *http.Client, apiURL, apiKey, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Code == "" {
			return fmt.Errorf("API returned HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("[%s] %s", apiErr.Code, apiErr.Error)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func handleStatement(apiURL, apiKey string) server.ToolHandlerFunc {
	client := extractionClient()

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		target, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		format := request.GetString("format", "markdown")

		var resp statementResponse
		query := url.Values{"url": {target}, "format": {format}}
		if err := apiGet(ctx, client, apiURL, apiKey, "/scrape", query, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		// Markdown rendering is best-effort on the server side.
		if format == "markdown" && resp.Markdown != "" {
			return mcp.NewToolResultText(resp.Markdown), nil
		}
		return mcp.NewToolResultText(resp.HTML), nil
	}
}

func handleSubmissionCode(apiURL, apiKey string) server.ToolHandlerFunc {
	client := extractionClient()

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		target, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		var resp codeResponse
		if err := apiGet(ctx, client, apiURL, apiKey, "/code", url.Values{"url": {target}}, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(resp.Code), nil
	}
}
