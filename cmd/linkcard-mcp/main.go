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
)

// resolveRequest mirrors the Linkcard API request model.
type resolveRequest struct {
	URL string `json:"url"`
}

// card mirrors the Linkcard metadata result.
type card struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	Price       *string `json:"price"`
	Domain      string  `json:"domain"`
}

// resolveResponse mirrors the Linkcard API response model.
type resolveResponse struct {
	Success     bool   `json:"success"`
	Data        *card  `json:"data"`
	Source      string `json:"source"`
	FinalURL    string `json:"final_url"`
	FetchMethod string `json:"fetch_method"`
	Timing      struct {
		TotalMs int64 `json:"total_ms"`
	} `json:"timing"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("LINKCARD_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("LINKCARD_API_KEY")

	s := server.NewMCPServer(
		"linkcard",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	resolveTool := mcp.NewTool("resolve_link_metadata",
		mcp.WithDescription("Resolve a shopping or product URL (including marketplace short links) into a link-preview card: title, description, image URL, price and domain. Sites that block scraping still return a placeholder card."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The product page or short link to describe"),
		),
	)
	s.AddTool(resolveTool, handleResolve(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the Linkcard API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(apiURL, "/")+path, bytes.NewReader(body))
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

func handleResolve(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 90 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/resolve", resolveRequest{URL: url})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp resolveResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !resp.Success || resp.Data == nil {
			errMsg := "resolve failed"
			if resp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		return mcp.NewToolResultText(formatCard(&resp)), nil
	}
}

// formatCard renders a card as labelled lines. Missing fields print as "-".
func formatCard(resp *resolveResponse) string {
	c := resp.Data
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\n", orDash(c.Title))
	fmt.Fprintf(&sb, "Description: %s\n", orDash(c.Description))
	fmt.Fprintf(&sb, "Image: %s\n", orDash(c.Image))
	fmt.Fprintf(&sb, "Price: %s\n", orDash(c.Price))
	fmt.Fprintf(&sb, "Domain: %s\n", c.Domain)
	if resp.FinalURL != "" {
		fmt.Fprintf(&sb, "URL: %s\n", resp.FinalURL)
	}
	fmt.Fprintf(&sb, "\n---\nSource: %s", resp.Source)
	if resp.FetchMethod != "" {
		fmt.Fprintf(&sb, " via %s", resp.FetchMethod)
	}
	fmt.Fprintf(&sb, " (%dms)", resp.Timing.TotalMs)
	return sb.String()
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
