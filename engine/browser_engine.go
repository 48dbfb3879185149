package engine

import (
	"context"
	"fmt"
)

// RenderFunc renders a page in a real browser. It is supplied by the
// scraper package so engine/ does not import it.
type RenderFunc func(ctx context.Context, url string) (*FetchResult, error)

// BrowserEngine adapts a browser renderer to the Engine interface so the
// cascade can use it as its last resort.
type BrowserEngine struct {
	name   string
	render RenderFunc
}

// NewBrowserEngine creates a BrowserEngine named after the driver behind
// render ("rod" or "chromedp").
func NewBrowserEngine(name string, render RenderFunc) *BrowserEngine {
	return &BrowserEngine{name: name, render: render}
}

func (e *BrowserEngine) Name() string { return e.name }

func (e *BrowserEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.render == nil {
		return nil, fmt.Errorf("%s: renderer not configured", e.name)
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	result, err := e.render(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}

	result.EngineName = e.name
	return result, nil
}
