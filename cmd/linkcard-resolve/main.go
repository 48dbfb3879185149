// Command linkcard-resolve prints the link-preview card for each URL given
// on the command line, one JSON object per line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/linkcard/app"
	"github.com/use-agent/linkcard/config"
	"github.com/use-agent/linkcard/models"
)

// exitInvalidURL is returned when at least one argument is not a usable URL.
const exitInvalidURL = 2

// errInvalidURL marks a run where some arguments were rejected.
var errInvalidURL = errors.New("one or more URLs were invalid")

type options struct {
	noBrowser bool
	driver    string
	timeout   time.Duration
	pretty    bool
	debug     bool
}

func main() {
	cmd := newRootCmd(os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, errInvalidURL) {
			os.Exit(exitInvalidURL)
		}
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "linkcard-resolve <url> [url...]",
		Short: "Resolve product URLs into link-preview cards",
		Long: `linkcard-resolve fetches each URL, extracts title, description,
image and price, and prints one JSON card per line.

Sites that refuse every fetch still produce a placeholder card.

Examples:
  linkcard-resolve "https://link.gmarket.co.kr/abc"
  linkcard-resolve --no-browser --pretty "https://www.11st.co.kr/products/123"
  linkcard-resolve --driver chromedp --timeout 90s url1 url2`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args, stdout, stderr)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.noBrowser, "no-browser", false, "never fall back to a headless browser")
	f.StringVar(&opts.driver, "driver", "", "browser driver: rod or chromedp (default from LINKCARD_BROWSER_DRIVER)")
	f.DurationVar(&opts.timeout, "timeout", 60*time.Second, "maximum time per URL")
	f.BoolVar(&opts.pretty, "pretty", false, "indent JSON output")
	f.BoolVar(&opts.debug, "debug", false, "log pipeline progress to stderr")

	return cmd
}

func run(ctx context.Context, opts *options, urls []string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	level := slog.LevelWarn
	if opts.debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	cfg := config.Load()
	if opts.noBrowser {
		cfg.Browser.Enabled = false
	}
	if opts.driver != "" {
		cfg.Browser.Driver = opts.driver
	}

	a, err := app.New(ctx, cfg, app.Options{NoCache: true})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return err
	}
	defer a.Close()

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	if opts.pretty {
		enc.SetIndent("", "  ")
	}

	invalid := false
	for _, raw := range urls {
		card, err := resolveOne(ctx, a, raw, opts.timeout)
		if err != nil {
			if models.HasCode(err, models.ErrCodeInvalidURL) {
				invalid = true
			}
			fmt.Fprintf(stderr, "Error: %s: %v\n", raw, err)
			continue
		}
		if err := enc.Encode(card); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	if invalid {
		return errInvalidURL
	}
	return nil
}

func resolveOne(ctx context.Context, a *app.App, raw string, timeout time.Duration) (*models.MetadataResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return a.Resolver.Resolve(ctx, raw)
}
