package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stockbind/backend/config"
	"github.com/stockbind/backend/internal/app"
	"github.com/stockbind/backend/internal/domain"
	"github.com/stockbind/backend/internal/infrastructure/resolverclient"
	"github.com/stockbind/backend/internal/logging"
)

// resolver is what the commands resolve through: the local cascade or a
// remote server.
type resolver interface {
	Resolve(ctx context.Context, listing *domain.ScrapedListing, debug bool) (*domain.Resolution, error)
	ResolveBatch(ctx context.Context, listings []domain.ScrapedListing, debug bool) ([]*domain.Resolution, error)
}

// cli carries state shared by every subcommand
type cli struct {
	remote  string
	timeout time.Duration
	pretty  bool
	verbose bool

	cfg    *config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "stockbind",
		Short: "Resolve scraped retailer listings to catalog product codes",
		Long: `stockbind runs the resolution cascade against a catalog database, or
against a running resolver server when --remote is given.

Configuration is read from config.yaml, .env and STOCKBIND_* environment
variables, the same way the server reads it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			c.cfg = cfg

			level := "warn"
			if c.verbose {
				level = "debug"
			}
			c.logger = logging.New(logging.Options{
				Level:       level,
				Format:      "console",
				Output:      cmd.ErrOrStderr(),
				ServiceName: "stockbind-cli",
			})
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.remote, "remote", "", "resolver server base URL (default: resolve locally)")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 2*time.Minute, "overall command timeout")
	root.PersistentFlags().BoolVar(&c.pretty, "pretty", false, "indent JSON output")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.newResolveCmd())
	root.AddCommand(c.newBatchCmd())
	root.AddCommand(c.newSchemaCmd())
	return root
}

// newResolveCmd creates the resolve subcommand.
func (c *cli) newResolveCmd() *cobra.Command {
	var (
		listing domain.ScrapedListing
		debug   bool
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a single listing",
		Example: `  stockbind resolve --title "Barbour Beadnell Wax Jacket" --color "Olive OL71"
  stockbind resolve --site retailer-a --url https://retailer-a.example/p/1 --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := listing.Validate(); err != nil {
				return fmt.Errorf("%w: pass --url, --title, --partial-code or --sku", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			r, closeFn, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := r.Resolve(ctx, &listing, debug)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&listing.Site, "site", "", "retailer site identifier")
	cmd.Flags().StringVar(&listing.URL, "url", "", "product page URL")
	cmd.Flags().StringVar(&listing.RawTitle, "title", "", "scraped product title")
	cmd.Flags().StringVar(&listing.RawColor, "color", "", "scraped color text")
	cmd.Flags().StringVar(&listing.PartialCode, "partial-code", "", "style code without its color suffix")
	cmd.Flags().StringVar(&listing.SKUGuess, "sku", "", "code asserted by the source page")
	cmd.Flags().StringVar(&listing.Brand, "brand", "", "brand for lexicon lookup (default: matching.default_brand)")
	cmd.Flags().BoolVar(&debug, "debug", false, "include the per-stage trace")
	return cmd
}

// newBatchCmd creates the batch subcommand.
func (c *cli) newBatchCmd() *cobra.Command {
	var (
		file  string
		debug bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Resolve newline-delimited JSON listings",
		Long: `batch reads one JSON listing per line from --file (or stdin) and prints
one resolution per line in the same order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open listings: %w", err)
				}
				defer f.Close()
				in = f
			}

			listings, err := readListings(in)
			if err != nil {
				return err
			}
			if len(listings) == 0 {
				return fmt.Errorf("no listings to resolve")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			r, closeFn, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			results, err := r.ResolveBatch(ctx, listings, debug)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, res := range results {
				if err := json.NewEncoder(out).Encode(res); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "listings file, one JSON object per line (default: stdin)")
	cmd.Flags().BoolVar(&debug, "debug", false, "include the per-stage trace")
	return cmd
}

// newSchemaCmd creates the schema subcommand.
func (c *cli) newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the catalog tables when they do not exist",
		Long: `schema creates the catalog, override, URL cache and lexicon tables in the
configured catalog database. It is meant for local SQLite setups; existing
tables are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			cfg := *c.cfg
			cfg.Catalog.EnsureSchema = true
			a, err := app.New(ctx, &cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "catalog schema ready (%s)\n", cfg.Catalog.Driver)
			return nil
		},
	}
}

// open returns the resolver the commands should use and a release func
func (c *cli) open(ctx context.Context) (resolver, func(), error) {
	if c.remote != "" {
		client := resolverclient.NewClient(c.remote, resolverclient.Options{
			RatePerSecond: c.cfg.RateLimit.Remote,
		}, c.logger)
		if err := client.Health(ctx); err != nil {
			return nil, nil, fmt.Errorf("remote resolver unavailable: %w", err)
		}
		return client, func() {}, nil
	}

	a, err := app.New(ctx, c.cfg, c.logger)
	if err != nil {
		return nil, nil, err
	}
	return a.Service, func() { a.Close() }, nil
}

func (c *cli) print(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	if c.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// readListings parses newline-delimited JSON listings, skipping blank lines
func readListings(r io.Reader) ([]domain.ScrapedListing, error) {
	var listings []domain.ScrapedListing
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var l domain.ScrapedListing
		if err := json.Unmarshal([]byte(text), &l); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		listings = append(listings, l)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read listings: %w", err)
	}
	return listings, nil
}
