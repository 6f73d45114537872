package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/browse"
	"github.com/amishk599/jobscout/internal/filter"
	"github.com/amishk599/jobscout/internal/model"
)

var (
	listSource string
	listTerm   string
	listLimit  int
	listOffset int
	listJSON   bool

	matchTitles    []string
	matchLocations []string
	matchTags      []string
)

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "List stored listings",
	RunE:  runListings,
}

var browseSince time.Duration

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse stored listings interactively",
	Long:  "Opens stored listings in a two-pane browser: everything on the left, listings first seen within --since on the right.",
	RunE:  runBrowse,
}

func init() {
	for _, c := range []*cobra.Command{listingsCmd, browseCmd} {
		c.Flags().StringVarP(&listSource, "source", "s", "", "only listings from this source")
		c.Flags().StringVarP(&listTerm, "term", "t", "", "only listings found under this search term")
		c.Flags().StringSliceVar(&matchTitles, "title", nil, "keep listings whose title contains any of these keywords")
		c.Flags().StringSliceVar(&matchLocations, "location", nil, "keep listings whose location contains any of these keywords")
		c.Flags().StringSliceVar(&matchTags, "tag", nil, "keep listings carrying any of these tags")
	}
	listingsCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum number of listings")
	listingsCmd.Flags().IntVar(&listOffset, "offset", 0, "listings to skip")
	listingsCmd.Flags().BoolVar(&listJSON, "json", false, "print listings as JSON")
	browseCmd.Flags().DurationVar(&browseSince, "since", 24*time.Hour, "age limit for the recent pane")

	rootCmd.AddCommand(listingsCmd)
	rootCmd.AddCommand(browseCmd)
}

func runListings(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setupApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	listings, err := a.store.All(ctx, model.ListQuery{
		Source:     model.Source(listSource),
		SearchTerm: listTerm,
		Limit:      listLimit,
		Offset:     listOffset,
	})
	if err != nil {
		return fmt.Errorf("query listings: %w", err)
	}
	listings = filter.New(matchTitles, matchLocations, matchTags).Apply(listings)
	total, err := a.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count listings: %w", err)
	}

	if listJSON {
		printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"items":  listings,
			"limit":  listLimit,
			"offset": listOffset,
			"total":  total,
		})
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FIRST SEEN\tSOURCE\tTERM\tTITLE\tCOMPANY\tLINK")
	for _, l := range listings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			l.FirstSeenAt.Local().Format("2006-01-02 15:04"), l.Source, l.SearchTerm, l.Title, l.Company, l.Link)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nshowing %d of %d stored listings\n", len(listings), total)
	return nil
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setupApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	source := model.Source(listSource)
	if source == "" {
		sources := a.registry.Sources()
		items := []string{"all sources"}
		for _, s := range sources {
			items = append(items, string(s))
		}
		idx, err := browse.RunPicker("Browse listings from", items)
		if err != nil {
			return err
		}
		if idx < 0 {
			return nil
		}
		if idx > 0 {
			source = sources[idx-1]
		}
	}

	listings, err := browse.RunLoader(ctx, "Loading listings", func(ctx context.Context) ([]model.Listing, error) {
		return a.store.All(ctx, model.ListQuery{Source: source, SearchTerm: listTerm})
	})
	if err != nil {
		return fmt.Errorf("load listings: %w", err)
	}
	if f := filter.New(matchTitles, matchLocations, matchTags); !f.Empty() {
		listings = f.Apply(listings)
	}

	cutoff := time.Now().Add(-browseSince)
	var recent []model.Listing
	for _, l := range listings {
		if l.FirstSeenAt.After(cutoff) {
			recent = append(recent, l)
		}
	}
	return browse.Run(
		browse.Pane{Title: "All Listings", Listings: listings},
		browse.Pane{Title: "Recent", Listings: recent},
	)
}
