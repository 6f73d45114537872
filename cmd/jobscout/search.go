package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/browse"
	"github.com/amishk599/jobscout/internal/model"
	"github.com/amishk599/jobscout/internal/pipeline"
)

var (
	searchSource string
	searchUser   string
	searchDryRun bool
	searchJSON   bool
	searchBrowse bool
)

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search one source once",
	Long: "Fetches listings for term from one source, stores the new ones and notifies --user about them. " +
		"With --dry-run nothing is persisted.",
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchSource, "source", "s", "", "source to search, one of the names printed by jobscout sources")
	searchCmd.Flags().StringVarP(&searchUser, "user", "u", "", "user to notify about new listings")
	searchCmd.Flags().BoolVar(&searchDryRun, "dry-run", false, "use an in-memory store; nothing is persisted")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print the response as JSON")
	searchCmd.Flags().BoolVar(&searchBrowse, "browse", false, "open the results in the interactive browser")
	_ = searchCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setupApp(ctx, appOptions{dryRun: searchDryRun})
	if err != nil {
		return err
	}
	defer a.Close()

	req := pipeline.Request{
		Term:   strings.Join(args, " "),
		Source: model.Source(strings.ToLower(searchSource)),
		User:   searchUser,
	}
	search := func(ctx context.Context) (pipeline.Response, error) {
		return a.pipeline.Search(ctx, req)
	}

	var resp pipeline.Response
	if searchJSON {
		resp, err = search(ctx)
	} else {
		resp, err = browse.RunLoader(ctx, fmt.Sprintf("Searching %s for %q", req.Source, req.Term), search)
	}
	if err != nil {
		if searchJSON {
			printJSON(cmd.OutOrStdout(), pipeline.ErrorResponse{Error: err.Error()})
		}
		return err
	}

	switch {
	case searchJSON:
		printJSON(cmd.OutOrStdout(), resp)
	case searchBrowse:
		return browse.Run(
			browse.Pane{Title: "All Results", Listings: resp.Jobs},
			browse.Pane{Title: "New", Listings: resp.NewJobs},
		)
	default:
		printSearchResult(cmd.OutOrStdout(), resp)
	}
	return nil
}

func printSearchResult(w io.Writer, resp pipeline.Response) {
	fresh := make(map[model.Key]bool, len(resp.NewJobs))
	for _, l := range resp.NewJobs {
		fresh[l.Key()] = true
	}
	for _, l := range resp.Jobs {
		marker := "    "
		if fresh[l.Key()] {
			marker = "NEW "
		}
		fmt.Fprintf(w, "%s%s\n", marker, l.Title)
		if l.Company != "" || l.Location != "" {
			fmt.Fprintf(w, "    %s\n", strings.Trim(l.Company+" · "+l.Location, " ·"))
		}
		fmt.Fprintf(w, "    %s\n", l.Link)
		if len(l.Tags) > 0 {
			fmt.Fprintf(w, "    tags: %s\n", l.TagString())
		}
	}
	fmt.Fprintf(w, "\n%d listings, %d new\n", len(resp.Jobs), len(resp.NewJobs))
}

func printJSON(w io.Writer, v interface{}) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, "encode:", err)
	}
}
