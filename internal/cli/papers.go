package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"paper-review-rag/internal/arxiv"
	"paper-review-rag/internal/catalog"
	"paper-review-rag/internal/helper"
	"paper-review-rag/internal/models"
)

var (
	searchMax     int
	searchJSON    bool
	searchSummary bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search arXiv papers",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the list of interesting papers",
}

var catalogAddCmd = &cobra.Command{
	Use:   "add [arxiv-id]",
	Short: "Add a paper to the catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogAdd,
}

var catalogRmCmd = &cobra.Command{
	Use:   "rm [arxiv-id]",
	Short: "Remove a paper from the catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogRm,
}

var catalogLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List cataloged papers",
	Args:  cobra.NoArgs,
	RunE:  runCatalogLs,
}

func init() {
	searchCmd.Flags().IntVarP(&searchMax, "max", "n", 0, "maximum number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchSummary, "summary", false, "print full abstracts")

	catalogCmd.AddCommand(catalogAddCmd)
	catalogCmd.AddCommand(catalogRmCmd)
	catalogCmd.AddCommand(catalogLsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	client := arxiv.NewClient(&cfg.Arxiv, nil)
	papers, err := client.Search(cmd.Context(), strings.Join(args, " "), searchMax)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if searchJSON {
		helper.PrettyPrint(cmd.OutOrStdout(), papers)
		return nil
	}
	if len(papers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No results. Try another query.")
		return nil
	}
	for _, p := range papers {
		printPaper(cmd.OutOrStdout(), p, searchSummary)
	}
	return nil
}

func printPaper(w io.Writer, p models.Paper, full bool) {
	summary := p.Summary
	if !full && len([]rune(summary)) > 200 {
		summary = string([]rune(summary)[:200]) + "..."
	}
	fmt.Fprintf(w, "### %s\n", p.Title)
	fmt.Fprintf(w, "arXiv: %s\n", p.ArxivID)
	fmt.Fprintf(w, "Authors: %s\n", strings.Join(p.Authors, ", "))
	if !p.Published.IsZero() {
		fmt.Fprintf(w, "Published: %s\n", p.Published.Format("2006-01-02"))
	}
	fmt.Fprintf(w, "Summary: %s\n", summary)
	if p.PDFURL != "" {
		fmt.Fprintf(w, "PDF: %s\n", p.PDFURL)
	}
	fmt.Fprintln(w)
}

func openCatalog() (*catalog.Catalog, error) {
	return catalog.Open(cfg.Catalog.Path)
}

func runCatalogAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	paper, err := arxiv.NewClient(&cfg.Arxiv, nil).Get(ctx, args[0])
	if err != nil {
		return err
	}
	cat, err := openCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	added, err := cat.Add(ctx, *paper)
	if err != nil {
		return err
	}
	if !added {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is already in the catalog\n", paper.ArxivID)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s\n", paper.ArxivID, paper.Title)
	return nil
}

func runCatalogRm(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	removed, err := cat.Remove(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%s is not in the catalog", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
	return nil
}

func runCatalogLs(cmd *cobra.Command, _ []string) error {
	cat, err := openCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	papers, err := cat.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(papers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No interesting papers yet. Search and add some first.")
		return nil
	}
	for i, p := range papers {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. %s  %s\n", i+1, p.ArxivID, p.Title)
	}
	return nil
}

// lookupAbstract prefers the cataloged copy and falls back to arXiv.
func lookupAbstract(ctx context.Context, arxivID string) (*models.Paper, error) {
	if cat, err := openCatalog(); err == nil {
		defer cat.Close()
		if p, err := cat.Get(ctx, arxivID); err == nil {
			return p, nil
		}
	}
	return arxiv.NewClient(&cfg.Arxiv, nil).Get(ctx, arxivID)
}
