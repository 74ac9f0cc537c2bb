package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"paper-review-rag/internal/app"
	"paper-review-rag/internal/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Read and write paper reviews",
}

var reviewShowCmd = &cobra.Command{
	Use:   "show [title]",
	Short: "Print the review markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewShow,
}

var reviewSaveCmd = &cobra.Command{
	Use:   "save [title] [markdown-file]",
	Short: "Store a review from a markdown file",
	Args:  cobra.ExactArgs(2),
	RunE:  runReviewSave,
}

var reviewRenderCmd = &cobra.Command{
	Use:   "render [title]",
	Short: "Print the review as HTML",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewRender,
}

func init() {
	reviewCmd.AddCommand(reviewShowCmd)
	reviewCmd.AddCommand(reviewSaveCmd)
	reviewCmd.AddCommand(reviewRenderCmd)
	rootCmd.AddCommand(reviewCmd)
}

func loadReview(cmd *cobra.Command, title string) (string, error) {
	svc, err := app.Open(cmd.Context(), cfg)
	if err != nil {
		return "", err
	}
	defer svc.Close()
	return svc.Reviews().Load(cmd.Context(), title)
}

func runReviewShow(cmd *cobra.Command, args []string) error {
	text, err := loadReview(cmd, args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}

func runReviewSave(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	svc, err := app.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer svc.Close()
	if err := svc.Reviews().Save(cmd.Context(), args[0], string(data)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved review of %s\n", args[0])
	return nil
}

func runReviewRender(cmd *cobra.Command, args []string) error {
	text, err := loadReview(cmd, args[0])
	if err != nil {
		return err
	}
	html, err := review.RenderHTML(text)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), html)
	return nil
}
