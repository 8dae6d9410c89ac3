package command

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ratings/cmd/cli/command/client"
	"ratings/cmd/cli/dto"
)

var ratingCmd = &cobra.Command{
	Use:   "rating",
	Short: "Rating commands",
	Long:  `Rate items and inspect their aggregate ratings`,
}

var rateCmd = &cobra.Command{
	Use:   "rate [module] [item-id] [rating]",
	Short: "Rate an item (0-100)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		rating, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid rating: %w", err)
		}
		if rating < 0 || rating > 100 {
			return fmt.Errorf("rating must be between 0 and 100")
		}

		result, err := GetAuthenticatedClient().RateItem(args[0], args[1], rating)
		if err != nil {
			return fmt.Errorf("failed to rate item: %w", err)
		}

		out := cmd.OutOrStdout()
		if !result.Accepted {
			fmt.Fprintf(out, "You have already rated %s/%s; the vote was not counted.\n", args[0], args[1])
			return nil
		}
		fmt.Fprintln(out, "✓ Rating submitted successfully!")
		printRating(out, result.Rating)
		return nil
	},
}

var getRatingCmd = &cobra.Command{
	Use:   "get [module] [item-id] | get --id [rating-id]",
	Short: "Show the rating of an item",
	Args: func(cmd *cobra.Command, args []string) error {
		if id, _ := cmd.Flags().GetInt64("id"); id > 0 {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient := GetAuthenticatedClient()

		var (
			rating *dto.RatingResponse
			err    error
		)
		if id, _ := cmd.Flags().GetInt64("id"); id > 0 {
			rating, err = httpClient.GetRatingByID(id)
		} else {
			rating, err = httpClient.GetItemRating(args[0], args[1])
		}
		if err != nil {
			return fmt.Errorf("failed to get rating: %w", err)
		}

		if rating == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Not rated yet.")
			return nil
		}
		printRating(cmd.OutOrStdout(), rating)
		return nil
	},
}

var listRatingsCmd = &cobra.Command{
	Use:   "list",
	Short: "List item ratings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts client.ListOptions
		opts.Module, _ = cmd.Flags().GetString("module")
		opts.SortBy, _ = cmd.Flags().GetString("sort")
		opts.Order, _ = cmd.Flags().GetString("order")
		opts.Limit, _ = cmd.Flags().GetInt("limit")

		result, err := GetAuthenticatedClient().ListRatings(opts)
		if err != nil {
			return fmt.Errorf("failed to list ratings: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(result.Data) == 0 {
			fmt.Fprintln(out, "No ratings found.")
			return nil
		}

		fmt.Fprintf(out, "Ratings (Total: %d):\n\n", result.Total)
		for i := range result.Data {
			printRating(out, &result.Data[i])
			fmt.Fprintln(out, strings.Repeat("-", 50))
		}
		return nil
	},
}

var countRatingsCmd = &cobra.Command{
	Use:   "count",
	Short: "Count rated items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := GetAuthenticatedClient().CountRatings()
		if err != nil {
			return fmt.Errorf("failed to count ratings: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rated items: %d\n", n)
		return nil
	},
}

func printRating(out io.Writer, r *dto.RatingResponse) {
	if r == nil {
		return
	}
	fmt.Fprintf(out, "Item: %s/%s (id %d)\n", r.Module, r.ItemID, r.ID)
	fmt.Fprintf(out, "Average: %d/100\n", r.Rating)
	fmt.Fprintf(out, "Votes: %d\n", r.NumRatings)
}

func init() {
	// Add subcommands
	ratingCmd.AddCommand(rateCmd)
	ratingCmd.AddCommand(getRatingCmd)
	ratingCmd.AddCommand(listRatingsCmd)
	ratingCmd.AddCommand(countRatingsCmd)

	getRatingCmd.Flags().Int64("id", 0, "Look up by rating id instead of module and item")

	// Flags for list command
	listRatingsCmd.Flags().String("module", "", "Only list items of this module")
	listRatingsCmd.Flags().String("sort", "", "Sort field (rid, module, itemid, rating, numratings)")
	listRatingsCmd.Flags().String("order", "DESC", "Sort order (ASC or DESC)")
	listRatingsCmd.Flags().Int("limit", 0, "Maximum number of items (0 = all)")
}
