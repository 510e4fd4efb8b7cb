package command

import (
	"context"
	"fmt"
	"strconv"

	"bukinn/internal/cache"
	"bukinn/internal/microservices/http-api/models"
	"bukinn/internal/microservices/http-api/repository"
	"bukinn/internal/microservices/http-api/service"
	"bukinn/internal/worker"

	"github.com/spf13/cobra"
)

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Maintain book statistics",
}

var bookRecomputeCmd = &cobra.Command{
	Use:   "recompute [book-id]",
	Short: "Re-derive word counts and reading times from chapter content",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if all {
			workers, _ := cmd.Flags().GetInt("workers")
			return recomputeAll(cmd, workers)
		}
		if len(args) != 1 {
			return fmt.Errorf("pass a book id or --all")
		}

		book, err := bookService().Recompute(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printStatistics(cmd, book)
		return nil
	},
}

func recomputeAll(cmd *cobra.Command, workers int) error {
	ids, err := repository.NewBookRepository(db).ListIDs(cmd.Context())
	if err != nil {
		return err
	}
	svc := bookService()

	pool := worker.NewPool(cmd.Context(), workers, log)
	pool.Start()
	for _, id := range ids {
		id := id
		err := pool.Submit(func(ctx context.Context) error {
			if _, err := svc.Recompute(ctx, id); err != nil {
				return fmt.Errorf("book %s: %w", id, err)
			}
			return nil
		})
		if err != nil {
			pool.Shutdown()
			return err
		}
	}

	done, failed := pool.Wait()
	cmd.Printf("recomputed %d of %d book(s), %d failed\n", done, len(ids), failed)
	if failed > 0 {
		return fmt.Errorf("%d book(s) could not be recomputed", failed)
	}
	return nil
}

var bookRateCmd = &cobra.Command{
	Use:   "rate <book-id> <rating>",
	Short: "Fold a rating between 0 and 5 into the book's average",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rating, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("rating must be a number, got %q", args[1])
		}
		isNew, _ := cmd.Flags().GetBool("new")

		book, err := bookService().UpdateAverageRating(cmd.Context(), args[0], rating, isNew)
		if err != nil {
			return err
		}
		printStatistics(cmd, book)
		return nil
	},
}

// bookService runs without object storage or Redis.
func bookService() service.BookService {
	return service.NewBookService(
		repository.NewBookRepository(db),
		repository.NewAuthorRepository(db),
		repository.NewCategoryRepository(db),
		service.NoCoverStore{},
		cache.NopTrendingCache{},
		log,
	)
}

func printStatistics(cmd *cobra.Command, b *models.Book) {
	s := b.Statistics
	cmd.Printf("%s (%s)\n", b.Title, b.ID)
	cmd.Printf("  words: %d  reading time: %d min\n", s.TotalWordCount, s.TotalEstimatedMinutes)
	cmd.Printf("  rating: %.2f from %d review(s)  reads: %d\n", s.AverageRating, s.TotalReviews, s.TotalReads)
}

func init() {
	bookRecomputeCmd.Flags().Bool("all", false, "recompute every book")
	bookRecomputeCmd.Flags().Int("workers", 4, "books recomputed in parallel with --all")
	bookRateCmd.Flags().Bool("new", true, "count the rating as a new review; --new=false treats it as an edited review")
	bookCmd.AddCommand(bookRecomputeCmd, bookRateCmd)
	rootCmd.AddCommand(bookCmd)
}
