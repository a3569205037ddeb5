package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/librarydesk/circulation/features/command/addbook"
	"github.com/AntonStoeckl/librarydesk/circulation/features/command/addmember"
	"github.com/AntonStoeckl/librarydesk/circulation/features/command/borrowbook"
	"github.com/AntonStoeckl/librarydesk/circulation/features/command/returnbook"
	"github.com/AntonStoeckl/librarydesk/circulation/shared/core"
	"github.com/AntonStoeckl/librarydesk/circulation/web"
)

const (
	defaultSeedBooks      = 50
	defaultSeedMembers    = 20
	defaultSeedBorrowings = 40

	// returnShare is the share of seeded borrowings that are returned right away.
	returnShare = 0.4
)

var (
	seedTitleWords = []string{
		"Silent", "Hidden", "Last", "Crimson", "Winter", "Glass", "Iron", "Forgotten", "Distant", "Golden",
		"River", "Garden", "Empire", "Harbor", "Lantern", "Mountain", "Archive", "Orchard", "Signal", "Voyage",
	}
	seedAuthors = []string{
		"Ada Brenner", "Tomás Ruiz", "Mei Takahashi", "Lena Novak", "Samuel Okafor",
		"Ingrid Holm", "Ravi Menon", "Claire Dubois", "Jonas Weber", "Amara Diallo",
	}
	seedGenres = []string{"Fiction", "Mystery", "Science Fiction", "History", "Poetry", "Biography"}
	seedNames  = []string{
		"Alex", "Billie", "Casey", "Dana", "Eli", "Frankie", "Gabi", "Hayden", "Iris", "Jules",
		"Kai", "Lou", "Morgan", "Noor", "Ola", "Pat", "Quinn", "Robin", "Sam", "Toni",
	}
)

type seedOptions struct {
	books      int
	members    int
	borrowings int
	randSeed   uint64
}

// seedReport counts what the seed run created. Rejected borrowings are expected with random picks.
type seedReport struct {
	books      int
	members    int
	borrowings int
	returned   int
	rejected   int
}

func newSeedCommand(a *app) *cobra.Command {
	opts := seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with generated demo books, members and borrowings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			w, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = w.close(ctx) }()

			if err := w.engine.Migrate(ctx); err != nil {
				return err
			}

			handlers, err := web.NewHandlers(w.engine, a.cfg.Library.LoanPeriodDays, w.observability)
			if err != nil {
				return err
			}

			_, err = seed(ctx, handlers, opts, cmd.OutOrStdout())

			return err
		},
	}

	cmd.Flags().IntVar(&opts.books, "books", defaultSeedBooks, "number of books to add")
	cmd.Flags().IntVar(&opts.members, "members", defaultSeedMembers, "number of members to add")
	cmd.Flags().IntVar(&opts.borrowings, "borrowings", defaultSeedBorrowings, "number of borrowings to attempt")
	cmd.Flags().Uint64Var(&opts.randSeed, "rand-seed", uint64(time.Now().UnixNano()), "seed of the random generator")

	return cmd
}

func seed(ctx context.Context, handlers web.Handlers, opts seedOptions, out io.Writer) (seedReport, error) {
	startTime := time.Now()
	rnd := rand.New(rand.NewPCG(opts.randSeed, opts.randSeed))
	report := seedReport{}

	fmt.Fprintf(out, "Seeding %d books, %d members and %d borrowings\n", opts.books, opts.members, opts.borrowings)

	// Phase 1: books
	bookIDs := make([]int64, 0, opts.books)
	for i := 0; i < opts.books; i++ {
		command := addbook.BuildCommand(
			randomTitle(rnd, i),
			seedAuthors[rnd.IntN(len(seedAuthors))],
			1900+rnd.IntN(124),
			1+rnd.IntN(5),
			seedGenres[rnd.IntN(len(seedGenres))],
			"",
			"",
		)

		result, err := handlers.AddBook.Handle(ctx, command)
		if err != nil {
			if core.IsRejection(err) {
				continue
			}

			return report, fmt.Errorf("adding book %q: %w", command.Book.Title, err)
		}

		bookIDs = append(bookIDs, result.AffectedID)
	}

	report.books = len(bookIDs)
	fmt.Fprintf(out, "Phase 1/3: added %d books\n", report.books)

	// Phase 2: members, the uuid suffix keeps emails unique across runs
	memberIDs := make([]int64, 0, opts.members)
	for i := 0; i < opts.members; i++ {
		name := seedNames[i%len(seedNames)] + " " + strconv.Itoa(i+1)
		email := "member-" + uuid.NewString()[:8] + "@example.org"

		result, err := handlers.AddMember.Handle(ctx, addmember.BuildCommand(name, email, "", ""))
		if err != nil {
			return report, fmt.Errorf("adding member %q: %w", name, err)
		}

		memberIDs = append(memberIDs, result.AffectedID)
	}

	report.members = len(memberIDs)
	fmt.Fprintf(out, "Phase 2/3: added %d members\n", report.members)

	// Phase 3: borrowings, some of them returned again
	if len(bookIDs) > 0 && len(memberIDs) > 0 {
		for i := 0; i < opts.borrowings; i++ {
			command := borrowbook.BuildCommand(memberIDs[rnd.IntN(len(memberIDs))], bookIDs[rnd.IntN(len(bookIDs))])

			result, err := handlers.BorrowBook.Handle(ctx, command)
			if err != nil {
				if core.IsRejection(err) {
					report.rejected++
					continue
				}

				return report, fmt.Errorf("borrowing: %w", err)
			}

			report.borrowings++

			if rnd.Float64() < returnShare {
				if _, err := handlers.ReturnBook.Handle(ctx, returnbook.BuildCommand(result.AffectedID)); err != nil {
					return report, fmt.Errorf("returning: %w", err)
				}

				report.returned++
			}
		}
	}

	fmt.Fprintf(out, "Phase 3/3: %d borrowings (%d returned, %d rejected)\n",
		report.borrowings, report.returned, report.rejected)
	fmt.Fprintf(out, "Seeding completed in %v\n", time.Since(startTime).Round(time.Millisecond))

	return report, nil
}

func randomTitle(rnd *rand.Rand, i int) string {
	first := seedTitleWords[rnd.IntN(len(seedTitleWords))]
	second := seedTitleWords[rnd.IntN(len(seedTitleWords))]

	return fmt.Sprintf("The %s %s %d", first, second, i+1)
}
