package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/librarydesk/circulation/features/command/borrowbook"
	"github.com/AntonStoeckl/librarydesk/circulation/features/command/returnbook"
	"github.com/AntonStoeckl/librarydesk/circulation/features/query/listbooks"
	"github.com/AntonStoeckl/librarydesk/circulation/features/query/listmembers"
	"github.com/AntonStoeckl/librarydesk/circulation/shared/core"
	"github.com/AntonStoeckl/librarydesk/circulation/web"
)

const (
	defaultSimulationReaders  = 8
	defaultSimulationDuration = 30 * time.Second

	// chanceReturnFirst is the chance that a reader with books at home returns one before borrowing.
	chanceReturnFirst = 0.5

	// maxLoansPerReader stops readers from borrowing once they hold this many books.
	maxLoansPerReader = 5
)

// ErrNothingToSimulate is returned when there are no members or books to simulate with.
var ErrNothingToSimulate = errors.New("simulation needs at least one member and one book, run seed first")

type simulateOptions struct {
	readers  int
	duration time.Duration
	randSeed uint64
}

// readerActor is one member who keeps borrowing and returning books.
type readerActor struct {
	memberID int64
	loans    []int64
	rnd      *rand.Rand
}

// simulationReport summarizes a simulation run.
type simulationReport struct {
	Readers    int
	Borrowed   int
	Returned   int
	Rejected   int
	Failed     int
	FirstError error
	P50        time.Duration
	P99        time.Duration
	Elapsed    time.Duration
}

// OpsPerSecond is the throughput of successful and rejected operations.
func (r simulationReport) OpsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}

	return float64(r.Borrowed+r.Returned+r.Rejected) / r.Elapsed.Seconds()
}

type simulationStats struct {
	mu        sync.Mutex
	report    simulationReport
	latencies []time.Duration
}

func (s *simulationStats) record(duration time.Duration, apply func(report *simulationReport)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	apply(&s.report)
	s.latencies = append(s.latencies, duration)
}

func newSimulateCommand(a *app) *cobra.Command {
	opts := simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Put load on the database with readers who borrow and return books concurrently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			w, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = w.close(ctx) }()

			handlers, err := web.NewHandlers(w.engine, a.cfg.Library.LoanPeriodDays, w.observability)
			if err != nil {
				return err
			}

			report, err := simulate(ctx, handlers, opts)
			if err != nil {
				return err
			}

			printSimulationReport(cmd.OutOrStdout(), report)

			return nil
		},
	}

	cmd.Flags().IntVar(&opts.readers, "readers", defaultSimulationReaders, "number of concurrent readers")
	cmd.Flags().DurationVar(&opts.duration, "duration", defaultSimulationDuration, "how long the simulation runs")
	cmd.Flags().Uint64Var(&opts.randSeed, "rand-seed", uint64(time.Now().UnixNano()), "seed of the random generator")

	return cmd
}

// simulate runs the readers until the duration is over or ctx is done.
// Readers are distinct members, so there are at most as many readers as members.
func simulate(ctx context.Context, handlers web.Handlers, opts simulateOptions) (simulationReport, error) {
	members, err := handlers.ListMembers.Handle(ctx, listmembers.BuildQuery(""))
	if err != nil {
		return simulationReport{}, err
	}

	books, err := handlers.ListBooks.Handle(ctx, listbooks.BuildQuery("", 0))
	if err != nil {
		return simulationReport{}, err
	}

	if members.Count == 0 || books.Count == 0 {
		return simulationReport{}, ErrNothingToSimulate
	}

	bookIDs := make([]int64, 0, len(books.Books))
	for _, book := range books.Books {
		bookIDs = append(bookIDs, book.BookID)
	}

	readers := min(opts.readers, members.Count)
	stats := &simulationStats{}

	runCtx, cancel := context.WithTimeout(ctx, opts.duration)
	defer cancel()

	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		reader := &readerActor{
			memberID: members.Members[i].MemberID,
			rnd:      rand.New(rand.NewPCG(opts.randSeed, uint64(i))),
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			for runCtx.Err() == nil {
				reader.visitLibrary(runCtx, handlers, bookIDs, stats)
			}
		}()
	}

	wg.Wait()

	report := stats.report
	report.Readers = readers
	report.Elapsed = time.Since(start)
	report.P50 = percentile(stats.latencies, 0.50)
	report.P99 = percentile(stats.latencies, 0.99)

	return report, nil
}

// visitLibrary performs one operation: returning a book or borrowing a random one.
func (r *readerActor) visitLibrary(ctx context.Context, handlers web.Handlers, bookIDs []int64, stats *simulationStats) {
	if len(r.loans) > 0 && (len(r.loans) >= maxLoansPerReader || r.rnd.Float64() < chanceReturnFirst) {
		r.returnBook(ctx, handlers, stats)
		return
	}

	r.borrowBook(ctx, handlers, bookIDs, stats)
}

func (r *readerActor) borrowBook(ctx context.Context, handlers web.Handlers, bookIDs []int64, stats *simulationStats) {
	bookID := bookIDs[r.rnd.IntN(len(bookIDs))]
	start := time.Now()

	result, err := handlers.BorrowBook.Handle(ctx, borrowbook.BuildCommand(r.memberID, bookID))
	if err == nil {
		r.loans = append(r.loans, result.AffectedID)
	}

	r.record(ctx, stats, time.Since(start), err, func(report *simulationReport) { report.Borrowed++ })
}

func (r *readerActor) returnBook(ctx context.Context, handlers web.Handlers, stats *simulationStats) {
	i := r.rnd.IntN(len(r.loans))
	start := time.Now()

	_, err := handlers.ReturnBook.Handle(ctx, returnbook.BuildCommand(r.loans[i]))
	if err == nil || core.IsRejection(err) {
		r.loans = slices.Delete(r.loans, i, i+1)
	}

	r.record(ctx, stats, time.Since(start), err, func(report *simulationReport) { report.Returned++ })
}

// record counts the outcome. Operations cut off by the end of the run are not counted.
func (r *readerActor) record(
	ctx context.Context,
	stats *simulationStats,
	duration time.Duration,
	err error,
	onSuccess func(report *simulationReport),
) {
	switch {
	case err == nil:
		stats.record(duration, onSuccess)
	case core.IsRejection(err):
		stats.record(duration, func(report *simulationReport) { report.Rejected++ })
	case ctx.Err() != nil:
		return
	default:
		stats.record(duration, func(report *simulationReport) {
			report.Failed++
			if report.FirstError == nil {
				report.FirstError = err
			}
		})
	}
}

// percentile returns the latency at the given percentile, 0 without data.
func percentile(latencies []time.Duration, p float64) time.Duration {
	if len(latencies) == 0 {
		return 0
	}

	sorted := slices.Clone(latencies)
	slices.Sort(sorted)

	index := int(float64(len(sorted)-1) * p)
	index = max(0, min(index, len(sorted)-1))

	return sorted[index]
}

func printSimulationReport(out io.Writer, report simulationReport) {
	fmt.Fprintf(out, "Simulation finished after %v with %d readers\n", report.Elapsed.Round(time.Millisecond), report.Readers)
	fmt.Fprintf(out, "  borrowed: %d, returned: %d, rejected: %d, failed: %d\n",
		report.Borrowed, report.Returned, report.Rejected, report.Failed)
	fmt.Fprintf(out, "  throughput: %.1f ops/s, latency p50: %v, p99: %v\n",
		report.OpsPerSecond(), report.P50.Round(time.Microsecond), report.P99.Round(time.Microsecond))

	if report.FirstError != nil {
		fmt.Fprintf(out, "  first failure: %v\n", report.FirstError)
	}
}
