package dashboardstats_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/librarydesk/circulation/features/query/dashboardstats"
	. "github.com/AntonStoeckl/librarydesk/testutil/sqlengine/helper" //nolint:revive
)

func Test_QueryHandler_Handle_EmptyDatabase(t *testing.T) {
	// setup
	handler := dashboardstats.NewQueryHandler(GivenMigratedEngine(t))

	// act
	stats, err := handler.Handle(context.Background(), dashboardstats.BuildQuery())

	// assert
	require.NoError(t, err)
	assert.Equal(t, dashboardstats.Stats{}, stats, "all figures should be zero, not NULL")
}

func Test_QueryHandler_Handle_CountsEverything(t *testing.T) {
	// setup
	engine := GivenMigratedEngine(t)
	handler := dashboardstats.NewQueryHandler(engine)

	// arrange
	orwell := GivenBook(t, engine, "1984", "George Orwell", 1949, 3)
	dune := GivenBook(t, engine, "Dune", "Frank Herbert", 1965, 2)
	jane := GivenMember(t, engine, "Jane Doe", "jane@example.org")
	GivenMember(t, engine, "John Smith", "john@example.org")

	returnedOn := Day(2024, time.May, 10)
	GivenBorrowing(t, engine, jane, orwell, Day(2024, time.May, 1), nil, nil)
	GivenBorrowing(t, engine, jane, dune, Day(2024, time.May, 1), nil, &returnedOn)

	// act
	stats, err := handler.Handle(context.Background(), dashboardstats.BuildQuery())

	// assert
	require.NoError(t, err)
	assert.Equal(t, dashboardstats.Stats{
		TotalBooks:       2,
		TotalMembers:     2,
		ActiveBorrowings: 1,
		AvailableCopies:  5,
	}, stats)
}
