package openloans_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/librarydesk/circulation/features/query/openloans"
	"github.com/AntonStoeckl/librarydesk/circulation/shared/core"
	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine"
	. "github.com/AntonStoeckl/librarydesk/testutil/sqlengine/helper" //nolint:revive
)

func Test_QueryHandler_Handle_ListsOpenLoansOldestFirst(t *testing.T) {
	// setup
	engine := GivenMigratedEngine(t, sqlengine.WithClock(FixedClock(2024, time.June, 1)))
	handler := openloans.NewQueryHandler(engine)

	// arrange
	orwell := GivenBook(t, engine, "1984", "George Orwell", 1949, 4)
	dune := GivenBook(t, engine, "Dune", "Frank Herbert", 1965, 2)
	jane := GivenMember(t, engine, "Jane Doe", "jane@example.org")
	john := GivenMember(t, engine, "John Smith", "john@example.org")

	duePast := Day(2024, time.May, 20)
	returnedOn := Day(2024, time.May, 10)

	recent := GivenBorrowing(t, engine, jane, orwell, Day(2024, time.May, 25), nil, nil)
	GivenBorrowing(t, engine, jane, dune, Day(2024, time.April, 1), nil, &returnedOn)
	oldest := GivenBorrowing(t, engine, john, dune, Day(2024, time.May, 1), &duePast, nil)

	// act
	result, err := handler.Handle(context.Background(), openloans.BuildQuery())

	// assert
	require.NoError(t, err)
	require.Equal(t, 2, result.Count)

	assert.Equal(t, oldest, result.Loans[0].BorrowID)
	assert.Equal(t, "John Smith", result.Loans[0].MemberName)
	assert.Equal(t, "Dune", result.Loans[0].BookTitle)
	assert.Equal(t, 31, result.Loans[0].DaysBorrowed)
	assert.Equal(t, core.StatusOverdue, result.Loans[0].Status)

	assert.Equal(t, recent, result.Loans[1].BorrowID)
	assert.Equal(t, 7, result.Loans[1].DaysBorrowed)
	assert.Equal(t, core.StatusBorrowed, result.Loans[1].Status)
}

func Test_QueryHandler_Handle_WhenNothingIsOut(t *testing.T) {
	// setup
	handler := openloans.NewQueryHandler(GivenMigratedEngine(t))

	// act
	result, err := handler.Handle(context.Background(), openloans.BuildQuery())

	// assert
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
	assert.NotNil(t, result.Loans)
}
