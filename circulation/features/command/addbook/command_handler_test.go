package addbook_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/librarydesk/circulation/features/command/addbook"
	"github.com/AntonStoeckl/librarydesk/circulation/shared/core"
	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine"
	. "github.com/AntonStoeckl/librarydesk/testutil/sqlengine/helper" //nolint:revive
)

func Test_CommandHandler_Handle_Success(t *testing.T) {
	// setup
	engine := GivenMigratedEngine(t, sqlengine.WithClock(FixedClock(2024, time.May, 1)))
	handler := addbook.NewCommandHandler(engine)

	// act
	result, err := handler.Handle(
		context.Background(),
		addbook.BuildCommand(" 1984 ", "George Orwell", 1949, 4, "Dystopian", "978-0451524935", ""),
	)

	// assert
	require.NoError(t, err)
	assert.Positive(t, result.AffectedID)
	assert.Equal(t, 1, result.Writes)
	assert.Equal(t, 4, AvailableCopies(t, engine, result.AffectedID))
}

func Test_CommandHandler_Handle_Success_WithoutOptionalFields(t *testing.T) {
	// setup
	engine := GivenMigratedEngine(t)
	handler := addbook.NewCommandHandler(engine)

	// act
	_, firstErr := handler.Handle(context.Background(), addbook.BuildCommand("Dune", "Frank Herbert", 1965, 1, "", "", ""))
	_, secondErr := handler.Handle(context.Background(), addbook.BuildCommand("Emma", "Jane Austen", 1815, 2, "", "", ""))

	// assert
	assert.NoError(t, firstErr)
	assert.NoError(t, secondErr, "books without ISBN should not collide")
	assert.Equal(t, int64(2), CountRows(t, engine, sqlengine.TableBooks))
}

func Test_CommandHandler_Handle_Error_Validation(t *testing.T) {
	testCases := []struct {
		name    string
		command addbook.Command
	}{
		{name: "zero copies", command: addbook.BuildCommand("1984", "George Orwell", 1949, 0, "", "", "")},
		{name: "missing title", command: addbook.BuildCommand("  ", "George Orwell", 1949, 1, "", "", "")},
		{name: "missing author", command: addbook.BuildCommand("1984", "", 1949, 1, "", "", "")},
		{name: "year after next year", command: addbook.BuildCommand("1984", "George Orwell", 2026, 1, "", "", "")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// setup
			engine := GivenMigratedEngine(t, sqlengine.WithClock(FixedClock(2024, time.May, 1)))
			handler := addbook.NewCommandHandler(engine)

			// act
			_, err := handler.Handle(context.Background(), tc.command)

			// assert
			assert.ErrorIs(t, err, core.ErrInvalidInput)
			assert.Equal(t, int64(0), CountRows(t, engine, sqlengine.TableBooks))
		})
	}
}

func Test_CommandHandler_Handle_Error_DuplicateBook(t *testing.T) {
	// setup
	engine := GivenMigratedEngine(t)
	handler := addbook.NewCommandHandler(engine)
	GivenBook(t, engine, "1984", "George Orwell", 1949, 4)

	// act
	_, err := handler.Handle(context.Background(), addbook.BuildCommand("1984", "George Orwell", 1949, 2, "", "", ""))

	// assert
	assert.ErrorIs(t, err, core.ErrDuplicateBook)
	assert.Equal(t, int64(1), CountRows(t, engine, sqlengine.TableBooks))
}

func Test_CommandHandler_Handle_Error_DuplicateISBN(t *testing.T) {
	// setup
	engine := GivenMigratedEngine(t)
	handler := addbook.NewCommandHandler(engine)

	_, err := handler.Handle(context.Background(), addbook.BuildCommand("1984", "George Orwell", 1949, 1, "", "978-0451524935", ""))
	require.NoError(t, err)

	// act
	_, err = handler.Handle(context.Background(), addbook.BuildCommand("Nineteen Eighty-Four", "Orwell", 1949, 1, "", "978-0451524935", ""))

	// assert
	assert.ErrorIs(t, err, core.ErrDuplicateBook)
	assert.True(t, sqlengine.IsConstraintViolation(err))
}
