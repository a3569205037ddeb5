package addmember_test

import (
	"context"
	"testing"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/librarydesk/circulation/features/command/addmember"
	"github.com/AntonStoeckl/librarydesk/circulation/shared/core"
	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine"
	. "github.com/AntonStoeckl/librarydesk/testutil/sqlengine/helper" //nolint:revive
)

func Test_CommandHandler_Handle_Success(t *testing.T) {
	// setup
	engine := GivenMigratedEngine(t, sqlengine.WithClock(FixedClock(2024, time.May, 1)))
	handler := addmember.NewCommandHandler(engine)

	// act
	result, err := handler.Handle(
		context.Background(),
		addmember.BuildCommand("Jane Doe", " jane@example.org ", "555-0100", ""),
	)

	// assert
	require.NoError(t, err)
	assert.Positive(t, result.AffectedID)

	var (
		email    string
		status   string
		joinDate time.Time
		address  *string
	)

	found, err := engine.QueryOne(
		context.Background(),
		engine.Builder().From(sqlengine.TableMembers).
			Select("email", "status", "join_date", "address").
			Where(goqu.C("member_id").Eq(result.AffectedID)),
		func(row sqlengine.Row) error { return row.Scan(&email, &status, &joinDate, &address) },
	)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "jane@example.org", email)
	assert.Equal(t, string(core.MemberActive), status)
	assert.Equal(t, "2024-05-01", joinDate.Format(time.DateOnly))
	assert.Nil(t, address)
}

func Test_CommandHandler_Handle_Error_InvalidEmail(t *testing.T) {
	testCases := []string{"jane.example.org", "jane@localhost", ""}

	for _, email := range testCases {
		t.Run(email, func(t *testing.T) {
			// setup
			engine := GivenMigratedEngine(t)
			handler := addmember.NewCommandHandler(engine)

			// act
			_, err := handler.Handle(context.Background(), addmember.BuildCommand("Jane Doe", email, "", ""))

			// assert
			assert.True(t, core.IsValidationError(err), "unexpected error: %v", err)
			assert.Equal(t, int64(0), CountRows(t, engine, sqlengine.TableMembers))
		})
	}
}

func Test_CommandHandler_Handle_Error_DuplicateEmail(t *testing.T) {
	// setup
	engine := GivenMigratedEngine(t)
	handler := addmember.NewCommandHandler(engine)
	GivenMember(t, engine, "Jane Doe", "jane@example.org")

	// act
	_, err := handler.Handle(context.Background(), addmember.BuildCommand("Jane Smith", "jane@example.org", "", ""))

	// assert
	assert.ErrorIs(t, err, core.ErrDuplicateEmail)
	assert.True(t, core.IsConflict(err))
	assert.Equal(t, int64(1), CountRows(t, engine, sqlengine.TableMembers))
}
