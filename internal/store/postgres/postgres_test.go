package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musui/musui-server/internal/model"
)

var archiveColumns = []string{
	"id", "user_id", "created_at", "is_public",
	"item_index", "course_id", "laps", "mood", "memo", "photo_url",
	"tea_name", "tea_type", "origin", "brand_or_purchase", "infusion_notes",
}

func TestSetVisibility_ScopedByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewWithDB(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE archives SET is_public = $1 WHERE id = $2 AND user_id = $3")).
		WithArgs(true, "sess_1", "intruder").
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := s.Archives().SetVisibility(context.Background(), "intruder", "sess_1", true)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_WritesArchiveAndItemsInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a := model.NewManualArchive(model.ManualInput{TeaName: "", TeaType: ""}, time.Now())
	a.OwnerID = "user-1"

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO archives (id, user_id, is_public, created_at) VALUES ($1,$2,$3,$4)")).
		WithArgs(a.ID, "user-1", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO archive_items")).
		WithArgs(a.ID, 0, model.ManualCourseID, "[0,0,0]", model.DefaultTeaType, model.DefaultTeaName, nil,
			model.DefaultTeaName, model.DefaultTeaType, nil, nil, "[]").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewWithDB(db).Archives().Create(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_RollsBackOnItemFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a := model.NewSessionArchive(model.Items{model.GuidedItem{Course: "course-1", Laps: []int{20}}}, time.Now())
	a.OwnerID = "user-1"

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO archives").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO archive_items").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err = NewWithDB(db).Archives().Create(context.Background(), a)
	assert.ErrorContains(t, err, "insert item 0")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPublic_GroupsAndSortsItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	newer := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	rows := sqlmock.NewRows(archiveColumns).
		AddRow("sess_b", "u2", newer, true, 1, "course-2", "[15]", "", "", nil, nil, nil, nil, nil, "[]").
		AddRow("sess_b", "u2", newer, true, 0, "course-1", "[20]", "calm", "", nil, nil, nil, nil, nil, "[]").
		AddRow("manual-a", "u1", older, true, 0, "manual", nil, "Green", "Sencha", nil, nil, "Green", "Jeju", nil, `[{"aroma":"grass"}]`)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.is_public = $1")).
		WithArgs(true).
		WillReturnRows(rows)

	got, err := NewWithDB(db).Archives().ListPublic(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "sess_b", got[0].ID)
	require.Len(t, got[0].Items, 2)
	assert.Equal(t, "course-1", got[0].Items[0].CourseID())
	assert.Equal(t, "course-2", got[0].Items[1].CourseID())

	m, ok := got[1].Items[0].(model.ManualItem)
	require.True(t, ok)
	assert.Equal(t, "Sencha", m.TeaName, "falls back to memo when tea_name is NULL")
	assert.Equal(t, []int{0, 0, 0}, m.Laps)
	assert.Len(t, m.InfusionNotes, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetVisible_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.id = $1 AND (a.is_public = $2 OR a.user_id = $3)")).
		WithArgs("sess_x", true, "stranger").
		WillReturnRows(sqlmock.NewRows(archiveColumns))

	_, err = NewWithDB(db).Archives().GetVisible(context.Background(), "sess_x", "stranger")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestDisplayNames_BatchLookup(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, display_name FROM profiles WHERE id IN ($1,$2)")).
		WithArgs("u1", "u2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "display_name"}).AddRow("u1", "leaf").AddRow("u2", nil))

	names, err := NewWithDB(db).Profiles().DisplayNames(context.Background(), []string{"u1", "u2"})
	require.NoError(t, err)
	require.NotNil(t, names["u1"])
	assert.Equal(t, "leaf", *names["u1"])
	assert.Nil(t, names["u2"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
