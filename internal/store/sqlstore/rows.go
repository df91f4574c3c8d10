package sqlstore

import (
	"database/sql"

	"github.com/musui/musui-server/internal/model"
	"github.com/musui/musui-server/internal/store"
)

// ItemRow is one archive_items row. Columns are nullable because rows are read
// through a LEFT JOIN and older rows leave the manual columns empty.
type ItemRow struct {
	CourseID        sql.NullString
	Laps            sql.NullString
	Mood            sql.NullString
	Memo            sql.NullString
	PhotoURL        sql.NullString
	TeaName         sql.NullString
	TeaType         sql.NullString
	Origin          sql.NullString
	BrandOrPurchase sql.NullString
	InfusionNotes   sql.NullString
}

// EncodeItem maps an item to its row. Empty optional fields become NULL.
func EncodeItem(it model.Item) (ItemRow, error) {
	rec := model.RecordOf(it)
	laps, err := store.EncodeLaps(rec.Laps)
	if err != nil {
		return ItemRow{}, err
	}
	notes, err := store.EncodeNotes(rec.InfusionNotes)
	if err != nil {
		return ItemRow{}, err
	}
	row := ItemRow{
		CourseID:        present(rec.CourseID),
		Laps:            present(laps),
		Mood:            sql.NullString{String: rec.Mood, Valid: true},
		Memo:            sql.NullString{String: rec.Memo, Valid: true},
		PhotoURL:        optional(rec.PhotoDataURL),
		Origin:          optional(rec.Origin),
		BrandOrPurchase: optional(rec.BrandOrPurchase),
		InfusionNotes:   present(notes),
	}
	if rec.CourseID == model.ManualCourseID {
		row.TeaName = present(rec.TeaName)
		row.TeaType = present(rec.TeaType)
	}
	return row, nil
}

// Decode restores the item variant from the row.
func (r ItemRow) Decode() (model.Item, error) {
	laps, err := store.DecodeLaps(r.Laps.String, r.Laps.Valid)
	if err != nil {
		return nil, err
	}
	rec := model.ItemRecord{
		CourseID:        r.CourseID.String,
		Laps:            laps,
		Mood:            r.Mood.String,
		Memo:            r.Memo.String,
		PhotoDataURL:    r.PhotoURL.String,
		TeaName:         r.TeaName.String,
		TeaType:         r.TeaType.String,
		Origin:          r.Origin.String,
		BrandOrPurchase: r.BrandOrPurchase.String,
		InfusionNotes:   store.DecodeNotes(r.InfusionNotes.String, r.InfusionNotes.Valid),
	}
	return rec.Item(), nil
}

func present(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func optional(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return present(s)
}
