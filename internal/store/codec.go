package store

import (
	"encoding/json"
	"fmt"

	"github.com/musui/musui-server/internal/model"
)

// Laps and infusion notes are stored as JSON text so every driver can use the
// same column type.

func EncodeLaps(laps []int) (string, error) {
	if laps == nil {
		laps = []int{}
	}
	b, err := json.Marshal(laps)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeLaps treats a missing value as the default [0,0,0].
func DecodeLaps(raw string, valid bool) ([]int, error) {
	if !valid || raw == "" {
		return model.DefaultLaps(), nil
	}
	var laps []int
	if err := json.Unmarshal([]byte(raw), &laps); err != nil {
		return nil, fmt.Errorf("decode laps: %w", err)
	}
	if laps == nil {
		laps = []int{}
	}
	return laps, nil
}

func EncodeNotes(notes []model.InfusionNote) (string, error) {
	if notes == nil {
		notes = []model.InfusionNote{}
	}
	b, err := json.Marshal(notes)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeNotes treats a missing or non-array value as no notes.
func DecodeNotes(raw string, valid bool) []model.InfusionNote {
	if !valid || raw == "" {
		return []model.InfusionNote{}
	}
	var notes []model.InfusionNote
	if err := json.Unmarshal([]byte(raw), &notes); err != nil || notes == nil {
		return []model.InfusionNote{}
	}
	return notes
}
