package model

import "fmt"

const (
	// MaxInfusionNotes caps the notes a manual entry may carry.
	MaxInfusionNotes = 5
	// MaxItems caps the items of one archive.
	MaxItems = 32
	// MaxLaps caps the laps of one item.
	MaxLaps = 32
)

// ValidateManualInput checks a manual payload before defaults are applied.
func ValidateManualInput(in ManualInput) error {
	if len(in.InfusionNotes) > MaxInfusionNotes {
		return fmt.Errorf("%w: at most %d infusion notes", ErrValidation, MaxInfusionNotes)
	}
	return validateLaps(in.Laps)
}

// ValidateItems checks the items of an archive about to be persisted.
func ValidateItems(items Items) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: archive has no items", ErrValidation)
	}
	if len(items) > MaxItems {
		return fmt.Errorf("%w: at most %d items", ErrValidation, MaxItems)
	}
	for i, it := range items {
		if it == nil {
			return fmt.Errorf("%w: item %d is empty", ErrValidation, i)
		}
		if it.CourseID() == "" {
			return fmt.Errorf("%w: item %d has no course", ErrValidation, i)
		}
		if err := validateLaps(it.LapSeconds()); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if m, ok := it.(ManualItem); ok && len(m.InfusionNotes) > MaxInfusionNotes {
			return fmt.Errorf("%w: item %d has more than %d infusion notes", ErrValidation, i, MaxInfusionNotes)
		}
	}
	return nil
}

func validateLaps(laps []int) error {
	if len(laps) > MaxLaps {
		return fmt.Errorf("%w: at most %d laps", ErrValidation, MaxLaps)
	}
	for _, l := range laps {
		if l < 0 {
			return fmt.Errorf("%w: negative lap %d", ErrValidation, l)
		}
	}
	return nil
}
