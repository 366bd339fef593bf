package db

import (
	"errors"

	"gorm.io/gorm"
)

// FindOrCreate returns the row find yields, creating it when find reports
// gorm.ErrRecordNotFound. An insert that loses a race on constraint is
// resolved by finding again. created is true only when this call inserted.
func FindOrCreate[T any](find func() (*T, error), create func() (*T, error), constraint string) (row *T, created bool, err error) {
	row, err = find()
	if err == nil {
		return row, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	row, err = create()
	if err == nil {
		return row, true, nil
	}
	if !IsUniqueViolation(err, constraint) {
		return nil, false, err
	}

	row, err = find()
	if err != nil {
		return nil, false, err
	}
	return row, false, nil
}
