package db

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type account struct{ id int }

func TestFindOrCreateReturnsExisting(t *testing.T) {
	creates := 0
	row, created, err := FindOrCreate(
		func() (*account, error) { return &account{id: 1}, nil },
		func() (*account, error) { creates++; return nil, nil },
		"",
	)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, row.id)
	assert.Zero(t, creates)
}

func TestFindOrCreateInsertsWhenMissing(t *testing.T) {
	row, created, err := FindOrCreate(
		func() (*account, error) { return nil, gorm.ErrRecordNotFound },
		func() (*account, error) { return &account{id: 2}, nil },
		"",
	)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, row.id)
}

func TestFindOrCreateRefetchesAfterLosingRace(t *testing.T) {
	finds := 0
	row, created, err := FindOrCreate(
		func() (*account, error) {
			finds++
			if finds == 1 {
				return nil, gorm.ErrRecordNotFound
			}
			return &account{id: 3}, nil
		},
		func() (*account, error) {
			return nil, &pgconn.PgError{Code: "23505", ConstraintName: "tenants_cognito_id_key"}
		},
		"tenants_cognito_id_key",
	)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 3, row.id)
	assert.Equal(t, 2, finds)
}

func TestFindOrCreatePropagatesOtherFailures(t *testing.T) {
	boom := errors.New("connection reset")

	_, _, err := FindOrCreate(
		func() (*account, error) { return nil, boom },
		func() (*account, error) { return &account{}, nil },
		"",
	)
	assert.ErrorIs(t, err, boom)

	_, _, err = FindOrCreate(
		func() (*account, error) { return nil, gorm.ErrRecordNotFound },
		func() (*account, error) { return nil, &pgconn.PgError{Code: "23502"} },
		"",
	)
	assert.Error(t, err)
}
