package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "source_outcomes", []string{"run_id", "source"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"source_outcomes"}, []string{"run_id", "source"}).WillReturnResult(3)

	rows := [][]any{{"run-1", "mindbody"}, {"run-1", "crossfit"}, {"run-1", "hyrox"}}
	n, err := CopyFrom(context.Background(), mock, "source_outcomes", []string{"run_id", "source"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"source_outcomes"}, []string{"run_id", "source"}).WillReturnError(fmt.Errorf("copy failed"))

	rows := [][]any{{"run-1", "mindbody"}}
	_, err = CopyFrom(context.Background(), mock, "source_outcomes", []string{"run_id", "source"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO source_outcomes")
	assert.NoError(t, mock.ExpectationsWereMet())
}
