package repositories

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volkovda/chess-arena/models"
)

// TestCountDecidedInRoundLocksRoundRows: проверка перед удалением тура
// должна захватить строки тура FOR UPDATE, иначе между подсчетом и
// удалением успевает записаться результат.
func TestCountDecidedInRoundLocksRoundRows(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresGameRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FILTER \(WHERE result <> 'ongoing'\)[\s\S]*FOR UPDATE`).
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM games WHERE tournament_id = \$1 AND round_number = \$2`).
		WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	decided, err := repo.CountDecidedInRound(context.Background(), tx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, decided)

	deleted, err := repo.DeleteByRound(context.Background(), tx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUpdateResultAfterRoundDeleted: запись результата в удаленную партию
// обновляет ноль строк и возвращает ErrGameNotFound, а не создает строку.
func TestUpdateResultAfterRoundDeleted(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresGameRepository(db)

	mock.ExpectExec(`UPDATE games`).
		WithArgs(models.ResultWhiteWin, models.GameStatusCompleted, nil, 7).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateResult(context.Background(), db, 7, models.ResultWhiteWin, models.GameStatusCompleted, nil)
	assert.ErrorIs(t, err, ErrGameNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
