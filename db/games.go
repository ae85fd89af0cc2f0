package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tomasstrnad1997/minefield/mines"
)

var ErrGameNotFound = errors.New("saved game not found")

type GameInfo struct {
	ID         int64
	Player     string
	CreatedAt  time.Time
	ModifiedAt time.Time
	Size       int
	Mines      int
	Revealed   int
	Elapsed    time.Duration
	Status     string
}

func (s *SQLStore) SaveGame(ctx context.Context, player string, board *mines.Board, elapsed time.Duration) (int64, error) {
	snapshot := board.Snapshot()
	now := time.Now().UTC()
	var id int64
	err := inTx(ctx, s.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO games (player, created_at, modified_at, size, mines, revealed, flagged,
				game_over, game_won, elapsed_seconds, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			player, now, now, snapshot.Size, snapshot.Mines, snapshot.Revealed, snapshot.Flagged,
			snapshot.Over, snapshot.Won, int64(elapsed/time.Second), status(board))
		if err != nil {
			return fmt.Errorf("insert game: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		return gameCells.replaceCells(ctx, tx, id, snapshot)
	})
	if err != nil {
		return 0, err
	}
	log.WithFields(logrus.Fields{"game": id, "player": player}).Debug("saved game")
	return id, nil
}

func (s *SQLStore) UpdateGame(ctx context.Context, id int64, board *mines.Board, elapsed time.Duration) error {
	snapshot := board.Snapshot()
	return inTx(ctx, s.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE games SET
				modified_at = ?,
				size = ?, mines = ?, revealed = ?, flagged = ?,
				game_over = ?, game_won = ?,
				elapsed_seconds = ?,
				status = ?
			WHERE id = ?`,
			time.Now().UTC(), snapshot.Size, snapshot.Mines, snapshot.Revealed, snapshot.Flagged,
			snapshot.Over, snapshot.Won, int64(elapsed/time.Second), status(board), id)
		if err != nil {
			return fmt.Errorf("update game %d: %w", id, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return fmt.Errorf("%w: %d", ErrGameNotFound, id)
		}
		return gameCells.replaceCells(ctx, tx, id, snapshot)
	})
}

func (s *SQLStore) LoadGame(ctx context.Context, id int64) (*SavedBoard, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT player, created_at, modified_at,
			size, mines, revealed, flagged, game_over, game_won, elapsed_seconds, status
		FROM games WHERE id = ?`, id)
	var elapsed int64
	var snapshot mines.Snapshot
	saved := &SavedBoard{ID: id}
	err := row.Scan(&saved.Player, &saved.CreatedAt, &saved.ModifiedAt,
		&snapshot.Size, &snapshot.Mines, &snapshot.Revealed, &snapshot.Flagged,
		&snapshot.Over, &snapshot.Won, &elapsed, &saved.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrGameNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read game %d: %w", id, err)
	}
	if err := gameCells.loadCells(ctx, s.DB, id, &snapshot); err != nil {
		return nil, fmt.Errorf("read game %d cells: %w", id, err)
	}
	board, err := mines.RestoreBoard(snapshot)
	if err != nil {
		return nil, fmt.Errorf("restore game %d: %w", id, err)
	}
	saved.Board = board
	saved.Elapsed = time.Duration(elapsed) * time.Second
	return saved, nil
}

// ListGames returns saved games, most recently modified first.
func (s *SQLStore) ListGames(ctx context.Context) ([]GameInfo, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, player, created_at, modified_at, size, mines, revealed, elapsed_seconds, status
		FROM games ORDER BY modified_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var games []GameInfo
	for rows.Next() {
		var info GameInfo
		var elapsed int64
		if err := rows.Scan(&info.ID, &info.Player, &info.CreatedAt, &info.ModifiedAt,
			&info.Size, &info.Mines, &info.Revealed, &elapsed, &info.Status); err != nil {
			return nil, err
		}
		info.Elapsed = time.Duration(elapsed) * time.Second
		games = append(games, info)
	}
	return games, rows.Err()
}

func (s *SQLStore) DeleteGame(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrGameNotFound, id)
	}
	log.WithField("game", id).Debug("deleted game")
	return nil
}
