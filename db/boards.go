package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomasstrnad1997/minefield/mines"
)

const (
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"
)

// SavedBoard is a board read back from a slot or a saved game.
type SavedBoard struct {
	ID         int64
	Name       string
	Player     string
	Board      *mines.Board
	Elapsed    time.Duration
	Status     string
	CreatedAt  time.Time
	ModifiedAt time.Time
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// cellTable describes where the cells of a board owner are kept.
type cellTable struct {
	name  string
	owner string
}

var (
	slotCells = cellTable{name: "slot_cells", owner: "slot_id"}
	gameCells = cellTable{name: "game_cells", owner: "game_id"}
)

func status(board *mines.Board) string {
	if board.IsOver() {
		return StatusFinished
	}
	return StatusInProgress
}

// replaceCells deletes the stored cells of owner and writes the board's grid.
func (t cellTable) replaceCells(ctx context.Context, tx *sql.Tx, owner int64, snapshot mines.Snapshot) error {
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, t.name, t.owner), owner); err != nil {
		return fmt.Errorf("clear %s: %w", t.name, err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (%s, cell_row, cell_col, mine, revealed, flagged, adjacent) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.name, t.owner))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for row, cells := range snapshot.Cells {
		for col, cell := range cells {
			if _, err := stmt.ExecContext(ctx, owner, row, col,
				cell.Mine, cell.Revealed, cell.Flagged, cell.Adjacent); err != nil {
				return fmt.Errorf("insert cell (%d, %d): %w", row, col, err)
			}
		}
	}
	return nil
}

// loadCells fills snapshot.Cells from the stored grid. Every position must be
// present exactly once.
func (t cellTable) loadCells(ctx context.Context, q queryer, owner int64, snapshot *mines.Snapshot) error {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(
		`SELECT cell_row, cell_col, mine, revealed, flagged, adjacent FROM %s WHERE %s = ?`,
		t.name, t.owner), owner)
	if err != nil {
		return err
	}
	defer rows.Close()

	snapshot.Cells = make([][]mines.CellState, snapshot.Size)
	for i := range snapshot.Cells {
		snapshot.Cells[i] = make([]mines.CellState, snapshot.Size)
	}
	count := 0
	for rows.Next() {
		var row, col int
		var cell mines.CellState
		if err := rows.Scan(&row, &col, &cell.Mine, &cell.Revealed, &cell.Flagged, &cell.Adjacent); err != nil {
			return err
		}
		if row < 0 || row >= snapshot.Size || col < 0 || col >= snapshot.Size {
			return &mines.CorruptSnapshotError{Reason: fmt.Sprintf("stored cell (%d, %d) outside %dx%d board", row, col, snapshot.Size, snapshot.Size)}
		}
		snapshot.Cells[row][col] = cell
		count++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if count != snapshot.Size*snapshot.Size {
		return &mines.CorruptSnapshotError{Reason: fmt.Sprintf("%d stored cells for a %dx%d board", count, snapshot.Size, snapshot.Size)}
	}
	return nil
}

func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
