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

const SlotCount = 3

var (
	ErrInvalidSlot = errors.New("invalid save slot")
	ErrSlotEmpty   = errors.New("save slot is empty")
)

// SlotInfo summarises a save slot without loading its cells.
type SlotInfo struct {
	Slot       int
	Occupied   bool
	Name       string
	Player     string
	ModifiedAt time.Time
	Mines      int
	Revealed   int
	Flagged    int
	Elapsed    time.Duration
	Status     string
}

func checkSlot(slot int) error {
	if slot < 1 || slot > SlotCount {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	return nil
}

// SaveToSlot overwrites the slot with the board. The creation time of an
// occupied slot is kept.
func (s *SQLStore) SaveToSlot(ctx context.Context, slot int, name, player string, board *mines.Board, elapsed time.Duration) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	snapshot := board.Snapshot()
	now := time.Now().UTC()
	err := inTx(ctx, s.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE save_slots SET
				occupied = 1,
				name = ?,
				player = ?,
				created_at = CASE WHEN occupied THEN created_at ELSE ? END,
				modified_at = ?,
				size = ?, mines = ?, revealed = ?, flagged = ?,
				game_over = ?, game_won = ?,
				elapsed_seconds = ?,
				status = ?
			WHERE slot_id = ?`,
			name, player, now, now,
			snapshot.Size, snapshot.Mines, snapshot.Revealed, snapshot.Flagged,
			snapshot.Over, snapshot.Won,
			int64(elapsed/time.Second), status(board), slot)
		if err != nil {
			return fmt.Errorf("update slot %d: %w", slot, err)
		}
		return slotCells.replaceCells(ctx, tx, int64(slot), snapshot)
	})
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"slot": slot, "name": name, "player": player}).Debug("saved board to slot")
	return nil
}

func (s *SQLStore) LoadFromSlot(ctx context.Context, slot int) (*SavedBoard, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	row := s.DB.QueryRowContext(ctx, `
		SELECT occupied, name, player, created_at, modified_at,
			size, mines, revealed, flagged, game_over, game_won, elapsed_seconds, status
		FROM save_slots WHERE slot_id = ?`, slot)
	var occupied bool
	var created, modified sql.NullTime
	var elapsed int64
	var snapshot mines.Snapshot
	saved := &SavedBoard{ID: int64(slot)}
	err := row.Scan(&occupied, &saved.Name, &saved.Player, &created, &modified,
		&snapshot.Size, &snapshot.Mines, &snapshot.Revealed, &snapshot.Flagged,
		&snapshot.Over, &snapshot.Won, &elapsed, &saved.Status)
	if err != nil {
		return nil, fmt.Errorf("read slot %d: %w", slot, err)
	}
	if !occupied {
		return nil, fmt.Errorf("%w: %d", ErrSlotEmpty, slot)
	}
	if err := slotCells.loadCells(ctx, s.DB, int64(slot), &snapshot); err != nil {
		return nil, fmt.Errorf("read slot %d cells: %w", slot, err)
	}
	board, err := mines.RestoreBoard(snapshot)
	if err != nil {
		return nil, fmt.Errorf("restore slot %d: %w", slot, err)
	}
	saved.Board = board
	saved.Elapsed = time.Duration(elapsed) * time.Second
	saved.CreatedAt = created.Time
	saved.ModifiedAt = modified.Time
	return saved, nil
}

func (s *SQLStore) ListSlots(ctx context.Context) ([]SlotInfo, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT slot_id, occupied, name, player, modified_at, mines, revealed, flagged, elapsed_seconds, status
		FROM save_slots ORDER BY slot_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var slots []SlotInfo
	for rows.Next() {
		var info SlotInfo
		var modified sql.NullTime
		var elapsed int64
		if err := rows.Scan(&info.Slot, &info.Occupied, &info.Name, &info.Player, &modified,
			&info.Mines, &info.Revealed, &info.Flagged, &elapsed, &info.Status); err != nil {
			return nil, err
		}
		info.ModifiedAt = modified.Time
		info.Elapsed = time.Duration(elapsed) * time.Second
		slots = append(slots, info)
	}
	return slots, rows.Err()
}

func (s *SQLStore) SlotOccupied(ctx context.Context, slot int) (bool, error) {
	if err := checkSlot(slot); err != nil {
		return false, err
	}
	var occupied bool
	err := s.DB.QueryRowContext(ctx, `SELECT occupied FROM save_slots WHERE slot_id = ?`, slot).Scan(&occupied)
	return occupied, err
}

// ClearSlot empties the slot and drops its cells.
func (s *SQLStore) ClearSlot(ctx context.Context, slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	err := inTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM slot_cells WHERE slot_id = ?`, slot); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE save_slots SET
				occupied = 0, name = '', player = '',
				created_at = NULL, modified_at = NULL,
				size = 0, mines = 0, revealed = 0, flagged = 0,
				game_over = 0, game_won = 0, elapsed_seconds = 0,
				status = ?
			WHERE slot_id = ?`, StatusInProgress, slot)
		return err
	})
	if err != nil {
		return fmt.Errorf("clear slot %d: %w", slot, err)
	}
	log.WithField("slot", slot).Debug("cleared slot")
	return nil
}
