package mines

import "fmt"

// CellState is the persisted form of a Cell.
type CellState struct {
	Mine     bool
	Revealed bool
	Flagged  bool
	Adjacent int
}

// Snapshot is the full serializable state of a board. Cells is indexed
// [row][col].
type Snapshot struct {
	Size     int
	Mines    int
	Revealed int
	Flagged  int
	Over     bool
	Won      bool
	Cells    [][]CellState
}

type CorruptSnapshotError struct {
	Reason string
}

func (e *CorruptSnapshotError) Error() string {
	return "corrupt board snapshot: " + e.Reason
}

func corrupt(format string, args ...any) error {
	return &CorruptSnapshotError{Reason: fmt.Sprintf(format, args...)}
}

func (board *Board) Snapshot() Snapshot {
	cells := make([][]CellState, board.size)
	for row := range board.cells {
		cells[row] = make([]CellState, board.size)
		for col, cell := range board.cells[row] {
			cells[row][col] = CellState{
				Mine:     cell.mine,
				Revealed: cell.revealed,
				Flagged:  cell.flagged,
				Adjacent: cell.adjacent,
			}
		}
	}
	return Snapshot{
		Size:     board.size,
		Mines:    board.mines,
		Revealed: board.revealed,
		Flagged:  board.flagged,
		Over:     board.over,
		Won:      board.won,
		Cells:    cells,
	}
}

// RestoreBoard rebuilds a board from a snapshot without placing mines. The
// result is checked against every board invariant.
func RestoreBoard(s Snapshot) (*Board, error) {
	board, err := CreateBoard(s.Size, s.Mines)
	if err != nil {
		return nil, err
	}
	if len(s.Cells) != s.Size {
		return nil, corrupt("expected %d rows, got %d", s.Size, len(s.Cells))
	}
	var mines, revealed, flagged, revealedMines int
	for row := range s.Cells {
		if len(s.Cells[row]) != s.Size {
			return nil, corrupt("row %d has %d cells, expected %d", row, len(s.Cells[row]), s.Size)
		}
		for col, state := range s.Cells[row] {
			if state.Revealed && state.Flagged {
				return nil, corrupt("cell (%d, %d) is revealed and flagged", row, col)
			}
			if state.Adjacent < 0 || state.Adjacent > 8 {
				return nil, corrupt("cell (%d, %d) has %d adjacent mines", row, col, state.Adjacent)
			}
			board.cells[row][col] = Cell{
				mine:     state.Mine,
				revealed: state.Revealed,
				flagged:  state.Flagged,
				adjacent: state.Adjacent,
			}
			if state.Mine {
				mines++
				if state.Revealed {
					revealedMines++
				}
			}
			if state.Revealed {
				revealed++
			}
			if state.Flagged {
				flagged++
			}
		}
	}
	if revealed != s.Revealed {
		return nil, corrupt("revealed count %d does not match %d revealed cells", s.Revealed, revealed)
	}
	if flagged != s.Flagged {
		return nil, corrupt("flagged count %d does not match %d flagged cells", s.Flagged, flagged)
	}

	board.placed = mines > 0 || revealed > 0
	if board.placed && mines != s.Mines {
		return nil, corrupt("board holds %d mines, expected %d", mines, s.Mines)
	}
	if !board.placed && (s.Over || s.Won) {
		return nil, corrupt("game is over before mines were placed")
	}
	if board.placed {
		for row := range board.cells {
			for col, cell := range board.cells[row] {
				if cell.mine {
					if cell.adjacent != 0 {
						return nil, corrupt("mine at (%d, %d) carries an adjacency count", row, col)
					}
					continue
				}
				count := 0
				for _, n := range board.Neighbours(row, col) {
					if board.cells[n.Row][n.Col].mine {
						count++
					}
				}
				if count != cell.adjacent {
					return nil, corrupt("cell (%d, %d) counts %d adjacent mines, actual %d", row, col, cell.adjacent, count)
				}
			}
		}
	}

	complete := revealed-revealedMines == board.SafeCells()
	if revealedMines > 1 {
		return nil, corrupt("%d mines revealed", revealedMines)
	}
	if s.Won != complete {
		return nil, corrupt("won=%t but %d of %d safe cells revealed", s.Won, revealed-revealedMines, board.SafeCells())
	}
	if s.Won && revealedMines > 0 {
		return nil, corrupt("game won with a detonated mine")
	}
	if s.Over != (s.Won || revealedMines == 1) {
		return nil, corrupt("over=%t does not match board state", s.Over)
	}

	board.revealed = revealed
	board.flagged = flagged
	board.revealedMines = revealedMines
	board.over = s.Over
	board.won = s.Won
	return board, nil
}
