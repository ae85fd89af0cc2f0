package mines

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

const (
	DefaultSize  = 20
	DefaultMines = 60
)

type Position struct {
	Row int
	Col int
}

type Board struct {
	size  int
	mines int
	cells [][]Cell

	revealed      int
	flagged       int
	revealedMines int
	over          bool
	won           bool
	placed        bool

	rng *rand.Rand
}

type MoveType byte

const (
	Reveal MoveType = 0x01
	Flag   MoveType = 0x02
	Hint   MoveType = 0x03
)

type Move struct {
	Row  int
	Col  int
	Type MoveType
}

func (move Move) String() string {
	msg := fmt.Sprintf("(%d, %d) ", move.Row, move.Col)
	switch move.Type {
	case Reveal:
		return msg + "Reveal"
	case Flag:
		return msg + "Flag"
	case Hint:
		return "Hint"
	default:
		return msg + "UNKNOWN"
	}
}

type MoveResultType int

const (
	NoChange MoveResultType = iota
	MineBlown
	CellRevealed
	Flagged
	Unflagged
	GameWon
)

func (r MoveResultType) String() string {
	switch r {
	case NoChange:
		return "NoChange"
	case MineBlown:
		return "MineBlown"
	case CellRevealed:
		return "CellRevealed"
	case Flagged:
		return "Flagged"
	case Unflagged:
		return "Unflagged"
	case GameWon:
		return "GameWon"
	default:
		return fmt.Sprintf("MoveResultType(%d)", int(r))
	}
}

// MoveResult describes what a single operation did. UpdatedCells holds the
// positions whose state changed, in the order they changed.
type MoveResult struct {
	Result       MoveResultType
	UpdatedCells []Position
}

func (r MoveResult) Changed() bool {
	return r.Result != NoChange
}

var (
	ErrMinesAlreadyPlaced = errors.New("mines already placed")
	ErrInvalidCommand     = errors.New("invalid command")
)

type InvalidBoardParamsError struct {
	size  int
	mines int
}

type InvalidMoveError struct {
	size int
	row  int
	col  int
}

func (e InvalidMoveError) Error() string {
	return fmt.Sprintf("Move out of range - (%d, %d) - Board %dx%d", e.row, e.col, e.size, e.size)
}

func (e InvalidBoardParamsError) Error() string {
	switch {
	case e.size <= 0:
		return fmt.Sprintf("Cannot create a board with size: %d", e.size)
	case e.mines < 0:
		return fmt.Sprintf("Cannot create a board with negative amount of mines: %d", e.mines)
	case e.mines >= e.size*e.size:
		return fmt.Sprintf("Not enough space for %d mines. (%d >= %d * %d)", e.mines, e.mines, e.size, e.size)
	default:
		return "Cannot construct board: unknown error"
	}
}

func CreateBoardFromParams(params GameParams) (*Board, error) {
	return CreateBoard(params.Size, params.Mines)
}

// CreateBoard allocates a cleared size x size board. Mines are placed on the
// first reveal so that the first revealed cell is never a mine.
func CreateBoard(size, mines int) (*Board, error) {
	return CreateSeededBoard(size, mines, time.Now().UnixNano())
}

func CreateSeededBoard(size, mines int, seed int64) (*Board, error) {
	if size <= 0 || mines < 0 || mines >= size*size {
		return nil, &InvalidBoardParamsError{size, mines}
	}
	cells := make([][]Cell, size)
	for i := range cells {
		cells[i] = make([]Cell, size)
	}
	return &Board{
		size:  size,
		mines: mines,
		cells: cells,
		rng:   rand.New(rand.NewSource(seed)),
	}, nil
}

func (board *Board) ValidCellIndex(row, col int) bool {
	return !(row < 0 || row >= board.size || col < 0 || col >= board.size)
}

// PlaceMines lays exactly MineCount mines by rejection sampling, never on
// (safeRow, safeCol), then computes the adjacency counts.
func (board *Board) PlaceMines(safeRow, safeCol int) error {
	if !board.ValidCellIndex(safeRow, safeCol) {
		return &InvalidMoveError{board.size, safeRow, safeCol}
	}
	if board.placed {
		return ErrMinesAlreadyPlaced
	}
	placed := 0
	for placed < board.mines {
		row := board.rng.Intn(board.size)
		col := board.rng.Intn(board.size)
		cell := &board.cells[row][col]
		if cell.mine || (row == safeRow && col == safeCol) {
			continue
		}
		cell.MarkAsMine()
		placed++
	}
	board.countAdjacentMines()
	board.placed = true
	return nil
}

func (board *Board) countAdjacentMines() {
	for row := range board.cells {
		for col := range board.cells[row] {
			if board.cells[row][col].mine {
				continue
			}
			for _, n := range board.Neighbours(row, col) {
				if board.cells[n.Row][n.Col].mine {
					board.cells[row][col].IncrementAdjacentMines()
				}
			}
		}
	}
}

// Neighbours returns the in-bounds positions around (row, col), scanning
// rows then columns from -1 to 1.
func (board *Board) Neighbours(row, col int) []Position {
	var positions []Position
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r := row + dr
			c := col + dc
			if board.ValidCellIndex(r, c) {
				positions = append(positions, Position{r, c})
			}
		}
	}
	return positions
}

// Reveal opens the cell at (row, col). It is a no-op for out of range,
// revealed or flagged cells and once the game is over.
func (board *Board) Reveal(row, col int) MoveResult {
	if board.over || !board.ValidCellIndex(row, col) {
		return MoveResult{Result: NoChange}
	}
	cell := &board.cells[row][col]
	if cell.revealed || cell.flagged {
		return MoveResult{Result: NoChange}
	}
	if !board.placed {
		// Cannot fail: the index is valid and nothing is placed yet.
		_ = board.PlaceMines(row, col)
	}
	cell.Reveal()
	board.revealed++
	updated := []Position{{row, col}}
	if cell.mine {
		board.revealedMines++
		board.over = true
		return MoveResult{MineBlown, updated}
	}
	if cell.IsEmpty() {
		updated = board.cascade(row, col, updated)
	}
	if board.checkWin() {
		return MoveResult{GameWon, updated}
	}
	return MoveResult{CellRevealed, updated}
}

// cascade flood-reveals from an empty cell using an explicit stack. Numbered
// cells are revealed but not expanded, flagged cells are left alone.
func (board *Board) cascade(row, col int, updated []Position) []Position {
	stack := []Position{{row, col}}
	for len(stack) > 0 {
		pos := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range board.Neighbours(pos.Row, pos.Col) {
			cell := &board.cells[n.Row][n.Col]
			if cell.revealed || cell.flagged {
				continue
			}
			cell.Reveal()
			board.revealed++
			updated = append(updated, n)
			if cell.IsEmpty() {
				stack = append(stack, n)
			}
		}
	}
	return updated
}

func (board *Board) ToggleFlag(row, col int) MoveResult {
	if board.over || !board.ValidCellIndex(row, col) {
		return MoveResult{Result: NoChange}
	}
	cell := &board.cells[row][col]
	if cell.revealed {
		return MoveResult{Result: NoChange}
	}
	cell.ToggleFlag()
	result := Flagged
	if cell.flagged {
		board.flagged++
	} else {
		board.flagged--
		result = Unflagged
	}
	board.checkWin()
	return MoveResult{result, []Position{{row, col}}}
}

// Hint reveals the first safe, hidden, unflagged cell in row-major order.
// It does no deduction.
func (board *Board) Hint() MoveResult {
	if board.over || !board.placed {
		return MoveResult{Result: NoChange}
	}
	for row := range board.cells {
		for col, cell := range board.cells[row] {
			if !cell.revealed && !cell.flagged && !cell.mine {
				return board.Reveal(row, col)
			}
		}
	}
	return MoveResult{Result: NoChange}
}

// checkWin marks the game won once every safe cell is revealed. A detonated
// mine is revealed too, so it is excluded from the count.
func (board *Board) checkWin() bool {
	if board.revealed-board.revealedMines == board.SafeCells() {
		board.won = true
		board.over = true
	}
	return board.won
}

func (board *Board) Reset() {
	for row := range board.cells {
		for col := range board.cells[row] {
			board.cells[row][col].Reset()
		}
	}
	board.revealed = 0
	board.flagged = 0
	board.revealedMines = 0
	board.over = false
	board.won = false
	board.placed = false
}

func (board *Board) MakeMove(move Move) (MoveResult, error) {
	switch move.Type {
	case Reveal:
		return board.Reveal(move.Row, move.Col), nil
	case Flag:
		return board.ToggleFlag(move.Row, move.Col), nil
	case Hint:
		return board.Hint(), nil
	default:
		return MoveResult{}, fmt.Errorf("Invalid move type %x", move.Type)
	}
}

func (board *Board) Size() int {
	return board.size
}

func (board *Board) MineCount() int {
	return board.mines
}

func (board *Board) SafeCells() int {
	return board.size*board.size - board.mines
}

func (board *Board) RevealedCount() int {
	return board.revealed
}

func (board *Board) FlaggedCount() int {
	return board.flagged
}

// RemainingMines is the mine count minus placed flags. It goes negative when
// the player over-flags.
func (board *Board) RemainingMines() int {
	return board.mines - board.flagged
}

func (board *Board) IsOver() bool {
	return board.over
}

func (board *Board) IsWon() bool {
	return board.won
}

func (board *Board) MinesPlaced() bool {
	return board.placed
}

// Cell returns a copy of the cell at (row, col); ok is false when the
// position is outside the board.
func (board *Board) Cell(row, col int) (cell Cell, ok bool) {
	if !board.ValidCellIndex(row, col) {
		return Cell{}, false
	}
	return board.cells[row][col], true
}

// Cells returns a copy of the whole grid indexed [row][col].
func (board *Board) Cells() [][]Cell {
	grid := make([][]Cell, board.size)
	for row := range board.cells {
		grid[row] = make([]Cell, board.size)
		copy(grid[row], board.cells[row])
	}
	return grid
}
