package mines

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ProcessTextCommand applies a terminal command: "<row> <col>" reveals,
// "<row> <col> f" toggles a flag and "hint" asks for a hint.
func (board *Board) ProcessTextCommand(text string) (MoveResult, error) {
	text = strings.TrimSpace(text)
	if text == "h" || text == "hint" {
		return board.MakeMove(Move{Type: Hint})
	}
	move, err := ParseMove(text)
	if err != nil {
		return MoveResult{}, err
	}
	return board.MakeMove(move)
}

func ParseMove(text string) (Move, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 || len(fields) > 3 {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidCommand, text)
	}
	row, err := strconv.Atoi(fields[0])
	if err != nil {
		return Move{}, fmt.Errorf("%w: bad row %q", ErrInvalidCommand, fields[0])
	}
	col, err := strconv.Atoi(fields[1])
	if err != nil {
		return Move{}, fmt.Errorf("%w: bad column %q", ErrInvalidCommand, fields[1])
	}
	move := Move{Row: row, Col: col, Type: Reveal}
	if len(fields) == 3 {
		if !strings.EqualFold(fields[2], "f") {
			return Move{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidCommand, fields[2])
		}
		move.Type = Flag
	}
	return move, nil
}

// Fprint renders the board as the player sees it.
func (board *Board) Fprint(w io.Writer) {
	board.fprintHeader(w)
	for row := range board.cells {
		fmt.Fprint(w, row%10)
		for _, cell := range board.cells[row] {
			switch {
			case cell.revealed && cell.mine:
				fmt.Fprint(w, "*")
			case cell.revealed && cell.adjacent == 0:
				fmt.Fprint(w, ".")
			case cell.revealed:
				fmt.Fprint(w, cell.adjacent)
			case cell.flagged:
				fmt.Fprint(w, "F")
			default:
				fmt.Fprint(w, "#")
			}
		}
		fmt.Fprintln(w)
	}
}

// FprintRevealed renders every mine, used once the game is over.
func (board *Board) FprintRevealed(w io.Writer) {
	board.fprintHeader(w)
	for row := range board.cells {
		fmt.Fprint(w, row%10)
		for _, cell := range board.cells[row] {
			switch {
			case cell.mine && cell.flagged:
				fmt.Fprint(w, "F")
			case cell.mine:
				fmt.Fprint(w, "O")
			case cell.flagged:
				fmt.Fprint(w, "x")
			case cell.adjacent == 0:
				fmt.Fprint(w, ".")
			default:
				fmt.Fprint(w, cell.adjacent)
			}
		}
		fmt.Fprintln(w)
	}
}

func (board *Board) fprintHeader(w io.Writer) {
	fmt.Fprint(w, "X")
	for i := 0; i < board.size; i++ {
		fmt.Fprint(w, i%10)
	}
	fmt.Fprintln(w)
}
