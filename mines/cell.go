package mines

// Cell is the state of a single grid position. The board only ever hands
// out copies, so mutating a Cell obtained from a Board has no effect on it.
type Cell struct {
	mine     bool
	revealed bool
	flagged  bool
	adjacent int
}

func (c Cell) IsMine() bool {
	return c.mine
}

func (c Cell) IsRevealed() bool {
	return c.revealed
}

func (c Cell) IsFlagged() bool {
	return c.flagged
}

// AdjacentMines is only meaningful for cells that are not mines.
func (c Cell) AdjacentMines() int {
	return c.adjacent
}

// IsEmpty reports a safe cell with no neighbouring mines. Revealing one
// triggers a flood reveal.
func (c Cell) IsEmpty() bool {
	return !c.mine && c.adjacent == 0
}

func (c Cell) HasAdjacentMines() bool {
	return !c.mine && c.adjacent > 0
}

func (c *Cell) MarkAsMine() {
	c.mine = true
}

func (c *Cell) Reveal() {
	c.revealed = true
}

// ToggleFlag flips the flag. Callers must not flag a revealed cell.
func (c *Cell) ToggleFlag() {
	c.flagged = !c.flagged
}

func (c *Cell) IncrementAdjacentMines() {
	c.adjacent++
}

func (c *Cell) Reset() {
	*c = Cell{}
}
