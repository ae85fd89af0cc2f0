package mines

import (
	"fmt"
	"strings"
	"time"
)

type Difficulty int

const (
	Easy Difficulty = iota
	Intermediate
	Hard
)

var DifficultyNames = map[Difficulty]string{
	Easy:         "easy",
	Intermediate: "intermediate",
	Hard:         "hard",
}

var difficultyMines = map[Difficulty]int{
	Easy:         30,
	Intermediate: 60,
	Hard:         90,
}

func (d Difficulty) String() string {
	if name, ok := DifficultyNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Difficulty(%d)", int(d))
}

func (d Difficulty) Params() GameParams {
	return GameParams{Size: DefaultSize, Mines: difficultyMines[d]}
}

func ParseDifficulty(name string) (Difficulty, error) {
	for d, n := range DifficultyNames {
		if strings.EqualFold(n, name) {
			return d, nil
		}
	}
	return Intermediate, fmt.Errorf("unknown difficulty %q", name)
}

type GameParams struct {
	Size  int
	Mines int
}

// Game wraps a Board with the session clock. The clock starts on the first
// successful reveal and stops when the board reaches a terminal state.
type Game struct {
	Params  GameParams
	board   *Board
	started time.Time
	ended   time.Time
	offset  time.Duration
	now     func() time.Time
}

func CreateGame(params GameParams) (*Game, error) {
	board, err := CreateBoardFromParams(params)
	if err != nil {
		return nil, err
	}
	return &Game{Params: params, board: board, now: time.Now}, nil
}

func CreateSeededGame(params GameParams, seed int64) (*Game, error) {
	board, err := CreateSeededBoard(params.Size, params.Mines, seed)
	if err != nil {
		return nil, err
	}
	return &Game{Params: params, board: board, now: time.Now}, nil
}

// ResumeGame continues a loaded board with elapsed time already on the clock.
func ResumeGame(board *Board, elapsed time.Duration) *Game {
	game := &Game{
		Params: GameParams{Size: board.Size(), Mines: board.MineCount()},
		board:  board,
		offset: elapsed,
		now:    time.Now,
	}
	if board.RevealedCount() > 0 {
		game.started = game.now()
		if board.IsOver() {
			game.ended = game.started
		}
	}
	return game
}

func (game *Game) Board() *Board {
	return game.board
}

func (game *Game) Started() bool {
	return !game.started.IsZero()
}

func (game *Game) MakeMove(move Move) (MoveResult, error) {
	result, err := game.board.MakeMove(move)
	if err != nil {
		return result, err
	}
	game.tick(result)
	return result, nil
}

func (game *Game) ProcessTextCommand(text string) (MoveResult, error) {
	result, err := game.board.ProcessTextCommand(text)
	if err != nil {
		return result, err
	}
	game.tick(result)
	return result, nil
}

func (game *Game) tick(result MoveResult) {
	if !result.Changed() {
		return
	}
	now := game.now()
	if game.started.IsZero() && game.board.RevealedCount() > 0 {
		game.started = now
	}
	if game.board.IsOver() && game.ended.IsZero() {
		game.ended = now
	}
}

// Elapsed is the time spent playing, frozen once the game is over.
func (game *Game) Elapsed() time.Duration {
	if game.started.IsZero() {
		return game.offset
	}
	end := game.ended
	if end.IsZero() {
		end = game.now()
	}
	return game.offset + end.Sub(game.started)
}

// Restart resets the board for a new game with the same parameters.
func (game *Game) Restart() {
	game.board.Reset()
	game.started = time.Time{}
	game.ended = time.Time{}
	game.offset = 0
}
