package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tomasstrnad1997/minefield/db"
	"github.com/tomasstrnad1997/minefield/mines"
)

var log = logrus.New()

func SetLogger(logger *logrus.Logger) {
	log = logger
}

var (
	ErrNoStore = errors.New("no database configured")
	ErrNoCache = errors.New("no cache configured")
)

// SlotStore is the part of the database a session saves to.
type SlotStore interface {
	SaveToSlot(ctx context.Context, slot int, name, player string, board *mines.Board, elapsed time.Duration) error
	LoadFromSlot(ctx context.Context, slot int) (*db.SavedBoard, error)
	ListSlots(ctx context.Context) ([]db.SlotInfo, error)
	SlotOccupied(ctx context.Context, slot int) (bool, error)
	ClearSlot(ctx context.Context, slot int) error
}

// GameStore keeps saved games outside the fixed slots.
type GameStore interface {
	SaveGame(ctx context.Context, player string, board *mines.Board, elapsed time.Duration) (int64, error)
	UpdateGame(ctx context.Context, id int64, board *mines.Board, elapsed time.Duration) error
	LoadGame(ctx context.Context, id int64) (*db.SavedBoard, error)
	ListGames(ctx context.Context) ([]db.GameInfo, error)
	DeleteGame(ctx context.Context, id int64) error
}

// BoardCache keeps the running board of a session between runs.
type BoardCache interface {
	SaveBoard(ctx context.Context, session uuid.UUID, board *mines.Board, elapsed time.Duration) error
	LoadBoard(ctx context.Context, session uuid.UUID) (*mines.Board, time.Duration, error)
	Delete(ctx context.Context, session uuid.UUID) error
}

type Options struct {
	ID     uuid.UUID
	Params mines.GameParams
	// Seed fixes mine placement. Zero picks a random seed.
	Seed   int64
	Player string
	Store  SlotStore
	Games  GameStore
	Cache  BoardCache
	Out    io.Writer
}

type commandHandler func(ctx context.Context, args []string) error

// Session is one run of the terminal game. It owns the game and keeps the
// bound save slot and the cache in sync after every move.
type Session struct {
	ID       uuid.UUID
	game     *mines.Game
	seed     int64
	player   string
	slot     int
	slotName string
	gameID   int64
	store    SlotStore
	games    GameStore
	cache    BoardCache
	out      io.Writer
	handlers map[string]commandHandler
	quit     bool
}

func New(opts Options) (*Session, error) {
	s := &Session{
		ID:     opts.ID,
		seed:   opts.Seed,
		player: opts.Player,
		store:  opts.Store,
		games:  opts.Games,
		cache:  opts.Cache,
		out:    opts.Out,
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.out == nil {
		s.out = io.Discard
	}
	if err := s.newGame(opts.Params); err != nil {
		return nil, err
	}
	s.registerHandlers()
	return s, nil
}

func (s *Session) newGame(params mines.GameParams) error {
	var game *mines.Game
	var err error
	if s.seed != 0 {
		game, err = mines.CreateSeededGame(params, s.seed)
	} else {
		game, err = mines.CreateGame(params)
	}
	if err != nil {
		return err
	}
	s.game = game
	return nil
}

func (s *Session) Game() *mines.Game {
	return s.game
}

// Slot is the save slot the session autosaves to, 0 when unbound.
func (s *Session) Slot() int {
	return s.slot
}

// SavedGame is the id of the saved game the session autosaves to, 0 when
// unbound.
func (s *Session) SavedGame() int64 {
	return s.gameID
}

func (s *Session) unbind() {
	s.slot = 0
	s.slotName = ""
	s.gameID = 0
}

func (s *Session) Quit() bool {
	return s.quit
}

// Resume replaces the game with the board cached for id.
func (s *Session) Resume(ctx context.Context, id uuid.UUID) error {
	if s.cache == nil {
		return ErrNoCache
	}
	board, elapsed, err := s.cache.LoadBoard(ctx, id)
	if err != nil {
		return err
	}
	s.ID = id
	s.game = mines.ResumeGame(board, elapsed)
	s.unbind()
	log.WithField("session", id).Info("resumed cached game")
	return nil
}

func (s *Session) registerHandler(verb string, handler commandHandler) {
	s.handlers[verb] = handler
}

func (s *Session) registerHandlers() {
	s.handlers = make(map[string]commandHandler)
	s.registerHandler("help", func(ctx context.Context, args []string) error {
		s.printHelp()
		return nil
	})
	s.registerHandler("quit", func(ctx context.Context, args []string) error {
		s.quit = true
		return nil
	})
	s.handlers["exit"] = s.handlers["quit"]
	s.registerHandler("new", s.handleNew)
	s.registerHandler("save", s.handleSave)
	s.registerHandler("load", s.handleLoad)
	s.registerHandler("slots", s.handleSlots)
	s.registerHandler("clear", s.handleClear)
	s.registerHandler("games", s.handleGames)
	s.registerHandler("savegame", s.handleSaveGame)
	s.registerHandler("loadgame", s.handleLoadGame)
	s.registerHandler("delgame", s.handleDeleteGame)
	s.registerHandler("export", s.handleExport)
	s.registerHandler("import", s.handleImport)
}

// Execute runs a single command line. Anything that is not a named command is
// treated as a move.
func (s *Session) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	if handler, ok := s.handlers[strings.ToLower(fields[0])]; ok {
		return handler(ctx, fields[1:])
	}
	return s.move(ctx, line)
}

// Run reads commands from r until quit or end of input. Command errors are
// reported to the player and do not stop the loop.
func (s *Session) Run(ctx context.Context, r io.Reader) error {
	s.printBoard()
	scanner := bufio.NewScanner(r)
	for !s.quit {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			break
		}
		if err := s.Execute(ctx, scanner.Text()); err != nil {
			fmt.Fprintln(s.out, err.Error())
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (s *Session) move(ctx context.Context, line string) error {
	result, err := s.game.ProcessTextCommand(line)
	if err != nil {
		return err
	}
	if !result.Changed() {
		fmt.Fprintln(s.out, "Nothing happened")
		return nil
	}
	s.autosave(ctx)
	board := s.game.Board()
	switch result.Result {
	case mines.MineBlown:
		board.FprintRevealed(s.out)
		fmt.Fprintf(s.out, "BOOM! Game over after %s\n", s.game.Elapsed().Round(time.Second))
	case mines.GameWon:
		board.FprintRevealed(s.out)
		fmt.Fprintf(s.out, "You won in %s\n", s.game.Elapsed().Round(time.Second))
	default:
		s.printBoard()
	}
	return nil
}

// autosave writes the board to the bound slot and the cache. Failures are
// logged, the game goes on.
func (s *Session) autosave(ctx context.Context) {
	board := s.game.Board()
	if s.store != nil && s.slot != 0 {
		if err := s.store.SaveToSlot(ctx, s.slot, s.slotName, s.player, board, s.game.Elapsed()); err != nil {
			log.WithError(err).WithField("slot", s.slot).Warn("autosave to slot failed")
		}
	}
	if s.games != nil && s.gameID != 0 {
		if err := s.games.UpdateGame(ctx, s.gameID, board, s.game.Elapsed()); err != nil {
			log.WithError(err).WithField("game", s.gameID).Warn("autosave to saved game failed")
		}
	}
	if s.cache == nil {
		return
	}
	var err error
	if board.IsOver() {
		err = s.cache.Delete(ctx, s.ID)
	} else {
		err = s.cache.SaveBoard(ctx, s.ID, board, s.game.Elapsed())
	}
	if err != nil {
		log.WithError(err).WithField("session", s.ID).Warn("cache update failed")
	}
}

func (s *Session) handleNew(ctx context.Context, args []string) error {
	params := s.game.Params
	if len(args) > 0 {
		difficulty, err := mines.ParseDifficulty(args[0])
		if err != nil {
			return err
		}
		params = difficulty.Params()
	}
	if err := s.newGame(params); err != nil {
		return err
	}
	s.unbind()
	if s.cache != nil {
		if err := s.cache.Delete(ctx, s.ID); err != nil {
			log.WithError(err).Warn("failed to drop cached board")
		}
	}
	fmt.Fprintf(s.out, "New game with %d mines\n", params.Mines)
	s.printBoard()
	return nil
}

func parseSlot(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("missing slot number")
	}
	slot, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("bad slot %q", args[0])
	}
	return slot, nil
}

func (s *Session) handleSave(ctx context.Context, args []string) error {
	if s.store == nil {
		return ErrNoStore
	}
	slot, err := parseSlot(args)
	if err != nil {
		return err
	}
	name := strings.Join(args[1:], " ")
	if name == "" {
		name = fmt.Sprintf("Game %s", time.Now().Format("2006-01-02 15:04"))
	}
	occupied, err := s.store.SlotOccupied(ctx, slot)
	if err != nil {
		return err
	}
	if occupied && slot != s.slot {
		fmt.Fprintf(s.out, "Overwriting slot %d\n", slot)
	}
	if err := s.store.SaveToSlot(ctx, slot, name, s.player, s.game.Board(), s.game.Elapsed()); err != nil {
		return err
	}
	s.slot = slot
	s.slotName = name
	fmt.Fprintf(s.out, "Saved to slot %d\n", slot)
	return nil
}

func (s *Session) handleLoad(ctx context.Context, args []string) error {
	if s.store == nil {
		return ErrNoStore
	}
	slot, err := parseSlot(args)
	if err != nil {
		return err
	}
	saved, err := s.store.LoadFromSlot(ctx, slot)
	if err != nil {
		return err
	}
	s.game = mines.ResumeGame(saved.Board, saved.Elapsed)
	s.unbind()
	s.slot = slot
	s.slotName = saved.Name
	fmt.Fprintf(s.out, "Loaded %q from slot %d\n", saved.Name, slot)
	s.printBoard()
	return nil
}

func (s *Session) handleSlots(ctx context.Context, args []string) error {
	if s.store == nil {
		return ErrNoStore
	}
	slots, err := s.store.ListSlots(ctx)
	if err != nil {
		return err
	}
	PrintSlots(s.out, slots)
	return nil
}

func (s *Session) handleClear(ctx context.Context, args []string) error {
	if s.store == nil {
		return ErrNoStore
	}
	slot, err := parseSlot(args)
	if err != nil {
		return err
	}
	if err := s.store.ClearSlot(ctx, slot); err != nil {
		return err
	}
	if s.slot == slot {
		s.slot = 0
		s.slotName = ""
	}
	fmt.Fprintf(s.out, "Cleared slot %d\n", slot)
	return nil
}

func parseGameID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("missing game id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad game id %q", args[0])
	}
	return id, nil
}

func (s *Session) handleGames(ctx context.Context, args []string) error {
	if s.games == nil {
		return ErrNoStore
	}
	games, err := s.games.ListGames(ctx)
	if err != nil {
		return err
	}
	PrintGames(s.out, games)
	return nil
}

// handleSaveGame stores the board as a new saved game, or updates the saved
// game the session is bound to.
func (s *Session) handleSaveGame(ctx context.Context, args []string) error {
	if s.games == nil {
		return ErrNoStore
	}
	board := s.game.Board()
	if s.gameID != 0 {
		if err := s.games.UpdateGame(ctx, s.gameID, board, s.game.Elapsed()); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Updated game %d\n", s.gameID)
		return nil
	}
	id, err := s.games.SaveGame(ctx, s.player, board, s.game.Elapsed())
	if err != nil {
		return err
	}
	s.gameID = id
	fmt.Fprintf(s.out, "Saved game %d\n", id)
	return nil
}

func (s *Session) handleLoadGame(ctx context.Context, args []string) error {
	if s.games == nil {
		return ErrNoStore
	}
	id, err := parseGameID(args)
	if err != nil {
		return err
	}
	saved, err := s.games.LoadGame(ctx, id)
	if err != nil {
		return err
	}
	s.game = mines.ResumeGame(saved.Board, saved.Elapsed)
	s.unbind()
	s.gameID = id
	fmt.Fprintf(s.out, "Loaded game %d\n", id)
	s.printBoard()
	return nil
}

func (s *Session) handleDeleteGame(ctx context.Context, args []string) error {
	if s.games == nil {
		return ErrNoStore
	}
	id, err := parseGameID(args)
	if err != nil {
		return err
	}
	if err := s.games.DeleteGame(ctx, id); err != nil {
		return err
	}
	if s.gameID == id {
		s.gameID = 0
	}
	fmt.Fprintf(s.out, "Deleted game %d\n", id)
	return nil
}

// PrintGames writes one line per saved game, newest first.
func PrintGames(w io.Writer, games []db.GameInfo) {
	if len(games) == 0 {
		fmt.Fprintln(w, "No saved games")
		return
	}
	for _, game := range games {
		fmt.Fprintf(w, "%d: %s %dx%d, %d mines, %d revealed, %s, %s, saved %s\n",
			game.ID, game.Player, game.Size, game.Size, game.Mines, game.Revealed,
			game.Elapsed, game.Status, game.ModifiedAt.Local().Format("2006-01-02 15:04"))
	}
}

// PrintSlots writes one line per save slot.
func PrintSlots(w io.Writer, slots []db.SlotInfo) {
	for _, slot := range slots {
		if !slot.Occupied {
			fmt.Fprintf(w, "%d: empty\n", slot.Slot)
			continue
		}
		fmt.Fprintf(w, "%d: %s (%s) %d mines, %d revealed, %s, %s, saved %s\n",
			slot.Slot, slot.Name, slot.Player, slot.Mines, slot.Revealed,
			slot.Elapsed, slot.Status, slot.ModifiedAt.Local().Format("2006-01-02 15:04"))
	}
}

func (s *Session) printBoard() {
	board := s.game.Board()
	board.Fprint(s.out)
	fmt.Fprintf(s.out, "Mines left: %d\n", board.RemainingMines())
}

func (s *Session) printHelp() {
	fmt.Fprintln(s.out, `Commands:
  <row> <col>        reveal a cell
  <row> <col> f      toggle a flag
  hint               reveal a safe cell
  new [difficulty]   start a new game (easy, intermediate, hard)
  save <slot> [name] save to a slot and autosave there
  load <slot>        load a slot
  slots              list save slots
  clear <slot>       empty a slot
  games              list saved games
  savegame           save the game, or update the loaded one
  loadgame <id>      load a saved game
  delgame <id>       delete a saved game
  export <file>      write the board to a file
  import <file>      read a board and moves from a file
  quit               leave the game`)
}
