package session

import (
	"context"
	"fmt"
	"os"

	"github.com/tomasstrnad1997/minefield/mines"
	"github.com/tomasstrnad1997/minefield/protocol"
)

func (s *Session) handleExport(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: export <file>")
	}
	encoded, err := protocol.EncodeBoard(s.game.Board())
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], encoded, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Exported board to %s\n", args[0])
	return nil
}

// handleImport replays a file of framed messages: a board message replaces
// the game and move messages are applied to it in order.
func (s *Session) handleImport(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: import <file>")
	}
	file, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()

	// Moves replay onto a copy. The session switches to it only once the whole file applies.
	board, err := mines.RestoreBoard(s.game.Board().Snapshot())
	if err != nil {
		return err
	}
	game := mines.ResumeGame(board, s.game.Elapsed())
	moves := 0
	dispatcher := protocol.NewDispatcher()
	dispatcher.RegisterHandler(protocol.Board, func(data []byte) error {
		board, err := protocol.DecodeBoard(data)
		if err != nil {
			return err
		}
		game = mines.ResumeGame(board, 0)
		return nil
	})
	dispatcher.RegisterHandler(protocol.MoveCommand, func(data []byte) error {
		move, err := protocol.DecodeMove(data)
		if err != nil {
			return err
		}
		if _, err := game.MakeMove(*move); err != nil {
			return err
		}
		moves++
		return nil
	})
	if err := dispatcher.Serve(file); err != nil {
		return fmt.Errorf("import %s: %w", args[0], err)
	}

	s.game = game
	s.unbind()
	s.autosave(ctx)
	fmt.Fprintf(s.out, "Imported %s (%d moves)\n", args[0], moves)
	s.printBoard()
	return nil
}
