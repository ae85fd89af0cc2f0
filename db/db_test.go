package db_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/tomasstrnad1997/minefield/db"
	"github.com/tomasstrnad1997/minefield/mines"
	"github.com/tomasstrnad1997/minefield/players"
)

func createTempDB(t *testing.T) string {
	t.Helper()
	// Create a temporary file for the SQLite database
	tempFile, err := os.CreateTemp("", "*.db")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	tempFile.Close()
	t.Cleanup(func() {
		if err := os.Remove(tempFile.Name()); err != nil {
			fmt.Printf("failed to delete temp DB file %v\n", err)
		}
	})
	return tempFile.Name()
}

func openStore(t *testing.T) *db.SQLStore {
	t.Helper()
	store, err := db.Open(createTempDB(t))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return store
}

func playedBoard(t *testing.T) *mines.Board {
	t.Helper()
	board, err := mines.CreateSeededBoard(10, 15, 4)
	if err != nil {
		t.Fatalf("Failed to create board: %v", err)
	}
	board.Reveal(5, 5)
	board.ToggleFlag(0, 0)
	return board
}

func TestDBcreation(t *testing.T) {
	filename := createTempDB(t)
	t.Setenv("DB_PATH", filename)
	store, err := db.InitStore()
	if err != nil {
		t.Fatalf("Failed to create Store: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	name := "John"
	pwHash := "NOT HASHED"
	if err := store.CreatePlayer(name, pwHash); err != nil {
		t.Fatalf("Failed to store player in db: %v", err)
	}
	player, err := store.FindPlayerByName(name)
	if err != nil {
		t.Fatalf("Failed to find player: %v", err)
	}
	if player.Name != name || player.PasswordHash != pwHash || player.ID == 0 {
		t.Fatalf("Unexpected player %+v", player)
	}
}

func TestInitStoreWithoutPath(t *testing.T) {
	t.Setenv("DB_PATH", "")
	if _, err := db.InitStore(); err == nil {
		t.Fatalf("Expected error without DB_PATH")
	}
}

func TestPlayerErrors(t *testing.T) {
	store := openStore(t)
	if err := store.CreatePlayer("ann", "x"); err != nil {
		t.Fatalf("Failed to create player: %v", err)
	}
	if err := store.CreatePlayer("ann", "y"); !errors.Is(err, players.ErrPlayerExists) {
		t.Fatalf("Expected ErrPlayerExists, got %v", err)
	}
	if _, err := store.FindPlayerByName("bob"); !errors.Is(err, players.ErrPlayerNotFound) {
		t.Fatalf("Expected ErrPlayerNotFound, got %v", err)
	}
}

func TestMigrateTwice(t *testing.T) {
	store := openStore(t)
	if err := store.Migrate(); err != nil {
		t.Fatalf("Second migration failed: %v", err)
	}
	if !store.Available(context.Background()) {
		t.Fatalf("Store not available")
	}
	slots, err := store.ListSlots(context.Background())
	if err != nil {
		t.Fatalf("Failed to list slots: %v", err)
	}
	if len(slots) != db.SlotCount {
		t.Fatalf("Expected %d slots, got %d", db.SlotCount, len(slots))
	}
}

func TestSlots(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	slots, err := store.ListSlots(ctx)
	if err != nil {
		t.Fatalf("Failed to list slots: %v", err)
	}
	for i, slot := range slots {
		if slot.Slot != i+1 || slot.Occupied {
			t.Fatalf("Unexpected fresh slot %+v", slot)
		}
	}
	if _, err := store.LoadFromSlot(ctx, 2); !errors.Is(err, db.ErrSlotEmpty) {
		t.Fatalf("Expected ErrSlotEmpty, got %v", err)
	}

	board := playedBoard(t)
	if err := store.SaveToSlot(ctx, 2, "first", "ann", board, 95*time.Second); err != nil {
		t.Fatalf("Failed to save to slot: %v", err)
	}
	occupied, err := store.SlotOccupied(ctx, 2)
	if err != nil || !occupied {
		t.Fatalf("Slot 2 should be occupied: %v", err)
	}
	if occupied, _ := store.SlotOccupied(ctx, 1); occupied {
		t.Fatalf("Slot 1 should be empty")
	}

	saved, err := store.LoadFromSlot(ctx, 2)
	if err != nil {
		t.Fatalf("Failed to load slot: %v", err)
	}
	if saved.Name != "first" || saved.Player != "ann" || saved.Elapsed != 95*time.Second {
		t.Fatalf("Unexpected slot metadata %+v", saved)
	}
	if saved.Status != db.StatusInProgress {
		t.Fatalf("Expected in progress status, got %s", saved.Status)
	}
	if !reflect.DeepEqual(board.Snapshot(), saved.Board.Snapshot()) {
		t.Fatalf("Loaded board differs from saved board")
	}

	// Overwrite keeps the creation time
	board.Hint()
	if err := store.SaveToSlot(ctx, 2, "second", "ann", board, 100*time.Second); err != nil {
		t.Fatalf("Failed to overwrite slot: %v", err)
	}
	resaved, err := store.LoadFromSlot(ctx, 2)
	if err != nil {
		t.Fatalf("Failed to load slot: %v", err)
	}
	if !resaved.CreatedAt.Equal(saved.CreatedAt) || resaved.Name != "second" {
		t.Fatalf("Unexpected overwritten slot %+v", resaved)
	}
	if resaved.Board.RevealedCount() != board.RevealedCount() {
		t.Fatalf("Overwritten slot holds stale cells")
	}

	if err := store.ClearSlot(ctx, 2); err != nil {
		t.Fatalf("Failed to clear slot: %v", err)
	}
	if _, err := store.LoadFromSlot(ctx, 2); !errors.Is(err, db.ErrSlotEmpty) {
		t.Fatalf("Expected ErrSlotEmpty after clear, got %v", err)
	}
}

func TestInvalidSlot(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	board := playedBoard(t)
	for _, slot := range []int{0, 4, -1} {
		if err := store.SaveToSlot(ctx, slot, "x", "y", board, 0); !errors.Is(err, db.ErrInvalidSlot) {
			t.Fatalf("SaveToSlot(%d) expected ErrInvalidSlot, got %v", slot, err)
		}
		if _, err := store.LoadFromSlot(ctx, slot); !errors.Is(err, db.ErrInvalidSlot) {
			t.Fatalf("LoadFromSlot(%d) expected ErrInvalidSlot, got %v", slot, err)
		}
		if err := store.ClearSlot(ctx, slot); !errors.Is(err, db.ErrInvalidSlot) {
			t.Fatalf("ClearSlot(%d) expected ErrInvalidSlot, got %v", slot, err)
		}
	}
}

func TestSavedGames(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	first := playedBoard(t)
	firstID, err := store.SaveGame(ctx, "ann", first, time.Minute)
	if err != nil {
		t.Fatalf("Failed to save game: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	second, _ := mines.CreateBoard(6, 0)
	second.Reveal(0, 0)
	secondID, err := store.SaveGame(ctx, "bob", second, 3*time.Second)
	if err != nil {
		t.Fatalf("Failed to save game: %v", err)
	}

	loaded, err := store.LoadGame(ctx, secondID)
	if err != nil {
		t.Fatalf("Failed to load game: %v", err)
	}
	if loaded.Status != db.StatusFinished || !loaded.Board.IsWon() || loaded.Player != "bob" {
		t.Fatalf("Unexpected loaded game %+v", loaded)
	}

	games, err := store.ListGames(ctx)
	if err != nil {
		t.Fatalf("Failed to list games: %v", err)
	}
	if len(games) != 2 || games[0].ID != secondID {
		t.Fatalf("Expected newest game first, got %+v", games)
	}

	time.Sleep(5 * time.Millisecond)
	first.Hint()
	if err := store.UpdateGame(ctx, firstID, first, 2*time.Minute); err != nil {
		t.Fatalf("Failed to update game: %v", err)
	}
	games, _ = store.ListGames(ctx)
	if games[0].ID != firstID || games[0].Elapsed != 2*time.Minute {
		t.Fatalf("Updated game should be listed first, got %+v", games)
	}
	loaded, err = store.LoadGame(ctx, firstID)
	if err != nil {
		t.Fatalf("Failed to load game: %v", err)
	}
	if !reflect.DeepEqual(first.Snapshot(), loaded.Board.Snapshot()) {
		t.Fatalf("Loaded game differs from updated board")
	}

	if err := store.DeleteGame(ctx, firstID); err != nil {
		t.Fatalf("Failed to delete game: %v", err)
	}
	if _, err := store.LoadGame(ctx, firstID); !errors.Is(err, db.ErrGameNotFound) {
		t.Fatalf("Expected ErrGameNotFound, got %v", err)
	}
	if err := store.DeleteGame(ctx, firstID); !errors.Is(err, db.ErrGameNotFound) {
		t.Fatalf("Expected ErrGameNotFound on second delete, got %v", err)
	}
	if err := store.UpdateGame(ctx, firstID, first, 0); !errors.Is(err, db.ErrGameNotFound) {
		t.Fatalf("Expected ErrGameNotFound on update, got %v", err)
	}
	var cells int
	if err := store.DB.QueryRow(`SELECT COUNT(*) FROM game_cells WHERE game_id = ?`, firstID).Scan(&cells); err != nil {
		t.Fatalf("Failed to count cells: %v", err)
	}
	if cells != 0 {
		t.Fatalf("Deleted game left %d cells behind", cells)
	}
}

func TestLoadCorruptGame(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	id, err := store.SaveGame(ctx, "ann", playedBoard(t), 0)
	if err != nil {
		t.Fatalf("Failed to save game: %v", err)
	}
	if _, err := store.DB.Exec(`DELETE FROM game_cells WHERE game_id = ? AND cell_row = 0 AND cell_col = 1`, id); err != nil {
		t.Fatalf("Failed to delete cell: %v", err)
	}
	var corruptErr *mines.CorruptSnapshotError
	if _, err := store.LoadGame(ctx, id); !errors.As(err, &corruptErr) {
		t.Fatalf("Expected CorruptSnapshotError, got %v", err)
	}

	id, _ = store.SaveGame(ctx, "ann", playedBoard(t), 0)
	if _, err := store.DB.Exec(`UPDATE games SET revealed = revealed + 1 WHERE id = ?`, id); err != nil {
		t.Fatalf("Failed to tamper with game: %v", err)
	}
	if _, err := store.LoadGame(ctx, id); !errors.As(err, &corruptErr) {
		t.Fatalf("Expected CorruptSnapshotError, got %v", err)
	}
}

func TestPlayerServiceOnStore(t *testing.T) {
	service := players.Service{Store: openStore(t)}
	if err := service.Register("ann", "secret"); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	if _, err := service.Login("ann", "secret"); err != nil {
		t.Fatalf("Failed to login: %v", err)
	}
	if err := service.Register("ann", "secret"); !errors.Is(err, players.ErrPlayerExists) {
		t.Fatalf("Expected ErrPlayerExists, got %v", err)
	}
}
