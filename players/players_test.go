package players_test

import (
	"errors"
	"testing"

	"github.com/tomasstrnad1997/minefield/players"
)

func TestRegisterAndLogin(t *testing.T) {
	service := players.Service{Store: players.NewMemoryStore()}
	if err := service.Register("John", "hunter22"); err != nil {
		t.Fatalf("Failed to register player: %v", err)
	}
	player, err := service.Login("John", "hunter22")
	if err != nil {
		t.Fatalf("Failed to login: %v", err)
	}
	if player.Name != "John" || player.ID == 0 {
		t.Fatalf("Unexpected player %+v", player)
	}
	if player.PasswordHash == "hunter22" {
		t.Fatalf("Password stored in plain text")
	}
}

func TestLoginFailures(t *testing.T) {
	service := players.Service{Store: players.NewMemoryStore()}
	if err := service.Register("John", "hunter22"); err != nil {
		t.Fatalf("Failed to register player: %v", err)
	}
	if _, err := service.Login("John", "wrong"); !errors.Is(err, players.ErrInvalidCredentials) {
		t.Fatalf("Expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := service.Login("Jane", "hunter22"); !errors.Is(err, players.ErrInvalidCredentials) {
		t.Fatalf("Expected ErrInvalidCredentials for unknown player, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	service := players.Service{Store: players.NewMemoryStore()}
	if err := service.Register("  ", "hunter22"); !errors.Is(err, players.ErrInvalidName) {
		t.Fatalf("Expected ErrInvalidName, got %v", err)
	}
	if err := service.Register("John", "abc"); !errors.Is(err, players.ErrPasswordTooShort) {
		t.Fatalf("Expected ErrPasswordTooShort, got %v", err)
	}
	if err := service.Register("John", "hunter22"); err != nil {
		t.Fatalf("Failed to register player: %v", err)
	}
	if err := service.Register("John", "other pass"); !errors.Is(err, players.ErrPlayerExists) {
		t.Fatalf("Expected ErrPlayerExists, got %v", err)
	}
}

func TestFindPlayerByName(t *testing.T) {
	service := players.Service{Store: players.NewMemoryStore()}
	service.Register("John", "hunter22")
	if _, err := service.FindPlayerByName("Nobody"); !errors.Is(err, players.ErrPlayerNotFound) {
		t.Fatalf("Expected ErrPlayerNotFound, got %v", err)
	}
	if player, err := service.FindPlayerByName("John"); err != nil || player.Name != "John" {
		t.Fatalf("Failed to find player: %v", err)
	}
}
