package players

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	Store PlayerStore
}

const MinPasswordLength = 4

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPlayerExists       = errors.New("player already exists")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrInvalidName        = errors.New("player name must not be empty")
	ErrPasswordTooShort   = errors.New("password too short")
)

func (s *Service) Register(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrInvalidName
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	passwordHash, err := hashPassword(password)
	if err != nil {
		return err
	}
	return s.Store.CreatePlayer(username, passwordHash)
}

func (s *Service) Login(username, password string) (*Player, error) {
	player, err := s.Store.FindPlayerByName(strings.TrimSpace(username))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !checkPasswordHash(password, player.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return player, nil
}

func (s *Service) FindPlayerByName(name string) (*Player, error) {
	return s.Store.FindPlayerByName(name)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
