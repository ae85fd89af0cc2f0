package players

type Player struct {
	ID           uint32
	Name         string
	PasswordHash string
}

// PlayerStore persists players. CreatePlayer returns ErrPlayerExists for a
// taken name and FindPlayerByName returns ErrPlayerNotFound.
type PlayerStore interface {
	CreatePlayer(username, hash string) error
	FindPlayerByName(username string) (*Player, error)
}
