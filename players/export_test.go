package players

// MemoryStore keeps players in memory for tests that need no database.
type MemoryStore struct {
	players map[string]*Player
	nextID  uint32
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{players: make(map[string]*Player), nextID: 1}
}

func (m *MemoryStore) CreatePlayer(username, hash string) error {
	if _, exists := m.players[username]; exists {
		return ErrPlayerExists
	}
	m.players[username] = &Player{ID: m.nextID, Name: username, PasswordHash: hash}
	m.nextID++
	return nil
}

func (m *MemoryStore) FindPlayerByName(username string) (*Player, error) {
	player, ok := m.players[username]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	copied := *player
	return &copied, nil
}
