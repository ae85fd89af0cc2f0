package mines

import "time"

func (game *Game) SetClock(now func() time.Time) {
	game.now = now
}
