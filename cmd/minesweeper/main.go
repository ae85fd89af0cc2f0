package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/tomasstrnad1997/minefield/cache"
	"github.com/tomasstrnad1997/minefield/config"
	"github.com/tomasstrnad1997/minefield/db"
	"github.com/tomasstrnad1997/minefield/mines"
	"github.com/tomasstrnad1997/minefield/players"
	"github.com/tomasstrnad1997/minefield/session"
)

var log = logrus.New()

func main() {
	cfg := config.Load()
	log = cfg.NewLogger()
	db.SetLogger(log)
	cache.SetLogger(log)
	session.SetLogger(log)

	app := &cli.App{
		Name:  "minesweeper",
		Usage: "play minesweeper in the terminal",
		Commands: []*cli.Command{
			playCommand(cfg),
			slotsCommand(cfg),
			gamesCommand(cfg),
			sessionsCommand(cfg),
			registerCommand(cfg),
		},
		DefaultCommand: "play",
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}

func openStore(cfg config.Config) (*db.SQLStore, error) {
	store, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, err
	}
	if !store.Available(context.Background()) {
		store.Close()
		return nil, fmt.Errorf("database %s not available", cfg.DBPath)
	}
	return store, nil
}

// openCache returns nil when Redis is not configured or not healthy.
func openCache(cfg config.Config) *cache.SessionCache {
	if !cfg.Redis.Enabled() {
		return nil
	}
	c, err := cache.New(cfg.Redis)
	if err != nil {
		return nil
	}
	health := c.Health(context.Background())
	if health["status"] != "up" {
		log.WithField("error", health["error"]).Warn("Redis unhealthy, running without cache")
		c.Close()
		return nil
	}
	log.WithFields(logrus.Fields{
		"total_conns": health["total_conns"],
		"idle_conns":  health["idle_conns"],
	}).Debug("Redis healthy")
	return c
}

func playCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "start an interactive game",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "difficulty", Aliases: []string{"d"}, Value: cfg.Difficulty.String(), Usage: "easy, intermediate or hard"},
			&cli.Int64Flag{Name: "seed", Usage: "fixed seed for mine placement"},
			&cli.StringFlag{Name: "player", Aliases: []string{"p"}, Usage: "player name"},
			&cli.StringFlag{Name: "password", Usage: "log in as the player"},
			&cli.IntFlag{Name: "slot", Usage: "load a save slot on start"},
			&cli.StringFlag{Name: "resume", Usage: "resume a cached session id"},
		},
		Action: func(c *cli.Context) error {
			difficulty, err := mines.ParseDifficulty(c.String("difficulty"))
			if err != nil {
				return err
			}
			opts := session.Options{
				Params: difficulty.Params(),
				Seed:   c.Int64("seed"),
				Player: c.String("player"),
				Out:    os.Stdout,
			}

			store, err := openStore(cfg)
			if err != nil {
				log.WithError(err).Warn("saving disabled")
			} else {
				defer store.Close()
				opts.Store = store
				opts.Games = store
			}
			if boardCache := openCache(cfg); boardCache != nil {
				defer boardCache.Close()
				opts.Cache = boardCache
			}

			if c.IsSet("password") {
				if store == nil {
					return session.ErrNoStore
				}
				service := players.Service{Store: store}
				player, err := service.Login(opts.Player, c.String("password"))
				if err != nil {
					return err
				}
				log.WithField("player", player.Name).Info("logged in")
			}

			s, err := session.New(opts)
			if err != nil {
				return err
			}
			ctx := context.Background()
			if id := c.String("resume"); id != "" {
				sessionID, err := uuid.Parse(id)
				if err != nil {
					return fmt.Errorf("bad session id %q: %w", id, err)
				}
				if err := s.Resume(ctx, sessionID); err != nil {
					return err
				}
			}
			if slot := c.Int("slot"); slot != 0 {
				if err := s.Execute(ctx, fmt.Sprintf("load %d", slot)); err != nil {
					return err
				}
			}
			fmt.Printf("Session %s. Type help for commands.\n", s.ID)
			return s.Run(ctx, os.Stdin)
		},
	}
}

func slotsCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "slots",
		Usage: "list save slots",
		Action: func(c *cli.Context) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			slots, err := store.ListSlots(c.Context)
			if err != nil {
				return err
			}
			session.PrintSlots(os.Stdout, slots)
			return nil
		},
	}
}

func gamesCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "games",
		Usage: "list saved games",
		Action: func(c *cli.Context) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			games, err := store.ListGames(c.Context)
			if err != nil {
				return err
			}
			session.PrintGames(os.Stdout, games)
			return nil
		},
	}
}

func sessionsCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "list sessions with a cached game",
		Action: func(c *cli.Context) error {
			boardCache, err := cache.New(cfg.Redis)
			if err != nil {
				return err
			}
			defer boardCache.Close()
			sessions, err := boardCache.Sessions(c.Context)
			if err != nil {
				return err
			}
			for _, id := range sessions {
				board, elapsed, err := boardCache.LoadBoard(c.Context, id)
				if err != nil {
					log.WithError(err).WithField("session", id).Warn("unreadable cached board")
					continue
				}
				fmt.Printf("%s: %dx%d, %d mines, %d revealed, %s\n",
					id, board.Size(), board.Size(), board.MineCount(), board.RevealedCount(), elapsed)
			}
			return nil
		},
	}
}

func registerCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "create a player",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "player", Aliases: []string{"p"}, Required: true},
			&cli.StringFlag{Name: "password", Required: true},
		},
		Action: func(c *cli.Context) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			service := players.Service{Store: store}
			if err := service.Register(c.String("player"), c.String("password")); err != nil {
				return err
			}
			fmt.Printf("Registered %s\n", c.String("player"))
			return nil
		},
	}
}
