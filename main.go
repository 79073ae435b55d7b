package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	app "github.com/rocketscienceinc/tictactoe-lineserver/internal"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/client"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/config"
)

// main - is the entry point of the application. It dispatches to the serve and play commands.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	cmd := &cli.Command{
		Name:  "tictactoe",
		Usage: "two player tic-tac-toe over a line based TCP protocol",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the game server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "path to the config file",
						Value: "./config.yml",
					},
				},
				Action: serve,
			},
			{
				Name:  "play",
				Usage: "join a game from the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "address of the game server",
						Value: "localhost:8080",
					},
				},
				Action: play,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(_ context.Context, cmd *cli.Command) error {
	conf := config.MustLoad(cmd.String("config"))
	logger := initLogger(conf)

	if err := app.RunApp(logger, conf); err != nil {
		return fmt.Errorf("app run failed: %w", err)
	}

	return nil
}

func play(ctx context.Context, cmd *cli.Command) error {
	return client.Play(ctx, cmd.String("addr"), os.Stdin, os.Stdout)
}

// initialize logger.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
