package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-faker/faker/v4"
	"github.com/urfave/cli/v2"

	"github.com/vchandela/btree/btree"
	btcli "github.com/vchandela/btree/cli"
)

func main() {
	app := cli.App{
		Name:  "btree",
		Usage: "interactive shell over an in-memory B-Tree",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "degree",
				Usage:   "maximum branching degree of every node (at least 3)",
				Value:   btree.DefaultBranchingDegree,
				EnvVars: []string{"BTREE_DEGREE"},
			},
			&cli.BoolFlag{
				Name:  "seed",
				Usage: "seed the tree using records created with go-faker",
			},
			&cli.IntFlag{
				Name:  "records",
				Usage: "amount of records to seed the tree with upon startup",
				Value: 100,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log verbosity (debug, info, warn, error)",
				Value:   "warn",
				EnvVars: []string{"BTREE_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "log output format (text or json)",
				Value:   "text",
				EnvVars: []string{"BTREE_LOG_FORMAT"},
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "disable colored tree output",
			},
		},
		Action: run,
	}
	app.RunAndExitOnError()
}

func run(cctx *cli.Context) error {
	logger, err := setupLogger(os.Stderr, cctx.String("log-level"), cctx.String("log-format"))
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	tree, err := btree.NewOrdered[string, string](btree.Config{
		MaxBranchingDegree: cctx.Int("degree"),
		Logger:             logger,
	})
	if err != nil {
		return cli.Exit(err, 1)
	}

	if cctx.Bool("seed") {
		n := seedTreeWithTestRecords(tree, cctx.Int("records"))
		logger.Info("seeded tree", "records", n, "height", tree.Height())
	}

	scanner := bufio.NewScanner(os.Stdin)
	demo := btcli.NewCli(scanner, os.Stdout, tree, btcli.Options{
		NoColor: cctx.Bool("no-color"),
		Logger:  logger,
	})
	return demo.Start()
}

// seedTreeWithTestRecords inserts up to n random pairs and returns how many were new.
func seedTreeWithTestRecords(t *btree.Tree[string, string], n int) int {
	inserted := 0
	for i := 0; i < n; i++ {
		k := faker.Word() + faker.Word()
		v := faker.Word() + faker.Word()
		err := t.Insert(k, v)
		if errors.Is(err, btree.ErrDuplicateKey) {
			continue
		}
		inserted++
	}
	return inserted
}

func setupLogger(out io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	hopts := slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text":
		handler = slog.NewTextHandler(out, &hopts)
	case "json":
		handler = slog.NewJSONHandler(out, &hopts)
	default:
		return nil, fmt.Errorf("unknown log format: %#v", format)
	}
	return slog.New(handler), nil
}
