package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/undeadops/kvlinks/internal/client"
)

const usage = `usage: kvlinks-client [-server URL] command [args]

commands:
  create KEY URL   store a new mapping and print its short URL
  list             print every mapping as JSON
  resolve KEY      print the URL KEY redirects to
`

func main() {
	server := flag.String("server", getEnv("KVLINKS_SERVER", "http://localhost:5000"), "kvlinks server address")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := client.New(client.WithServerAddress(*server))
	if err := run(ctx, c, flag.Args()); err != nil {
		logger.Error().Err(err).Msg("kvlinks-client")
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client.Client, args []string) error {
	if len(args) == 0 {
		flag.Usage()
		return errors.New("missing command")
	}

	switch cmd := args[0]; {
	case cmd == "create" && len(args) == 3:
		shortURL, err := c.Create(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Println(shortURL)

	case cmd == "list" && len(args) == 1:
		mappings, err := c.List(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(mappings)

	case cmd == "resolve" && len(args) == 2:
		target, err := c.Resolve(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Println(target)

	default:
		flag.Usage()
		return fmt.Errorf("bad command %q", args)
	}

	return nil
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}
