package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/opd-ai/rpvoice/client"
	"github.com/opd-ai/rpvoice/config"
	"github.com/opd-ai/rpvoice/relay"
	"github.com/opd-ai/rpvoice/wire"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if host := c.String("host"); host != "" {
		cfg.Host = host
	}
	if level := c.String("log-level"); level != "" {
		l, err := logrus.ParseLevel(level)
		if err != nil {
			return config.Config{}, err
		}
		cfg.LogLevel = l
	}
	cfg.ConfigureLogging()
	return cfg, nil
}

func requestID(c *cli.Context) (string, error) {
	if id := c.String("id"); id != "" {
		return id, nil
	}
	if c.IsSet("sender") && c.IsSet("text") {
		return client.RequestID(c.String("sender"), c.String("text")), nil
	}
	return "", fmt.Errorf("either --id or both --sender and --text are required")
}

// newClient loads the config, resolves the request id and builds a client.
func newClient(c *cli.Context) (*client.Client, string, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, "", err
	}
	id, err := requestID(c)
	if err != nil {
		return nil, "", err
	}
	cl, err := client.New(cfg.Host, cfg.Client)
	if err != nil {
		return nil, "", err
	}
	return cl, id, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func serveCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.Relay.DataDir = dir
	}

	srv, err := relay.NewServer(cfg.Relay)
	if err != nil {
		return err
	}
	defer srv.Close()

	for _, addr := range cfg.RelayAddrs() {
		if _, err := srv.Listen(addr); err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
	}

	addrs := make([]string, 0, len(cfg.RelayAddrs()))
	for _, addr := range srv.Addrs() {
		addrs = append(addrs, addr.String())
	}
	logrus.WithFields(logrus.Fields{
		"function": "serveCmd",
		"addrs":    addrs,
		"data_dir": cfg.Relay.DataDir,
	}).Info("Relay ready")

	ctx, stop := signalContext()
	defer stop()
	<-ctx.Done()
	return nil
}

func pushCmd(c *cli.Context) error {
	cl, id, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	pos := wire.Position{
		X: float32(c.Float64("x")),
		Y: float32(c.Float64("y")),
		Z: float32(c.Float64("z")),
	}
	if err := cl.SendFile(ctx, id, c.String("file"), pos); err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func pushDirCmd(c *cli.Context) error {
	cl, id, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	if err := cl.SendZip(ctx, id, c.String("dir")); err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func pullCmd(c *cli.Context) error {
	cl, id, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	pos, path, err := cl.GetFile(ctx, id, c.String("dest"), c.String("name"))
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return fmt.Errorf("clip %s not available", id)
	}
	fmt.Printf("%s %s\n", path, pos)
	return nil
}

func pullDirCmd(c *cli.Context) error {
	cl, id, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	_, dir, err := cl.GetZip(ctx, id, c.String("dest"))
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(dir); statErr != nil {
		return fmt.Errorf("archive %s not available", id)
	}
	fmt.Println(dir)
	return nil
}

func positionCmd(c *cli.Context) error {
	cl, id, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	pos, err := cl.GetPosition(ctx, id)
	if err != nil {
		return err
	}
	fmt.Println(pos)
	return nil
}

func requestIDCmd(c *cli.Context) error {
	fmt.Println(client.RequestID(c.String("sender"), c.String("text")))
	return nil
}
