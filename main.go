package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"PPDirect/global/config"
	"PPDirect/logger"
	"PPDirect/service/api"
	"PPDirect/service/chat"
	"PPDirect/service/natsx"
	redis "PPDirect/service/storage/redis"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
		&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "listen port, overrides PORT"},
	}
}

func main() {
	serve := &cli.Command{
		Name:   "serve",
		Usage:  "run the HTTP and WebSocket server",
		Flags:  serveFlags(),
		Action: runServe,
	}
	watch := &cli.Command{
		Name:   "watch",
		Usage:  "follow presence events published on NATS",
		Flags:  []cli.Flag{&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"}},
		Action: runWatch,
	}
	root := &cli.Command{
		Name:     "ppdirect",
		Usage:    "real-time direct messaging backend",
		Flags:    serveFlags(),
		Commands: []*cli.Command{serve, watch},
		Action:   runServe,
	}
	if err := root.Run(context.Background(), os.Args); err != nil {
		logger.Errorf("ppdirect: %+v", err)
		logger.Sync()
		os.Exit(1)
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	defer logger.Sync()

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	if p := cmd.Int("port"); p > 0 {
		cfg.Port = int(p)
	}
	config.ConfigLogger(cfg)
	config.ConfigIds(cfg)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	store, err := config.ConfigStore(bootCtx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(cctx); err != nil {
			logger.Warnf("store close: %v", err)
		}
	}()

	var sinks []chat.PresenceSink
	if mirror, err := config.ConfigRedis(cfg); err != nil {
		logger.Warnf("redis presence mirror disabled: %v", err)
	} else if mirror != nil {
		sinks = append(sinks, mirror)
		defer redis.CloseRedis()
	}
	if nc, pub, err := config.ConfigNats(cfg); err != nil {
		logger.Warnf("nats presence events disabled: %v", err)
	} else if nc != nil {
		sinks = append(sinks, pub)
		defer nc.Close()
	}

	auth := config.ConfigAuth(cfg)
	hub := config.ConfigHub(cfg, auth, store, sinks...)
	defer hub.Close()

	engine := api.NewEngine(api.Deps{
		Store:        store,
		Auth:         auth,
		Hub:          hub,
		ClientURL:    cfg.ClientURL,
		CookieSecure: cfg.CookieSecure,
	})
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("[HTTP] listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Infof("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// hijacked websocket connections are not tracked by Shutdown; hub.Close ends them
	hub.Close()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	return nil
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	defer logger.Sync()

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	config.ConfigLogger(cfg)

	nc, err := natsx.NewNatsxClient(cfg.Nats)
	if err != nil {
		return err
	}
	defer nc.Close()

	err = natsx.SubscribePresence(nc, func(set chat.OnlineSet) {
		names := make([]string, 0, len(set))
		for _, e := range set {
			names = append(names, e.Username)
		}
		logger.Infof("[presence] %d online: %s", len(set), strings.Join(names, ","))
	})
	if err != nil {
		return err
	}
	logger.Infof("[presence] watching %s", natsx.PresenceSubject)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return nil
}
