package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"kanban/internal/board"
	"kanban/internal/config"
	"kanban/internal/exitcode"
	"kanban/internal/logging"
	"kanban/internal/server"
	"kanban/internal/service"
)

// redisPrefix namespaces the board keys in Redis.
const redisPrefix = "kanban"

func init() {
	Register(&ServeCmd{})
}

// ServeCmd runs the board API locally. Flags override config.yaml.
type ServeCmd struct {
	addr       string
	redisAddr  string
	credential string
	failRate   float64

	flags *flag.FlagSet
}

func (c *ServeCmd) Name() string      { return "serve" }
func (c *ServeCmd) Aliases() []string { return nil }
func (c *ServeCmd) Synopsis() string  { return "Run the board API locally" }
func (c *ServeCmd) Usage() string {
	return "kanban serve [--addr <addr>] [--redis <addr>] [--credential <token>] [--fail-rate <0..1>]"
}
func (c *ServeCmd) NeedsService() bool { return false }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "", "")
	fs.StringVar(&c.redisAddr, "redis", "", "")
	fs.StringVar(&c.credential, "credential", "", "")
	fs.Float64Var(&c.failRate, "fail-rate", 0, "")
	c.flags = fs
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	s := c.settings(cfg.Settings.Server)
	if s.FailRate < 0 || s.FailRate > 1 {
		fmt.Fprintf(errOut, "error: fail rate must be between 0 and 1: %v\n", s.FailRate)
		return exitcode.UserError
	}

	logger := logging.New(errOut, cfg.Debug)
	if !cfg.Quiet && !cfg.Debug {
		logger.SetLevel(log.InfoLevel)
	}

	repo, closeRepo, err := openRepository(ctx, s, logger)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
	defer closeRepo()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	e := server.New(repo, server.Options{
		Credential: s.Credential,
		FailRate:   s.FailRate,
		Logger:     logger,
		Registry:   reg,
	})

	if !cfg.Quiet {
		fmt.Fprintf(out, "listening on %s\n", s.Addr)
	}
	if err := server.Serve(ctx, e, s.Addr); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}

// settings applies the flags that were set on top of s.
func (c *ServeCmd) settings(s config.ServerSettings) config.ServerSettings {
	if c.flags == nil {
		return s
	}
	c.flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			s.Addr = c.addr
		case "redis":
			s.RedisAddr = c.redisAddr
		case "credential":
			s.Credential = c.credential
		case "fail-rate":
			s.FailRate = c.failRate
		}
	})
	return s
}

// openRepository picks Redis when an address is configured and seeds it with
// the sample board on first use. Otherwise the board lives in memory.
func openRepository(ctx context.Context, s config.ServerSettings, logger *log.Logger) (server.Repository, func(), error) {
	if s.RedisAddr == "" {
		logger.Info("using in-memory board")
		return server.NewMemoryRepository(board.Sample()), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: s.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", s.RedisAddr, err)
	}
	repo := server.NewRedisRepository(client, redisPrefix)
	seeded, err := repo.Seed(ctx, board.Sample())
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	logger.WithFields(log.Fields{"redis": s.RedisAddr, "seeded": seeded}).Info("using redis board")
	return repo, func() { client.Close() }, nil
}
