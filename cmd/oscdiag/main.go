// Command oscdiag sends test traffic to score displays and to the router.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/okian/oscrouter/internal/adapters/osc"
	"github.com/okian/oscrouter/internal/adapters/udp"
	"github.com/okian/oscrouter/internal/config"
	"github.com/okian/oscrouter/internal/domain/model"
	"github.com/okian/oscrouter/pkg/logger"
)

const (
	testScore         = 42
	defaultTimeout    = 2 * time.Second
	defaultRouterPort = 57121
)

var errCheckFailed = errors.New("one or more stations failed")

func main() {
	if err := logger.InitWithWriter(os.Stderr); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := newApp().Run(os.Args); err != nil {
		logger.Get().Error(context.Background(), "oscdiag failed", logger.Error(err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "oscdiag",
		Usage:                  "Send test OSC scores to displays and to the router",
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Value: defaultTimeout,
				Usage: "Give up on a send after `DURATION`.",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "send",
				Usage:  "Send /score to a display directly",
				Action: runSend,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "to",
						Aliases:  []string{"t"},
						Usage:    "Display `HOST[:PORT]`; the port defaults to 58008.",
						Required: true,
					},
					&cli.Float64Flag{Name: "value", Aliases: []string{"v"}, Value: testScore, Usage: "Numeric score."},
					&cli.StringFlag{Name: "text", Usage: "Optional string argument sent after the score."},
				},
			},
			{
				Name:   "check",
				Usage:  "Send a test score to every configured route",
				Action: runCheck,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "station",
						Aliases: []string{"s"},
						Usage:   "Only check `STATION`; repeatable.",
					},
				},
			},
			{
				Name:   "simulate",
				Usage:  "Act as a game station and send /<station>/score to the router",
				Action: runSimulate,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "router", Aliases: []string{"r"}, Value: "127.0.0.1:57121", Usage: "Router `HOST:PORT`."},
					&cli.StringFlag{Name: "station", Aliases: []string{"s"}, Required: true, Usage: "Station id, e.g. plinko."},
					&cli.Float64Flag{Name: "value", Aliases: []string{"v"}, Value: testScore, Usage: "Numeric score."},
					&cli.StringFlag{Name: "text", Usage: "String part; sent as a second datagram, like the mastermind station."},
				},
			},
		},
	}
}

func runSend(c *cli.Context) error {
	ep, err := model.ParseEndpoint(c.String("to"), model.DefaultStationPort)
	if err != nil {
		return err
	}
	args := []osc.Argument{osc.Float(float32(c.Float64("value")))}
	if c.IsSet("text") {
		args = append(args, osc.String(c.String("text")))
	}
	payload, err := osc.Encode("/score", args...)
	if err != nil {
		return err
	}

	pool := udp.NewClientPool()
	defer func() { _ = pool.CloseAll() }()

	if err := send(c, pool, ep, payload); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "sent %s to %s\n", osc.NewMessage("/score", args...), ep)
	return nil
}

func runCheck(c *cli.Context) error {
	cfg, err := config.Load(c.Context)
	if err != nil {
		return err
	}
	routes, err := cfg.Endpoints()
	if err != nil {
		return err
	}

	stations := c.StringSlice("station")
	if len(stations) == 0 {
		for s := range routes {
			stations = append(stations, s)
		}
	}
	sort.Strings(stations)

	payload, err := osc.Encode("/score", osc.Float(testScore))
	if err != nil {
		return err
	}

	pool := udp.NewClientPool()
	defer func() { _ = pool.CloseAll() }()

	failed := 0
	for _, s := range stations {
		ep, ok := routes[model.NormalizeStation(s)]
		if !ok {
			failed++
			fmt.Fprintf(c.App.Writer, "%-12s unmapped\n", s)
			continue
		}
		if err := send(c, pool, ep, payload); err != nil {
			failed++
			fmt.Fprintf(c.App.Writer, "%-12s %-22s FAIL %v\n", s, ep, err)
			continue
		}
		fmt.Fprintf(c.App.Writer, "%-12s %-22s ok\n", s, ep)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errCheckFailed, failed, len(stations))
	}
	return nil
}

func runSimulate(c *cli.Context) error {
	ep, err := model.ParseEndpoint(c.String("router"), defaultRouterPort)
	if err != nil {
		return err
	}
	addr := "/" + c.String("station") + "/score"

	parts := []osc.Argument{osc.Float(float32(c.Float64("value")))}
	if c.IsSet("text") {
		parts = append(parts, osc.String(c.String("text")))
	}

	pool := udp.NewClientPool()
	defer func() { _ = pool.CloseAll() }()

	for _, arg := range parts {
		payload, err := osc.Encode(addr, arg)
		if err != nil {
			return err
		}
		if err := send(c, pool, ep, payload); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "sent %s to %s\n", osc.NewMessage(addr, arg), ep)
	}
	return nil
}

func send(c *cli.Context, pool *udp.ClientPool, ep model.Endpoint, payload []byte) error {
	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()
	return pool.Send(ctx, ep, payload)
}
