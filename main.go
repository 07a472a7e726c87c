package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/csweichel/prnag/bot"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"gopkg.in/yaml.v3"
)

func main() {
	configFlag := cli.StringFlag{
		Name:  "config",
		Usage: "path to the config file",
		Value: "config.yml",
	}

	app := &cli.App{
		Name:  "prnag",
		Usage: "prnag posts your open pull requests to Slack",
		Flags: []cli.Flag{
			cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
			cli.BoolFlag{
				Name:  "json-log",
				Usage: "log as JSON",
			},
		},
		Before: func(c *cli.Context) error {
			if c.GlobalBool("verbose") {
				logrus.SetLevel(logrus.DebugLevel)
			}
			if c.GlobalBool("json-log") {
				logrus.SetFormatter(&logrus.JSONFormatter{})
			}
			// .env is optional
			_ = godotenv.Load()
			return nil
		},
		Commands: []cli.Command{
			{
				Name:  "run",
				Usage: "searches for open pull requests and posts the report",
				Flags: []cli.Flag{
					configFlag,
					cli.BoolFlag{
						Name:  "dry-run",
						Usage: "print the report instead of posting it",
					},
				},
				Action: func(c *cli.Context) error {
					return run(c.String("config"), c.Bool("dry-run"), os.Stdout)
				},
			},
			{
				Name:  "init",
				Usage: "dumps an example config to stdout",
				Action: func(c *cli.Context) error {
					return yaml.NewEncoder(os.Stdout).Encode(bot.ExampleConfig())
				},
			},
			{
				Name:  "ratelimit",
				Usage: "shows the GitHub API rate limits",
				Flags: []cli.Flag{configFlag},
				Action: func(c *cli.Context) error {
					return rateLimit(c.String("config"), os.Stdout)
				},
			},
		},
	}
	err := app.Run(os.Args)
	if err != nil {
		logrus.WithError(err).Fatal()
	}
}

func run(configFN string, dryRun bool, out io.Writer) error {
	cfg, err := bot.LoadConfig(configFN)
	if err != nil {
		return err
	}

	b, err := bot.New(*cfg)
	if err != nil {
		return err
	}
	if dryRun {
		b.Notifier = bot.StdoutNotifier{Out: out}
	}

	return b.Run(context.Background())
}

func rateLimit(configFN string, out io.Writer) error {
	cfg, err := bot.LoadConfig(configFN)
	if err != nil {
		return err
	}

	p, err := bot.NewPlatform(*cfg)
	if err != nil {
		return err
	}

	limits, err := p.RateLimit(context.Background())
	if err != nil {
		return fmt.Errorf("cannot get rate limits: %w", err)
	}

	if limits.Core != nil {
		fmt.Fprintf(out, "Core API:   %d/%d remaining (resets in %s)\n",
			limits.Core.Remaining, limits.Core.Limit, resetIn(limits.Core.Reset.Time))
	}
	if limits.Search != nil {
		fmt.Fprintf(out, "Search API: %d/%d remaining (resets in %s)\n",
			limits.Search.Remaining, limits.Search.Limit, resetIn(limits.Search.Reset.Time))
	}
	return nil
}

func resetIn(t time.Time) time.Duration {
	d := time.Until(t).Round(time.Second)
	if d < 0 {
		return 0
	}
	return d
}
