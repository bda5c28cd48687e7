// Command twi-console drives the USI I2C master against a simulated bus.
// Commands are read line by line from stdin; run "help" for the list.
package main

import (
	"bufio"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"usitwi-go/drivers/usitwi"
	"usitwi-go/x/timex"
)

func main() {
	app := cli.NewApp()

	app.Name = "twi-console"
	app.Usage = "exercise the USI I2C master on a simulated bus"
	app.Version = "0.1.0"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load simulated devices from TOML `FILE`",
		},
		cli.BoolFlag{
			Name:  "fast",
			Usage: "use fast-mode (400 kHz) bit timing",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Usage: "give up when SCL is held low longer than this (0 waits forever)",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "log every bus transaction",
		},
	}

	app.Action = serve
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serve(c *cli.Context) error {
	log.SetFormatter(&log.TextFormatter{DisableColors: true})
	if c.Bool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	conf, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}

	cfg := usitwi.Config{}
	if c.Bool("fast") {
		cfg.Timing = usitwi.TimingForHz(400000)
	}
	if d := c.Duration("timeout"); d > 0 {
		cfg.Wait = usitwi.Bounded{Limit: d}
	}

	s, err := newSession(conf, cfg, os.Stdout)
	if err != nil {
		return err
	}
	t := s.master.Timing()
	log.WithFields(log.Fields{
		"devices": len(conf.Devices),
		"stretch": conf.Stretch,
		"hz":      timex.HzFromPeriod(t.Low + t.High),
	}).Info("bus ready")

	prompt := isTerminal(os.Stdin)
	in := bufio.NewScanner(os.Stdin)
	for {
		if prompt {
			fmt.Print("twi> ")
		}
		if !in.Scan() {
			break
		}
		if err := s.exec(in.Text()); err != nil {
			if err == errQuit {
				return nil
			}
			log.Error(err)
		}
	}
	return in.Err()
}
