package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "beamsctl",
		Usage: "drive a Beams device registration from the command line",
		Flags: rootFlags,
		Commands: []*cli.Command{
			{Name: "start", Usage: "register this device (no-op when already registered)", Action: runStart},
			{Name: "stop", Usage: "delete this device and clear local state", Action: runStop},
			{Name: "clear", Usage: "stop, then register a fresh device", Action: runClear},
			{Name: "state", Usage: "print the registration state", Action: runState},
			{Name: "whoami", Usage: "print the device identity", Action: runWhoami},
			{
				Name:      "set-user",
				Usage:     "bind this device to a user",
				ArgsUsage: "<user-id>",
				Action:    runSetUser,
			},
			{
				Name:      "permission",
				Usage:     "record the notification permission decision",
				ArgsUsage: "<granted|denied|default>",
				Action:    runPermission,
			},
			{
				Name:   "listen",
				Usage:  "print pushes delivered to this device until interrupted",
				Action: runListen,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: OpenFlag, Usage: "click each notification, printing its deep link"},
				},
			},
			{
				Name:  "interests",
				Usage: "manage device interests",
				Commands: []*cli.Command{
					{Name: "list", Usage: "list interests", Action: runInterestsList},
					{Name: "add", Usage: "add interests", ArgsUsage: "<interest>...", Action: runInterestsAdd},
					{Name: "remove", Usage: "remove interests", ArgsUsage: "<interest>...", Action: runInterestsRemove},
					{Name: "set", Usage: "replace all interests", ArgsUsage: "<interest>...", Action: runInterestsSet},
					{Name: "clear", Usage: "remove every interest", Action: runInterestsClear},
				},
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "beamsctl:", err)
		os.Exit(1)
	}
}
