package main

import (
	"time"

	"github.com/urfave/cli/v3"

	"github.com/pushbeams/beams-device/internal/config"
)

const (
	ConfigFlag     = "config"
	InstanceIDFlag = "instance-id"
	EndpointFlag   = "endpoint"
	DBPathFlag     = "db"
	RelayURLFlag   = "relay-url"
	AuthURLFlag    = "auth-url"
	LogLevelFlag   = "log-level"
	TimeoutFlag    = "timeout"
	OpenFlag       = "open"
)

var rootFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  ConfigFlag,
		Usage: "path to the beamsctl yaml config",
		Value: config.DefaultCLIPath(),
	},
	&cli.StringFlag{
		Name:  InstanceIDFlag,
		Usage: "beams instance id",
	},
	&cli.StringFlag{
		Name:  EndpointFlag,
		Usage: "registrar base url, defaults to https://<instance>.pushnotifications.pusher.com",
	},
	&cli.StringFlag{
		Name:  DBPathFlag,
		Usage: "sqlite file holding device state",
	},
	&cli.StringFlag{
		Name:  RelayURLFlag,
		Usage: "push relay base url for the local subscription manager",
	},
	&cli.StringFlag{
		Name:  AuthURLFlag,
		Usage: "token provider url used by set-user",
	},
	&cli.StringFlag{
		Name:  LogLevelFlag,
		Usage: "debug, info, warn or error",
	},
	&cli.DurationFlag{
		Name:  TimeoutFlag,
		Usage: "registrar request timeout",
		Value: 10 * time.Second,
	},
}

// loadConfig layers flags over the yaml file and environment.
func loadConfig(cmd *cli.Command) (config.CLI, error) {
	cfg, err := config.LoadCLI(cmd.String(ConfigFlag))
	if err != nil {
		return config.CLI{}, err
	}
	if cmd.IsSet(InstanceIDFlag) {
		cfg.InstanceID = cmd.String(InstanceIDFlag)
	}
	if cmd.IsSet(EndpointFlag) {
		cfg.Endpoint = cmd.String(EndpointFlag)
		if !cmd.IsSet(RelayURLFlag) {
			cfg.RelayURL = cfg.Endpoint
		}
	}
	if cmd.IsSet(DBPathFlag) {
		cfg.DBPath = cmd.String(DBPathFlag)
	}
	if cmd.IsSet(RelayURLFlag) {
		cfg.RelayURL = cmd.String(RelayURLFlag)
	}
	if cmd.IsSet(AuthURLFlag) {
		cfg.Auth.URL = cmd.String(AuthURLFlag)
	}
	if cmd.IsSet(LogLevelFlag) {
		cfg.LogLevel = cmd.String(LogLevelFlag)
	}
	if cmd.IsSet(TimeoutFlag) {
		cfg.Timeout = cmd.Duration(TimeoutFlag)
	}
	return cfg, nil
}
