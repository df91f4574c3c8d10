package main

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/musui/musui-server/internal/client"
	"github.com/musui/musui-server/internal/localstore"
	"github.com/musui/musui-server/internal/logger"
)

var Version = "dev"

// cliConfig is read from MUSUI_* variables; flags override it.
type cliConfig struct {
	ServerURL string `envconfig:"SERVER_URL" default:"http://localhost:8080"`
	Token     string `envconfig:"TOKEN"`
	DeviceID  string `envconfig:"DEVICE_ID"`
	Offline   bool   `envconfig:"OFFLINE" default:"false"`
}

// app holds what every subcommand needs. The local store lives for the
// process only.
type app struct {
	cfg      cliConfig
	verbose  bool
	log      zerolog.Logger
	client   *client.Client
	recorder *client.Recorder
}

func (a *app) init(cmd *cobra.Command, _ []string) error {
	a.log = logger.NewConsole("musui")
	level := "warn"
	if a.verbose {
		level = "debug"
	}
	a.log = logger.SetGlobal(a.log, level)

	var remote client.Remote
	if !a.cfg.Offline {
		c, err := client.New(a.cfg.ServerURL,
			client.WithToken(a.cfg.Token),
			client.WithDeviceID(a.cfg.DeviceID),
			client.WithLogger(a.log),
		)
		if err != nil {
			return err
		}
		a.client = c
		remote = c
	}
	a.recorder = client.NewRecorder(remote, localstore.New(), a.log)
	return nil
}

// requireClient fails commands that only make sense against a server.
func (a *app) requireClient() (*client.Client, error) {
	if a.client == nil {
		return nil, fmt.Errorf("this command needs a server; drop --offline")
	}
	return a.client, nil
}

func main() {
	a := &app{}
	if err := envconfig.Process("MUSUI", &a.cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:               "musui",
		Short:             "musui - guided tea sessions and tasting archives",
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfg.ServerURL, "server", a.cfg.ServerURL, "API server URL (MUSUI_SERVER_URL)")
	pf.StringVar(&a.cfg.Token, "token", a.cfg.Token, "bearer token (MUSUI_TOKEN)")
	pf.StringVar(&a.cfg.DeviceID, "device", a.cfg.DeviceID, "device id for local archives (MUSUI_DEVICE_ID)")
	pf.BoolVar(&a.cfg.Offline, "offline", a.cfg.Offline, "keep everything in this process")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging on stderr")

	rootCmd.AddCommand(brewCmd(a))
	rootCmd.AddCommand(archivesCmd(a))
	rootCmd.AddCommand(feedCmd(a))
	rootCmd.AddCommand(profileCmd(a))
	rootCmd.AddCommand(coursesCmd(a))
	rootCmd.AddCommand(whoamiCmd(a))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
