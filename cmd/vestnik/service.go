package main

import (
	"fmt"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/vestnik-bot/vestnik/pkg/app"
)

// program adapts the application loop to the service manager interface.
type program struct {
	configPath string
	envFile    string
	errCh      chan error
}

func (p *program) Start(_ service.Service) error {
	p.errCh = make(chan error, 1)
	go func() {
		p.errCh <- app.Run(app.RunParams{
			ConfigPath: p.configPath,
			EnvFile:    p.envFile,
			Version:    version,
			Commit:     commit,
			Date:       date,
		})
	}()
	return nil
}

func (p *program) Stop(_ service.Service) error {
	// app.Run exits on SIGTERM, which the service manager sends on stop.
	return nil
}

// serviceCmd manages the system service (systemd, launchd, Windows SCM).
func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "service <install|uninstall|start|stop|restart|run>",
		Short:     "Manage the vestnik system service",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"install", "uninstall", "start", "stop", "restart", "run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			envFile, _ := cmd.Flags().GetString("env-file")

			svcConfig := &service.Config{
				Name:        "vestnik",
				DisplayName: "Vestnik community bot",
				Description: "Telegram submission and moderation bot",
				Arguments:   serviceArguments(cfgPath, envFile),
			}

			prg := &program{configPath: cfgPath, envFile: envFile}
			svc, err := service.New(prg, svcConfig)
			if err != nil {
				return fmt.Errorf("creating service: %w", err)
			}

			action := args[0]
			if action == "run" {
				return svc.Run()
			}
			if err := service.Control(svc, action); err != nil {
				return fmt.Errorf("service %s: %w", action, err)
			}
			fmt.Printf("Service %s: done\n", action)
			return nil
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	cmd.Flags().String("env-file", "", "Path to dotenv file with secrets")
	return cmd
}

func serviceArguments(cfgPath, envFile string) []string {
	args := []string{"service", "run"}
	if cfgPath != "" {
		args = append(args, "--config", cfgPath)
	}
	if envFile != "" {
		args = append(args, "--env-file", envFile)
	}
	return args
}
