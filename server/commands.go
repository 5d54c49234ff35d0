package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/an1noX/techpinoyv3-sub002/common/config"
	"github.com/an1noX/techpinoyv3-sub002/common/model"
	"github.com/an1noX/techpinoyv3-sub002/server/handlers"
	"github.com/an1noX/techpinoyv3-sub002/server/storage"
	"github.com/an1noX/techpinoyv3-sub002/server/tonerwiki"
)

const defaultConfigName = "config.toml"

func newRootCmd() *cobra.Command {
	var configFlag string

	cmd := &cobra.Command{
		Use:          "fleet-server",
		Short:        "PrintFleet printer rental registry server",
		Version:      Version,
		SilenceUsage: true,
		RunE: func(c *cobra.Command, _ []string) error {
			return runForeground(c.Context(), resolveConfigPath(configFlag))
		},
	}
	cmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "path to config.toml (env FLEET_CONFIG)")

	cmd.AddCommand(
		newRunCmd(&configFlag),
		newServiceCmd(&configFlag),
		newConfigCmd(&configFlag),
		newTonersCmd(&configFlag),
		newAPIKeyCmd(),
		newHealthCmd(&configFlag),
	)
	return cmd
}

// resolveConfigPath applies env overrides, then the search path, then
// ./config.toml.
func resolveConfigPath(flagValue string) string {
	if p := config.ResolveConfigPath(envPrefix, flagValue); p != "" {
		return p
	}
	if p, _, err := config.FindConfigFile(defaultConfigName, "server"); err == nil {
		return p
	}
	return defaultConfigName
}

func runForeground(parent context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(contextOrBackground(parent), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runFromConfig(ctx, configPath, false)
}

func newRunCmd(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the server in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runForeground(c.Context(), resolveConfigPath(*configFlag))
		},
	}
}

func newServiceCmd(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the PrintFleet Server OS service",
	}

	servicePath := func() string {
		if p := config.ResolveConfigPath(envPrefix, *configFlag); p != "" {
			return p
		}
		return serviceConfigPath()
	}

	control := func(use, short string, action func(service.Service) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, _ []string) error {
				s, err := newService(servicePath())
				if err != nil {
					return err
				}
				if err := action(s); err != nil {
					return fmt.Errorf("service %s: %w", use, err)
				}
				fmt.Fprintf(c.OutOrStdout(), "service %s: ok\n", use)
				return nil
			},
		}
	}

	cmd.AddCommand(
		control("install", "Install the service and write a default config", func(s service.Service) error {
			if err := setupServiceDirectories(servicePath()); err != nil {
				return err
			}
			return s.Install()
		}),
		control("uninstall", "Remove the service", func(s service.Service) error { return s.Uninstall() }),
		control("start", "Start the installed service", func(s service.Service) error { return s.Start() }),
		control("stop", "Stop the running service", func(s service.Service) error { return s.Stop() }),
		control("restart", "Restart the running service", func(s service.Service) error { return s.Restart() }),
		&cobra.Command{
			Use:    "run",
			Short:  "Entry point used by the service manager",
			Args:   cobra.NoArgs,
			Hidden: true,
			RunE: func(_ *cobra.Command, _ []string) error {
				s, err := newService(servicePath())
				if err != nil {
					return err
				}
				return s.Run()
			},
		},
	)
	return cmd
}

func newConfigCmd(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config file (never overwrites)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			path := defaultConfigName
			if len(args) == 1 {
				path = args[0]
			} else if *configFlag != "" {
				path = *configFlag
			}
			if err := WriteDefaultConfig(path); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			path := resolveConfigPath(*configFlag)
			cfg, tracker, err := LoadConfig(path)
			if err != nil {
				return err
			}
			out := c.OutOrStdout()
			fmt.Fprintf(out, "# source: %s\n", path)
			for _, key := range tracker.Keys() {
				fmt.Fprintf(out, "# %s set from environment\n", key)
			}
			return toml.NewEncoder(out).Encode(cfg)
		},
	})
	return cmd
}

func newTonersCmd(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toners",
		Short: "Work with the toner catalogue",
	}

	var strict bool
	importCmd := &cobra.Command{
		Use:   "import <file|url>",
		Short: "Import a toner wiki dump (JSON or YAML) into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg, _, err := LoadConfig(resolveConfigPath(*configFlag))
			if err != nil {
				return err
			}
			if err := resolveDatabase(&cfg.Database, false); err != nil {
				return err
			}
			dump, err := loadDump(c.Context(), args[0])
			if err != nil {
				return err
			}
			store, err := storage.NewStore(&cfg.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			report, importErr := tonerwiki.NewImporter(store, componentLogger{component: "tonerwiki"}).
				Import(contextOrBackground(c.Context()), dump, policyFlag(strict))
			if report != nil {
				if err := writeIndentedJSON(c.OutOrStdout(), report); err != nil {
					return err
				}
			}
			return importErr
		},
	}
	importCmd.Flags().BoolVar(&strict, "strict", false, "reject the whole dump when any record is invalid")

	var convertStrict bool
	convertCmd := &cobra.Command{
		Use:   "convert <file|url>",
		Short: "Print a dump converted to catalogue records without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			dump, err := loadDump(c.Context(), args[0])
			if err != nil {
				return err
			}
			if err := dump.CheckSchema(); err != nil {
				return err
			}
			out, rejected := model.RenderToners(dump.Toners, policyFlag(convertStrict), func(ts []model.TonerType) []model.TonerType {
				return ts
			})
			for _, r := range rejected {
				fmt.Fprintf(c.ErrOrStderr(), "rejected: %v\n", r)
			}
			if convertStrict && len(rejected) > 0 {
				return fmt.Errorf("%d of %d records rejected", len(rejected), len(dump.Toners))
			}
			return writeIndentedJSON(c.OutOrStdout(), out)
		},
	}
	convertCmd.Flags().BoolVar(&convertStrict, "strict", false, "fail when any record is invalid")

	cmd.AddCommand(importCmd, convertCmd)
	return cmd
}

func loadDump(ctx context.Context, src string) (*tonerwiki.Dump, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return tonerwiki.Fetch(contextOrBackground(ctx), src)
	}
	return tonerwiki.LoadFile(src)
}

func policyFlag(strict bool) model.ConversionPolicy {
	if strict {
		return model.PolicyStrict
	}
	return model.PolicyPartial
}

func newAPIKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "hash",
		Short: "Read an API key on stdin and print its argon2id hash for security.api_key_hashes",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			key, err := readSecret(c.InOrStdin())
			if err != nil {
				return err
			}
			hash, err := hashArgon(key)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), hash)
			return nil
		},
	})
	return cmd
}

// readSecret returns the first line of r without surrounding whitespace.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return "", errors.New("empty API key on stdin")
	}
	return key, nil
}

func newHealthCmd(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the local server's /health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, _, err := LoadConfig(resolveConfigPath(*configFlag))
			if err != nil {
				return err
			}
			tlsCfg := cfg.ToTLSConfig()
			port := cfg.Server.HTTPPort
			if tlsCfg.Enabled() {
				port = cfg.Server.HTTPSPort
			}
			if err := handlers.RunHealthCheck(handlers.HealthCheckConfig{Port: port, TLS: tlsCfg.Enabled()}); err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), "healthy")
			return nil
		},
	}
}

func writeIndentedJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
