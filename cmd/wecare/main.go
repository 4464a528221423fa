package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/wecare/internal/client/app"
	"github.com/dmitrijs2005/wecare/internal/client/cli"
	"github.com/dmitrijs2005/wecare/internal/client/config"
	"github.com/dmitrijs2005/wecare/internal/client/models"
	"github.com/dmitrijs2005/wecare/internal/client/refresher"
	"github.com/dmitrijs2005/wecare/internal/client/ui"
	"github.com/dmitrijs2005/wecare/internal/devserver"
	"github.com/dmitrijs2005/wecare/internal/logging"
)

var flags *config.Flags

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, logging.Logger, error) {
	cfg, err := flags.Resolve()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// newApp resolves the config and opens the device core. The caller must defer
// app.Close().
func newApp(ctx context.Context) (*app.App, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, app.Options{Log: log, Notifier: ui.NewConsole(os.Stdout)})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var errOffline = errors.New("the WeCare service cannot be reached")

var rootCmd = &cobra.Command{
	Use:           "wecare",
	Short:         "Offline-first WeCare device core",
	SilenceUsage:  true,
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive shell",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		a.Start(cmd.Context())
		cli.NewShell(a, os.Stdin, os.Stdout).Run(cmd.Context())
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Send pending consultations to the service",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.ProbeOnce(cmd.Context()) {
			return errOffline
		}
		_, err = a.Consultations.SyncNow(cmd.Context())
		return err
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh [domain...]",
	Short: "Refresh the local reference mirrors",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.ProbeOnce(cmd.Context()) {
			return errOffline
		}

		var outcomes []refresher.Outcome
		if len(args) == 0 {
			outcomes = a.Refresher.RefreshAll(cmd.Context())
		} else {
			for _, s := range args {
				d, err := models.ParseDomain(s)
				if err != nil {
					return err
				}
				n, err := a.Refresher.Refresh(cmd.Context(), d)
				outcomes = append(outcomes, refresher.Outcome{Domain: d, Entities: n, Err: err})
			}
		}

		for _, o := range outcomes {
			if o.Err != nil {
				fmt.Printf("%-10s failed: %v\n", o.Domain, o.Err)
				continue
			}
			fmt.Printf("%-10s %d entries\n", o.Domain, o.Entities)
		}
		return refresher.Failed(outcomes)
	},
}

var consultCmd = &cobra.Command{
	Use:   "consult <symptoms...>",
	Short: "Submit symptoms and print the assessment",
	RunE: func(cmd *cobra.Command, args []string) error {
		image, _ := cmd.Flags().GetString("image")
		useHistory, _ := cmd.Flags().GetBool("use-history")

		sub := models.Submission{Symptoms: strings.Join(args, " "), UseHistory: useHistory}
		if image != "" {
			b, err := os.ReadFile(image)
			if err != nil {
				return err
			}
			sub.Media, sub.MediaName = b, filepath.Base(image)
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		a.ProbeOnce(cmd.Context())
		c, err := a.Consultations.Submit(cmd.Context(), sub)
		if err != nil {
			return err
		}

		fmt.Printf("Priority: %s\n", strings.ToUpper(c.Result.Priority.String()))
		fmt.Printf("Recommended specialist: %s\n\n%s\n", c.Result.Specialization, c.Result.Response)
		return nil
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the response cache",
}

var cacheInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Precache the application shell and drop older generations",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.InstallCache(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Generation %s installed (%d resources)\n", a.Config.CacheVersion, len(a.Config.PrecacheManifest))
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <path>",
	Short: "Read a resource through the response cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(res.Body)
		return err
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := flags.Resolve()
		if err != nil {
			return err
		}
		return cfg.WriteTOML(os.Stdout)
	},
}

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run the in-memory WeCare service for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		secret := []byte(os.Getenv("WECARE_DEV_SECRET"))
		return devserver.New(devserver.Options{Secret: secret, Log: log}).ListenAndServe(cmd.Context(), cfg.DevServerAddr)
	},
}

func init() {
	flags = config.Bind(rootCmd.PersistentFlags())

	consultCmd.Flags().String("image", "", "attach an image file (needs a connection)")
	consultCmd.Flags().Bool("use-history", false, "let the service use earlier consultations")

	cacheCmd.AddCommand(cacheInstallCmd)

	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(consultCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(devserverCmd)
}
