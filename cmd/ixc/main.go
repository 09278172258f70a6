// Command ixc is an interactive AI chat loop for Cisco IOS-XE devices: the
// operator asks questions in natural language, the model gathers facts by
// running show commands over SSH, and answers or proposes configuration
// changes for review.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/netop-tools/ixc/controller"
	"github.com/netop-tools/ixc/device"
	"github.com/netop-tools/ixc/observability"
)

const (
	envUsername = "IXC_USERNAME"
	envPassword = "IXC_PASSWORD"
)

var (
	flagConfig   string
	flagModel    string
	flagUsername string
	flagPassword string
	flagEnv      bool
	flagPort     int
	flagMemory   string
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "ixc <host>",
	Short: "AI chat control loop for IOS-XE devices",
	Long: `ixc opens an SSH session to an IOS-XE device and an interactive chat
with a language model. The model gathers facts by requesting show commands,
answers in markdown, and proposes configuration changes that are applied
only after operator confirmation. Type /m inside the session for the
meta-command menu.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&flagConfig, "config", "f", "", "path to a JSON config file")
	rootCmd.Flags().StringVarP(&flagModel, "model", "m", "", "initial model id")
	rootCmd.Flags().StringVarP(&flagUsername, "username", "u", "", "device username")
	rootCmd.Flags().StringVarP(&flagPassword, "password", "p", "", "device password (prefer --env or the prompt)")
	rootCmd.Flags().BoolVarP(&flagEnv, "env", "e", false, "read credentials from "+envUsername+" and "+envPassword)
	rootCmd.Flags().IntVar(&flagPort, "port", 0, "device SSH port")
	rootCmd.Flags().StringVar(&flagMemory, "memory", "", "path to the prompt/usage store directory")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose event logging to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ixc:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Device.Host = args[0]
	if flagPort > 0 {
		cfg.Device.Port = flagPort
	}
	if flagModel != "" {
		cfg.Model = flagModel
	}
	if flagMemory != "" {
		cfg.Memory.Path = flagMemory
	}

	username, password, err := credentials()
	if err != nil {
		return err
	}
	cfg.Device.Username = username

	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	observer := observability.NewSlogObserver(logger)
	observability.RegisterObserver("stderr", observer)

	fmt.Printf("connecting to %s ...\n", cfg.Device.Host)
	ex, err := device.DialSSH(cfg.Device, password)
	if err != nil {
		return fmt.Errorf("connect to device: %w", err)
	}
	defer ex.Close()

	presenter := newTerminalPresenter(os.Stdin, os.Stdout, os.Stderr)

	ctrl, err := controller.New(cfg,
		controller.WithDevice(ex),
		controller.WithPresenter(presenter),
		controller.WithObserver(observer),
	)
	if err != nil {
		return err
	}

	return repl(ctrl, ex, presenter)
}

func loadConfig() (*controller.Config, error) {
	if flagConfig == "" {
		cfg := controller.DefaultConfig()
		return &cfg, nil
	}
	return controller.LoadConfig(flagConfig)
}

// credentials resolves the device login from --env, flags, or interactive
// prompts, in that order. The password never echoes.
func credentials() (username, password string, err error) {
	if flagEnv {
		username = os.Getenv(envUsername)
		password = os.Getenv(envPassword)
		if username == "" || password == "" {
			return "", "", fmt.Errorf("--env requires %s and %s to be set", envUsername, envPassword)
		}
		return username, password, nil
	}

	username = flagUsername
	if username == "" {
		fmt.Print("username: ")
		if _, err := fmt.Scanln(&username); err != nil {
			return "", "", fmt.Errorf("read username: %w", err)
		}
	}

	password = flagPassword
	if password == "" {
		fmt.Print("password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", "", fmt.Errorf("read password: %w", err)
		}
		password = string(raw)
	}

	return username, password, nil
}
