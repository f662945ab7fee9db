package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/alfredjeanlab/ballot/internal/client"
	"github.com/alfredjeanlab/ballot/internal/ui"
	"github.com/spf13/cobra"
)

var (
	serverAddr string
	httpURL    string
	transport  string
	token      string
	jsonOutput bool
	noColor    bool
	actor      string

	ledgerClient client.LedgerClient
)

// The defaults below prefer the environment, then the active remote.

func defaultActor() string {
	if s := os.Getenv("BALLOT_ACTOR"); s != "" {
		return s
	}
	if c := activeProfile().Caller; c != "" {
		return c
	}
	out, err := exec.Command("git", "config", "user.name").Output()
	if err == nil {
		name := strings.TrimSpace(string(out))
		if name != "" {
			return name
		}
	}
	return ""
}

func defaultTransport() string {
	if s := os.Getenv("BALLOT_TRANSPORT"); s != "" {
		return s
	}
	if t := activeProfile().Transport; t != "" {
		return t
	}
	return "http"
}

func defaultHTTPURL() string {
	if s := os.Getenv("BALLOT_HTTP_URL"); s != "" {
		return s
	}
	if u := activeProfile().HTTPURL; u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultServer() string {
	if s := os.Getenv("BALLOT_SERVER"); s != "" {
		return s
	}
	if a := activeProfile().GRPCAddr; a != "" {
		return a
	}
	return "localhost:9090"
}

func defaultToken() string {
	if s := os.Getenv("BALLOT_TOKEN"); s != "" {
		return s
	}
	return activeProfile().Token
}

// newClient builds the client for the selected transport.
func newClient() (client.LedgerClient, error) {
	creds := client.Credentials{Token: token, Caller: actor}
	switch transport {
	case "http":
		return client.NewHTTPClient(httpURL, creds), nil
	case "grpc":
		c, err := client.NewGRPCClient(serverAddr, creds)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to server: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown transport %q (must be http or grpc)", transport)
	}
}

var rootCmd = &cobra.Command{
	Use:           "ballot <command>",
	Short:         "CLI client for the ballot event ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configureColor()
		c, err := newClient()
		if err != nil {
			return err
		}
		ledgerClient = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if ledgerClient != nil {
			ledgerClient.Close()
		}
	},
}

// localCommand skips client construction for commands that never dial.
func localCommand(cmd *cobra.Command, args []string) error {
	configureColor()
	return nil
}

// configureColor turns styling off when --no-color is set or stdout is not
// a color terminal.
func configureColor() {
	if noColor || !ui.ShouldUseColor() {
		ui.ForceNoColor()
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", defaultServer(), "gRPC server address")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", defaultTransport(), "transport protocol (http or grpc)")
	rootCmd.PersistentFlags().StringVar(&token, "token", defaultToken(), "bearer token for authentication")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", defaultActor(), "caller identity sent with mutations")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "ledger", Title: "Ledger:"},
		&cobra.Group{ID: "views", Title: "Views:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Ledger
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(voteCmd)

	// Views
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(votesCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(exportCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		msg := fmt.Sprintf("Error: %v", err)
		if !noColor && ui.ShouldUseColorStderr() {
			msg = ui.RenderError(msg)
		}
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
}
