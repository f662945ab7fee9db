package main

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/alfredjeanlab/ballot/internal/ui"
	"github.com/spf13/cobra"
)

// Profiles is the on-disk set of named ledger servers.
type Profiles struct {
	Active  string             `toml:"active"`
	Remotes map[string]Profile `toml:"remotes"`
}

// Profile says how the CLI reaches one ledger server and who it acts as
// there. Only the address matching Transport is required.
type Profile struct {
	Transport   string `toml:"transport"`
	HTTPURL     string `toml:"http_url,omitempty"`
	GRPCAddr    string `toml:"grpc_addr,omitempty"`
	Caller      string `toml:"caller,omitempty"`
	Token       string `toml:"token,omitempty"`
	NATSURL     string `toml:"nats_url,omitempty"`
	Description string `toml:"description,omitempty"`
}

// profileFromEndpoint builds a profile from a single endpoint argument. An
// http(s) URL selects the HTTP transport; anything else is a gRPC address.
func profileFromEndpoint(endpoint string) Profile {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return Profile{Transport: "http", HTTPURL: endpoint}
	}
	return Profile{Transport: "grpc", GRPCAddr: endpoint}
}

func (p Profile) validate() error {
	switch p.Transport {
	case "http":
		u, err := url.Parse(p.HTTPURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("http transport needs an http(s) URL, got %q", p.HTTPURL)
		}
	case "grpc":
		if _, _, err := net.SplitHostPort(p.GRPCAddr); err != nil {
			return fmt.Errorf("grpc transport needs a host:port address, got %q", p.GRPCAddr)
		}
	default:
		return fmt.Errorf("unknown transport %q (must be http or grpc)", p.Transport)
	}
	if p.NATSURL != "" {
		u, err := url.Parse(p.NATSURL)
		if err != nil || (u.Scheme != "nats" && u.Scheme != "tls") {
			return fmt.Errorf("nats URL must use nats:// or tls://, got %q", p.NATSURL)
		}
	}
	return nil
}

// endpoint is the address used by the profile's transport.
func (p Profile) endpoint() string {
	if p.Transport == "grpc" {
		return p.GRPCAddr
	}
	return p.HTTPURL
}

func profilesPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".local", "state", "ballot")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "remotes.toml"), nil
}

func loadProfiles() (Profiles, error) {
	path, err := profilesPath()
	if err != nil {
		return Profiles{}, err
	}
	var ps Profiles
	if _, err := toml.DecodeFile(path, &ps); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Profiles{Remotes: map[string]Profile{}}, nil
		}
		return Profiles{}, fmt.Errorf("read %s: %w", path, err)
	}
	if ps.Remotes == nil {
		ps.Remotes = map[string]Profile{}
	}
	return ps, nil
}

func saveProfiles(ps Profiles) error {
	path, err := profilesPath()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(ps); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// updateProfiles loads the profile file, applies fn and writes it back.
func updateProfiles(fn func(*Profiles) error) error {
	ps, err := loadProfiles()
	if err != nil {
		return err
	}
	if err := fn(&ps); err != nil {
		return err
	}
	return saveProfiles(ps)
}

// lookup returns the named profile, or the active one when name is empty.
func (ps Profiles) lookup(name string) (string, Profile, error) {
	if name == "" {
		name = ps.Active
	}
	if name == "" {
		return "", Profile{}, errors.New("no active remote; specify a name or run 'ballot remote use <name>'")
	}
	p, ok := ps.Remotes[name]
	if !ok {
		return "", Profile{}, fmt.Errorf("remote %q not found", name)
	}
	return name, p, nil
}

var (
	activeOnce sync.Once
	active     Profile
)

// activeProfile returns the active profile, or the zero Profile when none is
// set or the file cannot be read. It is read once per process.
func activeProfile() Profile {
	activeOnce.Do(func() {
		ps, err := loadProfiles()
		if err != nil || ps.Active == "" {
			return
		}
		active = ps.Remotes[ps.Active]
	})
	return active
}

func maskToken(tok string) string {
	if len(tok) <= 8 {
		return tok
	}
	return tok[:8] + strings.Repeat("*", len(tok)-8)
}

var remoteCmd = &cobra.Command{
	Use:     "remote",
	Short:   "Manage named ledger servers",
	GroupID: "system",
	// Remote subcommands only touch the local profile file.
	PersistentPreRunE: localCommand,
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <endpoint>",
	Short: "Add or update a named remote",
	Long: `Add or update a named remote.

An http(s) endpoint selects the HTTP transport and anything else is taken as
a gRPC host:port. Use --http-url or --grpc-addr to record the other address
as well, and --transport to pick which one is used by default.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		p := profileFromEndpoint(args[1])
		flags := cmd.Flags()
		if v, _ := flags.GetString("http-url"); v != "" {
			p.HTTPURL = v
		}
		if v, _ := flags.GetString("grpc-addr"); v != "" {
			p.GRPCAddr = v
		}
		if v, _ := flags.GetString("transport"); v != "" {
			p.Transport = v
		}
		p.Caller, _ = flags.GetString("caller")
		p.Token, _ = flags.GetString("token")
		p.NATSURL, _ = flags.GetString("nats")
		p.Description, _ = flags.GetString("description")
		if err := p.validate(); err != nil {
			return err
		}

		err := updateProfiles(func(ps *Profiles) error {
			ps.Remotes[name] = p
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "remote %q added (%s %s)\n", name, p.Transport, p.endpoint())
		return nil
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a named remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		err := updateProfiles(func(ps *Profiles) error {
			if _, _, err := ps.lookup(name); err != nil {
				return err
			}
			delete(ps.Remotes, name)
			if ps.Active == name {
				ps.Active = ""
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "remote %q removed\n", name)
		return nil
	},
}

var remoteUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Set the active remote (no args clears it)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var name string
		if len(args) == 1 {
			name = args[0]
		}
		err := updateProfiles(func(ps *Profiles) error {
			if name != "" {
				if _, _, err := ps.lookup(name); err != nil {
					return err
				}
			}
			ps.Active = name
			return nil
		})
		if err != nil {
			return err
		}
		if name == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "active remote cleared")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "active remote set to %q\n", name)
		}
		return nil
	},
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all remotes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ps, err := loadProfiles()
		if err != nil {
			return err
		}
		if len(ps.Remotes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no remotes configured")
			return nil
		}
		names := make([]string, 0, len(ps.Remotes))
		for name := range ps.Remotes {
			names = append(names, name)
		}
		slices.Sort(names)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  NAME\tTRANSPORT\tENDPOINT\tCALLER\tTOKEN")
		for _, name := range names {
			p := ps.Remotes[name]
			marker := "  "
			if name == ps.Active {
				marker = "* "
			}
			fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\t%s\n", marker, name, p.Transport, p.endpoint(), p.Caller, maskToken(p.Token))
		}
		return w.Flush()
	},
}

var remoteShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show details for a remote (defaults to active)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ps, err := loadProfiles()
		if err != nil {
			return err
		}
		var want string
		if len(args) == 1 {
			want = args[0]
		}
		name, p, err := ps.lookup(want)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		marker := ""
		if name == ps.Active {
			marker = " " + ui.RenderAccent("(active)")
		}
		fmt.Fprintf(w, "name:\t%s%s\n", name, marker)
		for _, row := range [][2]string{
			{"description", p.Description},
			{"transport", p.Transport},
			{"http_url", p.HTTPURL},
			{"grpc_addr", p.GRPCAddr},
			{"caller", p.Caller},
			{"token", maskToken(p.Token)},
			{"nats_url", p.NATSURL},
		} {
			if row[1] != "" {
				fmt.Fprintf(w, "%s:\t%s\n", row[0], row[1])
			}
		}
		return w.Flush()
	},
}

func init() {
	remoteAddCmd.Flags().String("transport", "", "default transport for this remote (http or grpc)")
	remoteAddCmd.Flags().String("http-url", "", "HTTP URL of the server")
	remoteAddCmd.Flags().String("grpc-addr", "", "gRPC host:port of the server")
	remoteAddCmd.Flags().String("caller", "", "identity to act as on this remote")
	remoteAddCmd.Flags().String("token", "", "bearer token for authentication")
	remoteAddCmd.Flags().String("nats", "", "NATS URL for watch")
	remoteAddCmd.Flags().String("description", "", "human-readable description of the remote")

	remoteCmd.AddCommand(remoteAddCmd)
	remoteCmd.AddCommand(remoteRemoveCmd)
	remoteCmd.AddCommand(remoteListCmd)
	remoteCmd.AddCommand(remoteUseCmd)
	remoteCmd.AddCommand(remoteShowCmd)
}
