package main

import (
	"context"
	"fmt"
	"os"

	"codesync-go/internal/app"
	"codesync-go/internal/codesync"
	"codesync-go/internal/config"
	"codesync-go/internal/migration"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "ConnectRepo", "Migrate").
func newApp(ctx context.Context, operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.New(ctx, cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// withApp runs fn against a fresh App and records a failure on the operation.
func withApp(cmd *cobra.Command, operation string, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, operation)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fn(ctx, a); err != nil {
		a.Fail(err)
		return err
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "codesync",
	Short: "Local state for the codesync client",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		clientID := codesync.UUIDGenerator{}.New()
		cfg := config.NewConfig(clientID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Client ID: %s\n", clientID)
		fmt.Printf("Base Dir:  %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Client ID:     %s\n", cfg.ClientID)
		fmt.Printf("Base Dir:      %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:       %s\n", cfg.LogDir)
		fmt.Printf("Database:      %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Legacy Config: %s\n", cfg.Legacy.ConfigPath)
		fmt.Printf("Legacy Users:  %s\n", cfg.Legacy.UserPath)
		return nil
	},
}

// migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Import legacy state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "Migrate", func(ctx context.Context, a *app.App) error {
			res, err := a.Migrate(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			for _, tr := range res.Tables {
				line := fmt.Sprintf("%-12s %-9s saved=%d dropped=%d", tr.Table, tr.Outcome, tr.Saved, tr.Dropped)
				if tr.Dropped > 0 {
					line += fmt.Sprintf(" dropped=%d", tr.Dropped)
				}
				if tr.Outcome == migration.OutcomeFailed {
					line += fmt.Sprintf(" error=%v", tr.Err)
				}
				fmt.Println(line)
			}
			if !res.Complete() {
				return fmt.Errorf("migration incomplete, run again once the legacy files are fixed")
			}
			return nil
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "View migration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "MigrationStatus", func(ctx context.Context, a *app.App) error {
			tables, schema, err := a.MigrationStatus(ctx)
			if err != nil {
				return err
			}
			for _, st := range tables {
				state := "NOT STARTED"
				if st.Started {
					state = string(st.State)
				}
				fmt.Printf("%-12s %s\n", st.Table, state)
			}
			dirty := ""
			if schema.Dirty {
				dirty = " (dirty)"
			}
			fmt.Printf("schema       %d/%d%s\n", schema.Version, schema.Latest, dirty)
			return nil
		})
	},
}

// user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage the logged-in user",
}

var userShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "ActiveUser", func(ctx context.Context, a *app.App) error {
			u, err := a.ActiveUser(ctx)
			if err != nil {
				return err
			}
			if u == nil {
				fmt.Println("Not logged in.")
				return nil
			}
			fmt.Printf("Email:      %s\n", u.Email)
			fmt.Printf("Access Key: %s\n", present(u.AccessKey != nil))
			fmt.Printf("Secret Key: %s\n", present(u.SecretKey != nil))
			return nil
		})
	},
}

var userLoginCmd = &cobra.Command{
	Use:   "login EMAIL",
	Short: "Store credentials and make the user active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		accessKey, _ := cmd.Flags().GetString("access-key")
		secretKey, _ := cmd.Flags().GetString("secret-key")

		return withApp(cmd, "Login", func(ctx context.Context, a *app.App) error {
			u, err := a.Login(ctx, args[0], token, accessKey, secretKey)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			fmt.Printf("Logged in as %s\n", u.Email)
			return nil
		})
	},
}

// repo command
var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage connected repos",
}

var repoShowCmd = &cobra.Command{
	Use:   "show [PATH]",
	Short: "Show a repo and its branches",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "GetRepo", func(ctx context.Context, a *app.App) error {
			repo, branches, err := a.GetRepo(ctx, pathArg(args))
			if err != nil {
				return err
			}
			fmt.Printf("Path:      %s\n", repo.Path)
			fmt.Printf("Name:      %s\n", repo.Name)
			fmt.Printf("State:     %s\n", repo.State)
			if repo.ServerRepoID != nil {
				fmt.Printf("Server ID: %d\n", *repo.ServerRepoID)
			}
			for _, b := range branches {
				fmt.Printf("Branch:    %s\n", b.Name)
			}
			return nil
		})
	},
}

var repoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List repos",
	RunE: func(cmd *cobra.Command, args []string) error {
		mine, _ := cmd.Flags().GetBool("mine")

		return withApp(cmd, "ListRepos", func(ctx context.Context, a *app.App) error {
			repos, err := a.ListRepos(ctx, mine)
			if err != nil {
				return err
			}
			if len(repos) == 0 {
				fmt.Println("No repos connected.")
				return nil
			}
			for _, r := range repos {
				fmt.Printf("%-12s %s\n", r.State, r.Path)
			}
			return nil
		})
	},
}

var repoConnectCmd = &cobra.Command{
	Use:   "connect [PATH]",
	Short: "Connect a repo for the active user",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		branch, _ := cmd.Flags().GetString("branch")
		serverID, _ := cmd.Flags().GetInt64("server-id")

		return withApp(cmd, "ConnectRepo", func(ctx context.Context, a *app.App) error {
			repo, err := a.ConnectRepo(ctx, pathArg(args), serverID, branch)
			if err != nil {
				return fmt.Errorf("connecting repo: %w", err)
			}
			fmt.Printf("Connected %s on branch %s\n", repo.Path, branch)
			return nil
		})
	},
}

var repoDisconnectCmd = &cobra.Command{
	Use:   "disconnect [PATH]",
	Short: "Disconnect a repo",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "DisconnectRepo", func(ctx context.Context, a *app.App) error {
			repo, err := a.DisconnectRepo(ctx, pathArg(args))
			if err != nil {
				return fmt.Errorf("disconnecting repo: %w", err)
			}
			fmt.Printf("Disconnected %s\n", repo.Path)
			return nil
		})
	},
}

// file command
var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Inspect tracked files",
}

var fileShowCmd = &cobra.Command{
	Use:   "show FILE",
	Short: "Show the server id of a tracked file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoPath, _ := cmd.Flags().GetString("repo")
		branch, _ := cmd.Flags().GetString("branch")

		return withApp(cmd, "GetFile", func(ctx context.Context, a *app.App) error {
			f, err := a.GetFile(ctx, repoPath, branch, args[0])
			if err != nil {
				return err
			}
			if f == nil {
				fmt.Println("File is not tracked.")
				return nil
			}
			if f.ServerFileID == nil {
				fmt.Printf("%s  (no server id yet)\n", f.Path)
				return nil
			}
			fmt.Printf("%s  %d\n", f.Path, *f.ServerFileID)
			return nil
		})
	},
}

func pathArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func present(ok bool) string {
	if ok {
		return "set"
	}
	return "not set"
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// migrate subcommands
	migrateCmd.AddCommand(migrateStatusCmd)

	// user subcommands
	userCmd.AddCommand(userShowCmd)
	userCmd.AddCommand(userLoginCmd)
	userLoginCmd.Flags().String("token", "", "Access token")
	userLoginCmd.Flags().String("access-key", "", "IAM access key")
	userLoginCmd.Flags().String("secret-key", "", "IAM secret key")
	userLoginCmd.MarkFlagRequired("token")

	// repo subcommands
	repoCmd.AddCommand(repoShowCmd)
	repoCmd.AddCommand(repoListCmd)
	repoListCmd.Flags().Bool("mine", false, "Only repos of the active user")
	repoCmd.AddCommand(repoConnectCmd)
	repoConnectCmd.Flags().StringP("branch", "b", "main", "Branch to track")
	repoConnectCmd.Flags().Int64("server-id", 0, "Server repo id, if already known")
	repoCmd.AddCommand(repoDisconnectCmd)

	// file subcommands
	fileCmd.AddCommand(fileShowCmd)
	fileShowCmd.Flags().String("repo", ".", "Repo path")
	fileShowCmd.Flags().StringP("branch", "b", "main", "Branch name")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(repoCmd)
	rootCmd.AddCommand(fileCmd)
}
