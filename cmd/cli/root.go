package main

import (
	"context"
	"time"

	"github.com/dmitrijs2005/postboard/internal/client/cli"
	"github.com/dmitrijs2005/postboard/internal/client/config"
	"github.com/spf13/cobra"
)

// rootFlags are the global flags available to all subcommands.
type rootFlags struct {
	configFile string
	serverURL  string
	timeout    time.Duration
}

// loadConfig applies defaults, the JSON file, then explicitly set flags.
func (f *rootFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("server") {
		cfg.ServerURL = f.serverURL
	}
	if cmd.Flags().Changed("timeout") {
		cfg.RequestTimeout = f.timeout
	}
	return cfg, cfg.Validate()
}

// NewRootCmd creates the root command. Without a subcommand it starts the
// interactive shell.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:          "postboard",
		Short:        "postboard CLI",
		Long:         `Interactive client for the postboard REST API: register, log in, publish and browse posts.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}
			cli.NewApp(cfg, cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file path")
	cmd.PersistentFlags().StringVarP(&flags.serverURL, "server", "s", "", "server base URL")
	cmd.PersistentFlags().DurationVar(&flags.timeout, "timeout", 0, "per-request timeout")

	cmd.AddCommand(newPostsCmd(flags))
	cmd.AddCommand(newHealthCmd(flags))

	return cmd
}

// newPostsCmd lists posts without entering the shell.
func newPostsCmd(flags *rootFlags) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List recent posts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}
			app := cli.NewApp(cfg, cmd.InOrStdin(), cmd.OutOrStdout())
			posts, err := app.Client().ListPosts(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			return cli.PrintPosts(cmd.OutOrStdout(), posts)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "page size (server default when 0)")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of posts to skip")

	return cmd
}

func newHealthCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is up",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()
			if err := cli.NewApp(cfg, cmd.InOrStdin(), cmd.OutOrStdout()).Client().Health(ctx); err != nil {
				return err
			}
			cmd.Println("ok")
			return nil
		},
	}
}
