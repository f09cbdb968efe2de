package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/deesatzed/newragcity-sub001/configs"
	"github.com/deesatzed/newragcity-sub001/internal/config"
	"github.com/deesatzed/newragcity-sub001/internal/ui"
)

func newInitCmd() *cobra.Command {
	var (
		user  bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration template",
		Long: `Write a commented configuration template.

By default this creates .ragcity.yaml in the current directory with
project-level settings (fusion weights, BM25 parameters, calibration).
With --user it creates the machine-level config at
~/.config/ragcity/config.yaml instead (embedder, reranker endpoint).`,
		Example: `  # Project config in the current directory
  ragcity init

  # Machine-level config
  ragcity init --user`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, user, force)
		},
	}

	cmd.Flags().BoolVar(&user, "user", false, "Write the user config instead of the project config")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func runInit(cmd *cobra.Command, user, force bool) error {
	renderer := ui.NewRenderer(cmd.OutOrStdout())

	path := config.ProjectConfigName
	template := configs.ProjectConfigTemplate
	if user {
		path = config.GetUserConfigPath()
		template = configs.UserConfigTemplate
	}

	if _, err := os.Stat(path); err == nil {
		if !force {
			err = fmt.Errorf("%s already exists (use --force to overwrite)", path)
			renderer.Error(err)
			return err
		}
		if user {
			backup, err := config.BackupUserConfig()
			if err != nil {
				renderer.Error(err)
				return err
			}
			if backup != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "backed up existing config to %s\n", backup)
			}
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			renderer.Error(err)
			return err
		}
	}
	if err := os.WriteFile(path, []byte(template), 0o644); err != nil {
		renderer.Error(err)
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
