package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"
)

type commandContext struct {
	configFlag *string
	apiFlag    *string
	ownerFlag  *string

	configOnce sync.Once
	config     cliConfig
	configErr  error
}

func (c *commandContext) ensureConfig() (cliConfig, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}

		cfg, err := loadConfig(path)
		if err != nil {
			c.configErr = err
			return
		}

		if c.apiFlag != nil && strings.TrimSpace(*c.apiFlag) != "" {
			cfg.APIURL = strings.TrimSpace(*c.apiFlag)
		}
		if c.ownerFlag != nil && strings.TrimSpace(*c.ownerFlag) != "" {
			cfg.Owner = strings.TrimSpace(*c.ownerFlag)
		}

		c.config = cfg
	})

	return c.config, c.configErr
}

func (c *commandContext) client() (*apiClient, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	return newAPIClient(cfg.APIURL), nil
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var apiFlag string
	var ownerFlag string

	ctx := &commandContext{
		configFlag: &configFlag,
		apiFlag:    &apiFlag,
		ownerFlag:  &ownerFlag,
	}

	rootCmd := &cobra.Command{
		Use:           "photoctl",
		Short:         "Photoflow command line client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&apiFlag, "api", "", "Photoflow daemon API base URL")
	rootCmd.PersistentFlags().StringVar(&ownerFlag, "owner", "", "Owner identifier for preferences and projects")

	rootCmd.AddCommand(newProcessCommand(ctx))
	rootCmd.AddCommand(newJobsCommand(ctx))
	rootCmd.AddCommand(newPrefsCommand(ctx))
	rootCmd.AddCommand(newRecentCommand(ctx))

	return rootCmd
}
