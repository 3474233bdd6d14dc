package main

import (
	"errors"

	"github.com/spf13/cobra"

	"photoflow/internal/model"
)

func newPrefsCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change processing preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newPrefsGetCommand(cmdCtx))
	cmd.AddCommand(newPrefsSetCommand(cmdCtx))

	return cmd
}

func newPrefsGetCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the current preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Owner == "" {
				return errors.New("owner is not set; use --owner or set it in the config file")
			}

			client, err := cmdCtx.client()
			if err != nil {
				return err
			}

			p, err := client.Preferences(cmd.Context(), cfg.Owner)
			if err != nil {
				return err
			}

			printPreferences(cmd, p)
			return nil
		},
	}
}

func newPrefsSetCommand(cmdCtx *commandContext) *cobra.Command {
	var formatFlag string
	var qualityFlag int
	var autoOrientFlag bool
	var thumbSizeFlag int

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store preferences for the current owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Owner == "" {
				return errors.New("owner is not set; use --owner or set it in the config file")
			}

			client, err := cmdCtx.client()
			if err != nil {
				return err
			}

			// Start from the server's current values so unset flags keep them.
			p, err := client.Preferences(cmd.Context(), cfg.Owner)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("format") {
				p.ExportFormat = formatFlag
			}
			if cmd.Flags().Changed("quality") {
				p.ExportQuality = qualityFlag
			}
			if cmd.Flags().Changed("auto-orient") {
				p.AutoOrient = autoOrientFlag
			}
			if cmd.Flags().Changed("thumbnail-size") {
				p.ThumbnailSize = thumbSizeFlag
			}

			saved, err := client.SavePreferences(cmd.Context(), p)
			if err != nil {
				return err
			}

			printPreferences(cmd, saved)
			return nil
		},
	}

	cmd.Flags().StringVar(&formatFlag, "format", "", "Default export format: jpeg or png")
	cmd.Flags().IntVar(&qualityFlag, "quality", 0, "Default JPEG export quality (1-100)")
	cmd.Flags().BoolVar(&autoOrientFlag, "auto-orient", true, "Bring images upright from EXIF orientation")
	cmd.Flags().IntVar(&thumbSizeFlag, "thumbnail-size", 0, "Thumbnail bounding square in pixels")

	return cmd
}

func printPreferences(cmd *cobra.Command, p model.Preferences) {
	cmd.Printf("owner:          %s\n", p.Owner)
	cmd.Printf("export format:  %s\n", p.ExportFormat)
	cmd.Printf("export quality: %d\n", p.ExportQuality)
	cmd.Printf("auto orient:    %t\n", p.AutoOrient)
	cmd.Printf("thumbnail size: %d\n", p.ThumbnailSize)
}
