package main

import (
	"time"

	"github.com/spf13/cobra"

	"photoflow/internal/clistore"
)

func newRecentCommand(cmdCtx *commandContext) *cobra.Command {
	var limitFlag int
	var serverFlag bool

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recent projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			if serverFlag {
				return listServerRecent(cmd, cmdCtx, cfg, limitFlag)
			}

			store, err := clistore.Open(cfg.DataDir)
			if err != nil {
				return err
			}
			defer store.Close()

			projects, err := store.List(cmd.Context(), limitFlag)
			if err != nil {
				return err
			}

			if len(projects) == 0 {
				cmd.Println("no recent projects")
				return nil
			}

			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				rows = append(rows, []string{
					p.Title,
					p.JobID,
					p.Status,
					p.Output,
					p.UpdatedAt.Local().Format(time.DateTime),
				})
			}

			cmd.Println(renderTable([]string{"TITLE", "JOB", "STATUS", "OUTPUT", "UPDATED"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum number of projects to list")
	cmd.Flags().BoolVar(&serverFlag, "server", false, "List the server-side records instead of the local ones")

	return cmd
}

func listServerRecent(cmd *cobra.Command, cmdCtx *commandContext, cfg cliConfig, limit int) error {
	client, err := cmdCtx.client()
	if err != nil {
		return err
	}

	projects, err := client.RecentProjects(cmd.Context(), cfg.Owner, limit)
	if err != nil {
		return err
	}

	if len(projects) == 0 {
		cmd.Println("no recent projects")
		return nil
	}

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			p.Title,
			p.JobID.String(),
			p.ImageID.String(),
			p.UpdatedAt.Local().Format(time.DateTime),
		})
	}

	cmd.Println(renderTable([]string{"TITLE", "JOB", "IMAGE", "UPDATED"}, rows))
	return nil
}
