package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newJobsCommand(cmdCtx *commandContext) *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "jobs [JOB_ID]",
		Short: "List recent jobs or show one job",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := cmdCtx.client()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				return showJob(cmd, client, args[0])
			}

			jobs, err := client.Jobs(cmd.Context(), limitFlag)
			if err != nil {
				return err
			}

			if len(jobs) == 0 {
				cmd.Println("no jobs")
				return nil
			}

			rows := make([][]string, 0, len(jobs))
			for _, j := range jobs {
				rows = append(rows, []string{
					j.ID.String(),
					string(j.Priority),
					string(j.Status),
					fmt.Sprintf("%d%%", int(j.Progress*100)),
					j.CreatedAt.Local().Format(time.DateTime),
				})
			}

			cmd.Println(renderTable([]string{"ID", "PRIORITY", "STATUS", "PROGRESS", "CREATED"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum number of jobs to list")

	return cmd
}

func showJob(cmd *cobra.Command, client *apiClient, id string) error {
	jobID, err := parseJobID(id)
	if err != nil {
		return err
	}

	j, err := client.Job(cmd.Context(), jobID)
	if err != nil {
		return err
	}

	kinds := make([]string, 0, len(j.Operations))
	for _, op := range j.Operations {
		kinds = append(kinds, string(op.Kind))
	}

	cmd.Printf("job:        %s\n", j.ID)
	cmd.Printf("image:      %s\n", j.ImageID)
	cmd.Printf("priority:   %s\n", j.Priority)
	cmd.Printf("status:     %s\n", j.Status)
	cmd.Printf("progress:   %d%%\n", int(j.Progress*100))
	cmd.Printf("operations: %s\n", strings.Join(kinds, " -> "))

	if j.Error != "" {
		cmd.Printf("error:      %s\n", j.Error)
	}
	if j.Result != nil {
		printResult(cmd, *j.Result)
	}

	return nil
}

func parseJobID(id string) (uuid.UUID, error) {
	jobID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid job id %q: %v", id, err)
	}

	return jobID, nil
}
