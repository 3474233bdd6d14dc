package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"photoflow/internal/api/handlers/process"
	"photoflow/internal/clistore"
	"photoflow/internal/model"
)

const pollInterval = 500 * time.Millisecond

func newProcessCommand(cmdCtx *commandContext) *cobra.Command {
	var opFlags []string
	var priorityFlag string
	var formatFlag string
	var qualityFlag int
	var thumbnailFlag bool
	var syncFlag bool
	var waitFlag bool

	cmd := &cobra.Command{
		Use:   "process FILE...",
		Short: "Upload images and run an operation pipeline over them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			client, err := cmdCtx.client()
			if err != nil {
				return err
			}

			ops, err := parseOperations(opFlags)
			if err != nil {
				return err
			}

			priority, err := model.ParsePriority(priorityFlag)
			if err != nil {
				return err
			}

			export := model.Export{Format: formatFlag, Quality: qualityFlag}
			ctx := cmd.Context()

			if syncFlag {
				return runSync(ctx, cmd, client, cfg, args, ops, export, thumbnailFlag)
			}

			return runQueued(ctx, cmd, client, cfg, args, ops, priority, export, thumbnailFlag, waitFlag)
		},
	}

	cmd.Flags().StringArrayVar(&opFlags, "op", nil, "Operation to apply, e.g. resize=800x600 (repeatable, applied in order)")
	cmd.Flags().StringVar(&priorityFlag, "priority", "normal", "Queue priority: high, normal or low")
	cmd.Flags().StringVar(&formatFlag, "format", "", "Export format: jpeg or png")
	cmd.Flags().IntVar(&qualityFlag, "quality", 0, "JPEG export quality (1-100)")
	cmd.Flags().BoolVar(&thumbnailFlag, "thumbnail", false, "Also generate a thumbnail")
	cmd.Flags().BoolVar(&syncFlag, "sync", false, "Process synchronously instead of queueing")
	cmd.Flags().BoolVar(&waitFlag, "wait", false, "Wait for queued jobs to finish")

	return cmd
}

// runSync uploads the files and processes them in one request.
func runSync(ctx context.Context, cmd *cobra.Command, client *apiClient, cfg cliConfig, files []string, ops []model.Operation, export model.Export, thumbnail bool) error {
	images := make([]model.Image, 0, len(files))
	for _, f := range files {
		img, err := client.Upload(ctx, f)
		if err != nil {
			return fmt.Errorf("upload %s: %w", f, err)
		}
		cmd.Printf("uploaded %s as %s\n", f, img.ID)
		images = append(images, img)
	}

	if len(images) == 1 {
		result, err := client.Process(ctx, process.ProcessRequest{
			Owner:      cfg.Owner,
			ImageID:    images[0].ID,
			Operations: ops,
			Export:     export,
			Thumbnail:  thumbnail,
		})
		if err != nil {
			return err
		}

		printResult(cmd, result)
		return nil
	}

	req := process.BatchRequest{Owner: cfg.Owner, Operations: ops, Export: export, Thumbnail: thumbnail}
	for _, img := range images {
		req.ImageIDs = append(req.ImageIDs, img.ID)
	}

	items, err := client.ProcessBatch(ctx, req)
	if err != nil {
		return err
	}

	for _, item := range items {
		if item.Error != "" {
			cmd.Printf("%s: FAILED: %s\n", item.ImageID, item.Error)
			continue
		}
		cmd.Printf("%s: %s (%dx%d, %d bytes)\n", item.ImageID, item.Result.OutputPath, item.Result.Width, item.Result.Height, item.Result.SizeBytes)
	}

	return nil
}

// runQueued uploads the files, submits one job per file and records them in
// the local store.
func runQueued(ctx context.Context, cmd *cobra.Command, client *apiClient, cfg cliConfig, files []string, ops []model.Operation, priority model.Priority, export model.Export, thumbnail, wait bool) error {
	store, err := clistore.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	jobs := make([]model.Job, 0, len(files))
	for _, f := range files {
		img, err := client.Upload(ctx, f)
		if err != nil {
			return fmt.Errorf("upload %s: %w", f, err)
		}

		j, err := client.SubmitJob(ctx, process.JobRequest{
			Owner:      cfg.Owner,
			ImageID:    img.ID,
			Operations: ops,
			Priority:   string(priority),
			Export:     export,
			Thumbnail:  thumbnail,
		})
		if err != nil {
			return fmt.Errorf("submit %s: %w", f, err)
		}

		cmd.Printf("queued %s as job %s (%s priority)\n", f, j.ID, j.Priority)

		record := clistore.Project{
			JobID:   j.ID.String(),
			ImageID: img.ID.String(),
			Title:   img.Filename,
			Status:  string(j.Status),
		}
		if err := store.Add(ctx, record); err != nil {
			return err
		}

		jobs = append(jobs, j)
	}

	if !wait {
		return nil
	}

	for _, j := range jobs {
		final, err := waitForJob(ctx, client, j.ID.String())
		if err != nil {
			return err
		}

		output := ""
		if final.Result != nil {
			output = final.Result.OutputPath
		}
		if err := store.SetStatus(ctx, j.ID.String(), string(final.Status), output); err != nil {
			return err
		}

		if final.Status == model.JobFailed {
			cmd.Printf("job %s FAILED: %s\n", final.ID, final.Error)
			continue
		}
		if final.Result != nil {
			printResult(cmd, *final.Result)
		}
	}

	return nil
}

// waitForJob polls the job until it reaches a terminal status.
func waitForJob(ctx context.Context, client *apiClient, id string) (model.Job, error) {
	jobID, err := parseJobID(id)
	if err != nil {
		return model.Job{}, err
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		j, err := client.Job(ctx, jobID)
		if err != nil {
			return model.Job{}, err
		}

		if j.Status == model.JobCompleted || j.Status == model.JobFailed {
			return j, nil
		}

		select {
		case <-ctx.Done():
			return model.Job{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func printResult(cmd *cobra.Command, result model.Result) {
	cmd.Printf("output: %s (%dx%d, %d bytes, %dms)\n", result.OutputPath, result.Width, result.Height, result.SizeBytes, result.ElapsedMS)
	if result.ThumbnailPath != "" {
		cmd.Printf("thumbnail: %s\n", result.ThumbnailPath)
	}
}
