// Package editor orchestrates the processing workflows: uploads, synchronous
// and batch processing, queued jobs, preferences and recent projects.
package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	// Register decoders for sniffing upload dimensions.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"photoflow/internal/apperr"
	"photoflow/internal/model"
	"photoflow/internal/processor"
	"photoflow/internal/queue"
	imagerepo "photoflow/internal/repository/image"
	jobrepo "photoflow/internal/repository/job"
	prefsrepo "photoflow/internal/repository/prefs"
)

// fileStorage defines the interface for storing and retrieving image blobs.
type fileStorage interface {
	Save(ctx context.Context, subdir, filename string, src io.Reader) (string, error)
	Load(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}

// producer defines the interface for publishing process-requested events.
type producer interface {
	Produce(ctx context.Context, job model.Job) error
}

// pipeline defines the interface for executing a job's operation list.
type pipeline interface {
	Run(ctx context.Context, img model.Image, job model.Job, progress processor.ProgressFunc) (*model.Result, error)
}

// imageRepo defines the persistence interface for uploaded images.
type imageRepo interface {
	SaveImage(ctx context.Context, img model.Image) (uuid.UUID, error)
	GetImage(ctx context.Context, id uuid.UUID) (model.Image, error)
	DeleteImage(ctx context.Context, id uuid.UUID) error
}

// jobRepo defines the persistence interface for job records.
type jobRepo interface {
	CreateJob(ctx context.Context, j model.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (model.Job, error)
	ListJobs(ctx context.Context, limit int) ([]model.Job, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	UpdateProgress(ctx context.Context, id uuid.UUID, fraction float64) error
	Complete(ctx context.Context, id uuid.UUID, result *model.Result) error
	Fail(ctx context.Context, id uuid.UUID, msg string) error
}

// prefsRepo defines the persistence interface for preferences and recent
// projects.
type prefsRepo interface {
	GetPreferences(ctx context.Context, owner string) (model.Preferences, error)
	UpsertPreferences(ctx context.Context, p model.Preferences) error
	AddRecentProject(ctx context.Context, rp model.RecentProject) (uuid.UUID, error)
	ListRecentProjects(ctx context.Context, owner string, limit int) ([]model.RecentProject, error)
}

// Service wires storage, repositories, the pipeline, the queue and the event
// producer into the operations the API exposes.
type Service struct {
	fileStorage    fileStorage
	producer       producer
	pipeline       pipeline
	images         imageRepo
	jobs           jobRepo
	prefs          prefsRepo
	maxUploadBytes int64
}

// NewService creates a new Service. maxUploadBytes caps accepted uploads;
// zero disables the cap.
func NewService(
	fs fileStorage,
	p producer,
	pipe pipeline,
	images imageRepo,
	jobs jobRepo,
	prefs prefsRepo,
	maxUploadBytes int64,
) *Service {
	return &Service{
		fileStorage:    fs,
		producer:       p,
		pipeline:       pipe,
		images:         images,
		jobs:           jobs,
		prefs:          prefs,
		maxUploadBytes: maxUploadBytes,
	}
}

// UploadImage stores an original image: reads the payload, sniffs dimensions
// and EXIF metadata, saves the blob and persists the record.
func (s *Service) UploadImage(ctx context.Context, filename, contentType string, file io.Reader) (model.Image, error) {
	data, err := s.readUpload(file)
	if err != nil {
		return model.Image{}, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return model.Image{}, apperr.New(apperr.CategoryInvalidInput, fmt.Errorf("upload: unsupported image: %w", err))
	}

	meta, err := processor.ExtractMetadata(data)
	if err != nil {
		// Corrupt EXIF blocks are common in the wild; the image itself is fine.
		zlog.Logger.Warn().Err(err).Str("filename", filename).Msg("failed to read exif metadata")
	}

	dst, err := s.fileStorage.Save(ctx, "original", filename, bytes.NewReader(data))
	if err != nil {
		return model.Image{}, apperr.New(apperr.CategoryNetwork, fmt.Errorf("upload: failed to save file: %w", err))
	}

	img := model.Image{
		Filename:    filename,
		Path:        dst,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		Width:       cfg.Width,
		Height:      cfg.Height,
		Orientation: meta.Orientation,
		CameraModel: meta.CameraModel,
		TakenAt:     meta.TakenAt,
	}

	id, err := s.images.SaveImage(ctx, img)
	if err != nil {
		return model.Image{}, fmt.Errorf("upload: failed to save image record: %w", err)
	}

	img.ID = id
	img.CreatedAt = time.Now().UTC()

	return img, nil
}

// readUpload buffers the payload, enforcing the upload size cap.
func (s *Service) readUpload(file io.Reader) ([]byte, error) {
	r := file
	if s.maxUploadBytes > 0 {
		r = io.LimitReader(file, s.maxUploadBytes+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("upload: failed to read file: %w", err)
	}

	if s.maxUploadBytes > 0 && int64(len(data)) > s.maxUploadBytes {
		return nil, apperr.New(apperr.CategoryImageTooLarge,
			fmt.Errorf("upload exceeds %d byte limit", s.maxUploadBytes))
	}

	return data, nil
}

// GetImage returns the image record and a reader over its stored bytes.
func (s *Service) GetImage(ctx context.Context, id uuid.UUID) (model.Image, io.ReadCloser, error) {
	img, err := s.images.GetImage(ctx, id)
	if err != nil {
		return model.Image{}, nil, err
	}

	reader, err := s.fileStorage.Load(ctx, img.Path)
	if err != nil {
		return model.Image{}, nil, apperr.New(apperr.CategoryNetwork, fmt.Errorf("get: failed to load file: %w", err))
	}

	return img, reader, nil
}

// DeleteImage removes both the stored blob and the record.
func (s *Service) DeleteImage(ctx context.Context, id uuid.UUID) error {
	img, err := s.images.GetImage(ctx, id)
	if err != nil {
		return err
	}

	if err := s.fileStorage.Delete(ctx, img.Path); err != nil {
		return apperr.New(apperr.CategoryNetwork, fmt.Errorf("delete: failed to delete file: %w", err))
	}

	return s.images.DeleteImage(ctx, id)
}

// newJob builds a job record, filling export defaults from the owner's
// preferences.
func (s *Service) newJob(ctx context.Context, owner string, imageID uuid.UUID, ops []model.Operation, priority model.Priority, export model.Export, thumbnail bool) (model.Job, error) {
	if err := model.ValidateOperations(ops); err != nil {
		return model.Job{}, apperr.New(apperr.CategoryInvalidInput, err)
	}

	p := s.Preferences(ctx, owner)
	if export.Format == "" {
		export.Format = p.ExportFormat
	}
	if export.Quality == 0 {
		export.Quality = p.ExportQuality
	}

	if priority == "" {
		priority = model.PriorityNormal
	}

	return model.Job{
		ID:         uuid.New(),
		Owner:      owner,
		ImageID:    imageID,
		Operations: ops,
		Priority:   priority,
		Export:     export,
		Thumbnail:  thumbnail,
		AutoOrient: p.AutoOrient,
		Status:     model.JobPending,
	}, nil
}

// ProcessImage runs the pipeline synchronously and returns the result. The
// job record is persisted so the run shows up in job listings.
func (s *Service) ProcessImage(ctx context.Context, owner string, imageID uuid.UUID, ops []model.Operation, export model.Export, thumbnail bool) (*model.Result, error) {
	job, err := s.newJob(ctx, owner, imageID, ops, model.PriorityNormal, export, thumbnail)
	if err != nil {
		return nil, err
	}

	img, err := s.images.GetImage(ctx, imageID)
	if err != nil {
		if errors.Is(err, imagerepo.ErrImageNotFound) {
			return nil, apperr.New(apperr.CategoryNotFound, err)
		}
		return nil, err
	}

	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	if err := s.jobs.MarkProcessing(ctx, job.ID); err != nil {
		return nil, err
	}

	result, err := s.pipeline.Run(ctx, img, job, func(fraction float64) {
		if updErr := s.jobs.UpdateProgress(ctx, job.ID, fraction); updErr != nil {
			zlog.Logger.Warn().Err(updErr).Str("job_id", job.ID.String()).Msg("failed to record progress")
		}
	})
	if err != nil {
		if failErr := s.jobs.Fail(ctx, job.ID, err.Error()); failErr != nil {
			zlog.Logger.Err(failErr).Str("job_id", job.ID.String()).Msg("failed to record job failure")
		}
		return nil, err
	}

	if err := s.jobs.Complete(ctx, job.ID, result); err != nil {
		return nil, err
	}

	s.recordRecentProject(ctx, job, img)

	return result, nil
}

// BatchItem is the outcome of one image within a batch run.
type BatchItem struct {
	ImageID uuid.UUID     `json:"image_id"`
	Result  *model.Result `json:"result,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// ProcessBatch applies the same operation list to several images in order.
// A failure on one image does not stop the rest.
func (s *Service) ProcessBatch(ctx context.Context, owner string, imageIDs []uuid.UUID, ops []model.Operation, export model.Export, thumbnail bool) ([]BatchItem, error) {
	if len(imageIDs) == 0 {
		return nil, apperr.New(apperr.CategoryInvalidInput, errors.New("batch: no images given"))
	}

	items := make([]BatchItem, 0, len(imageIDs))
	for _, id := range imageIDs {
		res, err := s.ProcessImage(ctx, owner, id, ops, export, thumbnail)
		item := BatchItem{ImageID: id, Result: res}
		if err != nil {
			item.Error = err.Error()
		}
		items = append(items, item)
	}

	return items, nil
}

// SubmitJob validates the request, persists a pending job record and
// publishes a process-requested event. The consumer feeds the event into the
// in-process queue.
func (s *Service) SubmitJob(ctx context.Context, owner string, imageID uuid.UUID, ops []model.Operation, priority model.Priority, export model.Export, thumbnail bool) (model.Job, error) {
	job, err := s.newJob(ctx, owner, imageID, ops, priority, export, thumbnail)
	if err != nil {
		return model.Job{}, err
	}

	if _, err := s.images.GetImage(ctx, imageID); err != nil {
		if errors.Is(err, imagerepo.ErrImageNotFound) {
			return model.Job{}, apperr.New(apperr.CategoryNotFound, err)
		}
		return model.Job{}, err
	}

	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return model.Job{}, err
	}

	if err := s.producer.Produce(ctx, job); err != nil {
		if failErr := s.jobs.Fail(ctx, job.ID, err.Error()); failErr != nil {
			zlog.Logger.Err(failErr).Str("job_id", job.ID.String()).Msg("failed to record job failure")
		}
		return model.Job{}, apperr.New(apperr.CategoryNetwork, fmt.Errorf("submit: failed to publish job: %w", err))
	}

	return job, nil
}

// JobCallbacks returns the queue callbacks that keep the durable job record
// current while the worker processes a job.
func (s *Service) JobCallbacks() queue.Callbacks {
	return queue.Callbacks{
		OnStart: func(id uuid.UUID) {
			if err := s.jobs.MarkProcessing(context.Background(), id); err != nil {
				zlog.Logger.Warn().Err(err).Str("job_id", id.String()).Msg("failed to mark job processing")
			}
		},
		OnProgress: func(id uuid.UUID, fraction float64) {
			if err := s.jobs.UpdateProgress(context.Background(), id, fraction); err != nil {
				zlog.Logger.Warn().Err(err).Str("job_id", id.String()).Msg("failed to record progress")
			}
		},
		OnComplete: func(id uuid.UUID, res *model.Result) {
			if err := s.jobs.Complete(context.Background(), id, res); err != nil {
				zlog.Logger.Err(err).Str("job_id", id.String()).Msg("failed to record job result")
			}
		},
		OnError: func(id uuid.UUID, err error) {
			if failErr := s.jobs.Fail(context.Background(), id, err.Error()); failErr != nil {
				zlog.Logger.Err(failErr).Str("job_id", id.String()).Msg("failed to record job failure")
			}
		},
	}
}

// Run executes one queued job. It implements the queue's runner interface.
func (s *Service) Run(ctx context.Context, job model.Job, progress func(float64)) (*model.Result, error) {
	img, err := s.images.GetImage(ctx, job.ImageID)
	if err != nil {
		return nil, err
	}

	res, err := s.pipeline.Run(ctx, img, job, progress)
	if err != nil {
		return nil, err
	}

	s.recordRecentProject(ctx, job, img)

	return res, nil
}

// recordRecentProject appends the processed image to the owner's recent
// projects. Failures are logged only; the processing result already stands.
func (s *Service) recordRecentProject(ctx context.Context, job model.Job, img model.Image) {
	if job.Owner == "" {
		return
	}

	rp := model.RecentProject{
		Owner:   job.Owner,
		ImageID: img.ID,
		JobID:   job.ID,
		Title:   img.Filename,
	}

	if _, err := s.prefs.AddRecentProject(ctx, rp); err != nil {
		zlog.Logger.Warn().Err(err).Str("job_id", job.ID.String()).Msg("failed to record recent project")
	}
}

// Job returns the durable record for a job.
func (s *Service) Job(ctx context.Context, id uuid.UUID) (model.Job, error) {
	j, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		if errors.Is(err, jobrepo.ErrJobNotFound) {
			return model.Job{}, apperr.New(apperr.CategoryNotFound, err)
		}
		return model.Job{}, err
	}

	return j, nil
}

// Jobs returns the most recent job records.
func (s *Service) Jobs(ctx context.Context, limit int) ([]model.Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	return s.jobs.ListJobs(ctx, limit)
}

// Preferences returns the owner's stored preferences, falling back to
// defaults when none exist.
func (s *Service) Preferences(ctx context.Context, owner string) model.Preferences {
	if owner == "" {
		return model.DefaultPreferences(owner)
	}

	p, err := s.prefs.GetPreferences(ctx, owner)
	if err != nil {
		if !errors.Is(err, prefsrepo.ErrNotFound) {
			zlog.Logger.Warn().Err(err).Str("owner", owner).Msg("failed to load preferences")
		}
		return model.DefaultPreferences(owner)
	}

	return p
}

// SavePreferences validates and stores the owner's preferences.
func (s *Service) SavePreferences(ctx context.Context, p model.Preferences) error {
	if p.Owner == "" {
		return apperr.New(apperr.CategoryInvalidInput, errors.New("preferences: owner is required"))
	}
	if p.ExportQuality < 0 || p.ExportQuality > 100 {
		return apperr.New(apperr.CategoryInvalidInput, errors.New("preferences: export quality must be within [0, 100]"))
	}

	defaults := model.DefaultPreferences(p.Owner)
	if p.ExportFormat == "" {
		p.ExportFormat = defaults.ExportFormat
	}
	if p.ExportQuality == 0 {
		p.ExportQuality = defaults.ExportQuality
	}
	if p.ThumbnailSize == 0 {
		p.ThumbnailSize = defaults.ThumbnailSize
	}

	return s.prefs.UpsertPreferences(ctx, p)
}

// SaveRecentProject records a client-supplied recent project entry, for
// example when the client finishes local edits it never submitted as a job.
func (s *Service) SaveRecentProject(ctx context.Context, rp model.RecentProject) (model.RecentProject, error) {
	if rp.Owner == "" {
		return model.RecentProject{}, apperr.New(apperr.CategoryInvalidInput, errors.New("recent: owner is required"))
	}
	if rp.ImageID == uuid.Nil {
		return model.RecentProject{}, apperr.New(apperr.CategoryInvalidInput, errors.New("recent: image_id is required"))
	}

	id, err := s.prefs.AddRecentProject(ctx, rp)
	if err != nil {
		return model.RecentProject{}, err
	}

	rp.ID = id
	rp.UpdatedAt = time.Now().UTC()

	return rp, nil
}

// RecentProjects lists the owner's recent projects, newest first.
func (s *Service) RecentProjects(ctx context.Context, owner string, limit int) ([]model.RecentProject, error) {
	if owner == "" {
		return nil, apperr.New(apperr.CategoryInvalidInput, errors.New("recent: owner is required"))
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	return s.prefs.ListRecentProjects(ctx, owner, limit)
}
