package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"photoflow/internal/api/handlers/process"
	"photoflow/internal/model"
	"photoflow/internal/service/editor"
)

// apiClient talks to the photoflowd HTTP API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Synchronous processing can hold the connection for a while.
		http: &http.Client{Timeout: 5 * time.Minute},
	}
}

// apiError mirrors the server's error envelope.
type apiError struct {
	Message   string `json:"message"`
	Category  string `json:"category"`
	Retryable bool   `json:"retryable"`
}

func (e *apiError) Error() string {
	if e.Category != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Category)
	}
	return e.Message
}

// do sends the request and decodes the result envelope into out.
func (c *apiClient) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Message != "" {
			return &apiErr
		}
		return fmt.Errorf("%s: unexpected status %d", req.URL.Path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}

	return nil
}

func (c *apiClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	return c.do(req, out)
}

func (c *apiClient) sendJSON(ctx context.Context, method, path string, in, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// Upload sends a local file as a new original image.
func (c *apiClient) Upload(ctx context.Context, filePath string) (model.Image, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return model.Image{}, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("image", filepath.Base(filePath))
	if err != nil {
		return model.Image{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return model.Image{}, fmt.Errorf("copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return model.Image{}, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/images", &buf)
	if err != nil {
		return model.Image{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var img model.Image
	if err := c.do(req, &img); err != nil {
		return model.Image{}, err
	}

	return img, nil
}

// Process runs the pipeline synchronously.
func (c *apiClient) Process(ctx context.Context, req process.ProcessRequest) (model.Result, error) {
	var result model.Result
	err := c.sendJSON(ctx, http.MethodPost, "/api/process", req, &result)
	return result, err
}

// ProcessBatch runs the pipeline over several images.
func (c *apiClient) ProcessBatch(ctx context.Context, req process.BatchRequest) ([]editor.BatchItem, error) {
	var items []editor.BatchItem
	err := c.sendJSON(ctx, http.MethodPost, "/api/process/batch", req, &items)
	return items, err
}

// SubmitJob enqueues background processing.
func (c *apiClient) SubmitJob(ctx context.Context, req process.JobRequest) (model.Job, error) {
	var j model.Job
	err := c.sendJSON(ctx, http.MethodPost, "/api/jobs", req, &j)
	return j, err
}

// Job fetches one job record.
func (c *apiClient) Job(ctx context.Context, id uuid.UUID) (model.Job, error) {
	var j model.Job
	err := c.getJSON(ctx, "/api/jobs/"+id.String(), &j)
	return j, err
}

// Jobs fetches the most recent job records.
func (c *apiClient) Jobs(ctx context.Context, limit int) ([]model.Job, error) {
	path := "/api/jobs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var jobs []model.Job
	err := c.getJSON(ctx, path, &jobs)
	return jobs, err
}

// Preferences fetches the owner's preferences.
func (c *apiClient) Preferences(ctx context.Context, owner string) (model.Preferences, error) {
	var p model.Preferences
	err := c.getJSON(ctx, "/api/preferences/"+url.PathEscape(owner), &p)
	return p, err
}

// SavePreferences stores the owner's preferences.
func (c *apiClient) SavePreferences(ctx context.Context, p model.Preferences) (model.Preferences, error) {
	var saved model.Preferences
	err := c.sendJSON(ctx, http.MethodPut, "/api/preferences/"+url.PathEscape(p.Owner), p, &saved)
	return saved, err
}

// RecentProjects fetches the owner's server-side recent projects.
func (c *apiClient) RecentProjects(ctx context.Context, owner string, limit int) ([]model.RecentProject, error) {
	path := "/api/projects/recent?owner=" + url.QueryEscape(owner)
	if limit > 0 {
		path += "&limit=" + strconv.Itoa(limit)
	}

	var projects []model.RecentProject
	err := c.getJSON(ctx, path, &projects)
	return projects, err
}
