// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tasksync/internal/models"
)

// DefaultTimeout bounds each REST call made with the default http.Client.
const DefaultTimeout = 15 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// APIError is a non-2xx REST response.
type APIError struct {
	Status    int
	Code      string
	Msg       string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Msg)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Msg)
}

type errorBody struct {
	Msg       string `json:"msg"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

// NewTask is the body of a create call. Empty fields are omitted so the
// server applies its defaults.
type NewTask struct {
	ProjectID   string `json:"projectId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
}

// APIClient calls the tasksync REST API.
type APIClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewAPIClient creates a client for baseURL (scheme and host, with or
// without a trailing slash). A nil httpClient uses DefaultTimeout.
func NewAPIClient(baseURL string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// SetToken sets the bearer credential sent with every call.
func (c *APIClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer credential.
func (c *APIClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// RealtimeURL returns the websocket endpoint for the same server.
func (c *APIClient) RealtimeURL() string {
	u := c.baseURL + "/api/ws"
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account.
func (c *APIClient) Register(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", credentials{username, password}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates and stores the returned token on the client.
func (c *APIClient) Login(ctx context.Context, username, password string) (*models.User, error) {
	var resp struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", credentials{username, password}, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return resp.User, nil
}

// ListProjects returns the caller's projects.
func (c *APIClient) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a project owned by the caller.
func (c *APIClient) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	var p models.Project
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, "/api/projects", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListTasks returns every task of projectID.
func (c *APIClient) ListTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(projectID), nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask creates a task.
func (c *APIClient) CreateTask(ctx context.Context, task NewTask) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", task, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask applies changes to taskID.
func (c *APIClient) UpdateTask(ctx context.Context, taskID string, changes TaskChanges) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(taskID), changes, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTask deletes taskID.
func (c *APIClient) DeleteTask(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(taskID), nil, nil)
}

func (c *APIClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status}
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Msg != "" {
		apiErr.Code = body.Code
		apiErr.Msg = body.Msg
		apiErr.RequestID = body.RequestID
		return apiErr
	}
	apiErr.Msg = http.StatusText(status)
	return apiErr
}
