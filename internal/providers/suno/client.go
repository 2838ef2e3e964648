// Package suno implements the audio-generation provider client. Submission
// is two-tier: custom mode carries the full structured brief, and when the
// provider rejects it the client degrades to a single free-text prompt.
package suno

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	defaultModel       = "V4_5"
	defaultSubmitPath  = "/api/v1/generate"
	recordInfoPath     = "/api/v1/generate/record-info"
	defaultTimeout     = 45 * time.Second
	maxNonCustomPrompt = 400
)

// Mode names the submission tier a task was accepted under.
type Mode string

const (
	ModeCustom    Mode = "custom"
	ModeNonCustom Mode = "non-custom"
)

var (
	ErrMissingAPIKey = errors.New("suno: api key is required")
	ErrNoTaskID      = errors.New("suno: response without task id")
)

type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	CallbackURL string
	HTTPClient  *http.Client
}

type Client struct {
	apiKey      string
	baseURL     string
	model       string
	callbackURL string
	client      *http.Client
}

// GenerateRequest is the creative brief for one rendering job. Lyrics is
// the full text used in custom mode; Prompt is the free-text style summary
// used when the client degrades to non-custom mode.
type GenerateRequest struct {
	Title  string
	Style  string
	Lyrics string
	Prompt string
}

// Submission identifies an accepted rendering job.
type Submission struct {
	TaskID string
	Mode   Mode
}

type generateResponse struct {
	Code   *int            `json:"code"`
	Msg    string          `json:"msg"`
	TaskID string          `json:"taskId"`
	Data   json.RawMessage `json:"data"`
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.sunoapi.org"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:      strings.TrimSpace(opts.APIKey),
		baseURL:     baseURL,
		model:       model,
		callbackURL: strings.TrimSpace(opts.CallbackURL),
		client:      client,
	}, nil
}

// Generate submits the rendering job. Custom mode runs first; any
// non-success status, unparseable body or missing task id degrades to a
// non-custom submission with the prompt truncated to 400 characters. The
// tiers run sequentially so a job is never billed twice.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*Submission, error) {
	custom := map[string]any{
		"customMode":   true,
		"instrumental": false,
		"title":        req.Title,
		"style":        req.Style,
		"prompt":       req.Lyrics,
		"model":        c.model,
	}
	if c.callbackURL != "" {
		custom["callBackUrl"] = c.callbackURL
	}
	if taskID, err := c.submit(ctx, custom); err == nil {
		return &Submission{TaskID: taskID, Mode: ModeCustom}, nil
	}

	nonCustom := map[string]any{
		"customMode":   false,
		"instrumental": false,
		"prompt":       Truncate(req.Prompt, maxNonCustomPrompt),
		"model":        c.model,
	}
	if c.callbackURL != "" {
		nonCustom["callBackUrl"] = c.callbackURL
	}
	taskID, err := c.submit(ctx, nonCustom)
	if err != nil {
		return nil, err
	}
	return &Submission{TaskID: taskID, Mode: ModeNonCustom}, nil
}

func (c *Client) submit(ctx context.Context, payload map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("suno: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+defaultSubmitPath, &buf)
	if err != nil {
		return "", fmt.Errorf("suno: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("suno: request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("suno: status %d", resp.StatusCode)
	}
	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("suno: decode response: %w", err)
	}
	if out.Code != nil && *out.Code != http.StatusOK {
		return "", fmt.Errorf("suno: provider code %d: %s", *out.Code, out.Msg)
	}
	taskID := taskIDFromResponse(out)
	if taskID == "" {
		return "", ErrNoTaskID
	}
	return taskID, nil
}

// taskIDFromResponse checks the known locations for the task identifier:
// top level, then data.taskId under either key spelling.
func taskIDFromResponse(out generateResponse) string {
	if out.TaskID != "" {
		return out.TaskID
	}
	if len(out.Data) == 0 {
		return ""
	}
	var data struct {
		TaskID    string `json:"taskId"`
		TaskIDAlt string `json:"task_id"`
	}
	if err := json.Unmarshal(out.Data, &data); err != nil {
		return ""
	}
	if data.TaskID != "" {
		return data.TaskID
	}
	return data.TaskIDAlt
}

// RecordInfo fetches the current state of a rendering job. The decoded
// body is returned as-is for the caller to walk.
func (c *Client) RecordInfo(ctx context.Context, taskID string) (map[string]any, error) {
	endpoint := fmt.Sprintf("%s%s?taskId=%s", c.baseURL, recordInfoPath, url.QueryEscape(taskID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("suno: build record-info request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("suno: record-info request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("suno: record-info status %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("suno: decode record-info: %w", err)
	}
	return body, nil
}

// Truncate caps s at n characters. Counting is by rune so multi-byte
// text (ru/kz prompts are Cyrillic) is never cut mid-character.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
