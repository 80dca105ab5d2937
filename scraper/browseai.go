package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/legalpt/legal-rag-be/config"
	"github.com/legalpt/legal-rag-be/types"
)

const browseAIBaseURL = "https://api.browse.ai/v2"

// Terminal and transient Browse AI task statuses.
const (
	taskStatusSuccessful = "successful"
	taskStatusFailed     = "failed"
	taskStatusRunning    = "running"
	taskStatusPending    = "pending"
)

// BrowseAIClient drives a Browse AI robot that crawls Diário da República
// and returns its captured document lists.
type BrowseAIClient struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	timeout      time.Duration
}

type Robot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Task struct {
	ID                string                      `json:"id"`
	Status            string                      `json:"status"`
	CapturedLists     map[string][]map[string]any `json:"capturedLists"`
	CapturedTexts     map[string]string           `json:"capturedTexts"`
	UserFriendlyError string                      `json:"userFriendlyError"`
}

func NewBrowseAIClient(cfg config.ScraperConfig) (*BrowseAIClient, error) {
	if cfg.BrowseAIAPIKey == "" {
		return nil, fmt.Errorf("%w: browse ai api key is required", types.ErrInvalidParameter)
	}
	pollInterval := time.Duration(cfg.PollSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &BrowseAIClient{
		apiKey:       cfg.BrowseAIAPIKey,
		baseURL:      browseAIBaseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: pollInterval,
		timeout:      timeout,
	}, nil
}

func (c *BrowseAIClient) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: browse ai request: %v", types.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: browse ai %s %s: status %d: %s",
			types.ErrUpstreamUnavailable, method, path, resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetRobots lists the robots in the account.
func (c *BrowseAIClient) GetRobots(ctx context.Context) ([]Robot, error) {
	var response struct {
		Robots struct {
			Items []Robot `json:"items"`
		} `json:"robots"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/robots", nil, &response); err != nil {
		return nil, err
	}
	return response.Robots.Items, nil
}

// RunRobot starts a robot task and returns its id.
func (c *BrowseAIClient) RunRobot(ctx context.Context, robotID string, inputParameters map[string]any) (string, error) {
	payload := map[string]any{}
	if len(inputParameters) > 0 {
		payload["inputParameters"] = inputParameters
	}
	var response struct {
		Result struct {
			RobotTask Task `json:"robotTask"`
		} `json:"result"`
		RobotTask Task `json:"robotTask"`
	}
	path := fmt.Sprintf("/robots/%s/tasks", robotID)
	if err := c.doJSON(ctx, http.MethodPost, path, payload, &response); err != nil {
		return "", err
	}
	// The task envelope moved between API revisions; accept both shapes.
	taskID := response.Result.RobotTask.ID
	if taskID == "" {
		taskID = response.RobotTask.ID
	}
	if taskID == "" {
		return "", fmt.Errorf("%w: no task id returned for robot %s", types.ErrUpstreamUnavailable, robotID)
	}
	return taskID, nil
}

// GetTask fetches the current status and captured data of a task.
func (c *BrowseAIClient) GetTask(ctx context.Context, robotID, taskID string) (*Task, error) {
	var response struct {
		Result struct {
			RobotTask Task `json:"robotTask"`
		} `json:"result"`
		RobotTask Task `json:"robotTask"`
	}
	path := fmt.Sprintf("/robots/%s/tasks/%s", robotID, taskID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	task := response.Result.RobotTask
	if task.ID == "" {
		task = response.RobotTask
	}
	return &task, nil
}

// WaitForTask polls until the task reaches a terminal status or the
// configured timeout elapses.
func (c *BrowseAIClient) WaitForTask(ctx context.Context, robotID, taskID string) (*Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		task, err := c.GetTask(ctx, robotID, taskID)
		if err != nil {
			return nil, err
		}
		switch task.Status {
		case taskStatusSuccessful:
			return task, nil
		case taskStatusFailed:
			return nil, fmt.Errorf("%w: task %s failed: %s",
				types.ErrUpstreamUnavailable, taskID, task.UserFriendlyError)
		case taskStatusRunning, taskStatusPending:
		default:
			log.Printf("unknown browse ai task status %q for %s", task.Status, taskID)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: task %s timed out", types.ErrUpstreamUnavailable, taskID)
		case <-ticker.C:
		}
	}
}

// ScrapeRecentDocuments runs a robot end to end and converts its captured
// lists into documents ready for ingestion.
func (c *BrowseAIClient) ScrapeRecentDocuments(ctx context.Context, robotID string, daysBack, maxDocuments int) ([]types.ScrapedDocument, error) {
	taskID, err := c.RunRobot(ctx, robotID, map[string]any{
		"days_back":     daysBack,
		"max_documents": maxDocuments,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("started browse ai robot %s, task %s", robotID, taskID)

	task, err := c.WaitForTask(ctx, robotID, taskID)
	if err != nil {
		return nil, err
	}

	documents := ExtractDocuments(task)
	if maxDocuments > 0 && len(documents) > maxDocuments {
		documents = documents[:maxDocuments]
	}
	log.Printf("robot %s captured %d documents", robotID, len(documents))
	return documents, nil
}

// ExtractDocuments flattens every captured list of a finished task into
// scraped documents, deriving the metadata the robot did not capture.
func ExtractDocuments(task *Task) []types.ScrapedDocument {
	var documents []types.ScrapedDocument
	for _, list := range task.CapturedLists {
		for _, item := range list {
			doc := parseCapturedItem(item)
			if doc.Title == "" && doc.FullText == "" {
				continue
			}
			documents = append(documents, doc)
		}
	}
	return documents
}

func parseCapturedItem(item map[string]any) types.ScrapedDocument {
	doc := types.ScrapedDocument{
		Title:           stringField(item, "title"),
		URL:             stringField(item, "url"),
		DocumentNumber:  stringField(item, "document_number"),
		PublicationDate: stringField(item, "publication_date"),
		IssuingBody:     stringField(item, "issuing_body"),
		Description:     stringField(item, "summary"),
		FullText:        stringField(item, "full_text"),
	}
	doc.DocumentType = ExtractDocumentType(doc.Title, doc.DocumentNumber)
	if doc.DocumentNumber == "" {
		doc.DocumentNumber = ExtractDocumentNumber(doc.Title, doc.DocumentType)
	}
	if doc.PublicationDate == "" {
		doc.PublicationDate = ExtractPublicationDate(doc.Title + " " + doc.Description)
	}
	return doc
}

func stringField(item map[string]any, key string) string {
	if v, ok := item[key].(string); ok {
		return v
	}
	return ""
}
