package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/Celag1/logicqp-sub003/internal/models"
	"github.com/Celag1/logicqp-sub003/internal/report"
)

// Client is the typed HTTP client used by the CLI.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient() (*Client, error) {
	baseURL := os.Getenv("LOGICQP_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	token := os.Getenv("LOGICQP_API_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("LOGICQP_API_TOKEN environment variable is not set")
	}

	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (c *Client) ListTemplates() ([]models.ReportTemplate, error) {
	var templates []models.ReportTemplate
	if err := c.get("/api/v1/templates", &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (c *Client) CreateTemplate(template *models.ReportTemplate) (*models.ReportTemplate, error) {
	var created models.ReportTemplate
	if err := c.post("/api/v1/templates", template, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) ListScheduledReports() ([]models.ScheduledReport, error) {
	var reports []models.ScheduledReport
	if err := c.get("/api/v1/scheduled-reports", &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (c *Client) CreateScheduledReport(body map[string]interface{}) (*models.ScheduledReport, error) {
	var created models.ScheduledReport
	if err := c.post("/api/v1/scheduled-reports", body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) SetEnabled(id string, enabled bool) error {
	return c.patch("/api/v1/scheduled-reports/"+url.PathEscape(id), map[string]interface{}{"enabled": enabled}, nil)
}

func (c *Client) DeleteScheduledReport(id string) error {
	return c.delete("/api/v1/scheduled-reports/" + url.PathEscape(id))
}

func (c *Client) RunScheduledReport(id string) error {
	return c.post("/api/v1/scheduled-reports/"+url.PathEscape(id)+"/run", nil, nil)
}

func (c *Client) ExecutionHistory(id string, limit int) ([]models.ReportExecution, error) {
	endpoint := "/api/v1/scheduled-reports/" + url.PathEscape(id) + "/executions"
	if limit > 0 {
		endpoint += "?limit=" + strconv.Itoa(limit)
	}
	var executions []models.ReportExecution
	if err := c.get(endpoint, &executions); err != nil {
		return nil, err
	}
	return executions, nil
}

func (c *Client) DueReports() ([]models.ScheduledReport, error) {
	var due []models.ScheduledReport
	if err := c.get("/api/v1/reports/due", &due); err != nil {
		return nil, err
	}
	return due, nil
}

func (c *Client) Dashboard() (*report.DashboardStats, error) {
	var stats report.DashboardStats
	if err := c.get("/api/v1/dashboard", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) get(endpoint string, out interface{}) error {
	return c.do(http.MethodGet, endpoint, nil, out)
}

func (c *Client) post(endpoint string, body, out interface{}) error {
	return c.do(http.MethodPost, endpoint, body, out)
}

func (c *Client) patch(endpoint string, body, out interface{}) error {
	return c.do(http.MethodPatch, endpoint, body, out)
}

func (c *Client) delete(endpoint string) error {
	return c.do(http.MethodDelete, endpoint, nil, nil)
}

func (c *Client) do(method, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %v", err)
	}
	return nil
}
