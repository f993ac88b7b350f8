// Package directory talks to the MDM platform's device directory: device
// attribute lookup and device-group assignment.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/relayops/mdmhook/audit"
)

// Audit action names for directory operations.
const (
	ActionGetDevice   = "get_device"
	ActionAssignGroup = "assign_device_group"
)

// Device is the subset of directory attributes reconciliation needs.
type Device struct {
	ID        string
	Name      string
	ModelName string
}

// Client is the directory contract the event router depends on.
type Client interface {
	GetDevice(ctx context.Context, deviceID string) (*Device, audit.Record)
	AssignGroup(ctx context.Context, deviceID, groupName string) audit.Record
}

// APIClient implements Client against the platform's REST API using an
// API key as basic-auth username.
type APIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewAPIClient creates a directory client for the given API base URL.
func NewAPIClient(baseURL, apiKey string) *APIClient {
	return &APIClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type deviceResponse struct {
	Data struct {
		ID         json.Number `json:"id"`
		Attributes struct {
			Name      string `json:"name"`
			ModelName string `json:"model_name"`
		} `json:"attributes"`
	} `json:"data"`
}

type groupListResponse struct {
	Data []struct {
		ID         json.Number `json:"id"`
		Attributes struct {
			Name string `json:"name"`
		} `json:"attributes"`
	} `json:"data"`
}

// GetDevice fetches device attributes. On any failure the device is nil
// and the record explains what went wrong; the caller decides whether to
// continue without attributes.
func (c *APIClient) GetDevice(ctx context.Context, deviceID string) (*Device, audit.Record) {
	info := audit.Detail{"device_id": deviceID}

	status, body, err := c.get(ctx, c.baseURL+"/devices/"+deviceID)
	if err != nil {
		return nil, audit.Failure(ActionGetDevice, info, audit.Detail{"error": err.Error()})
	}
	if status != http.StatusOK {
		return nil, audit.Failure(ActionGetDevice, info, audit.Detail{"step": "get_device", "code": status})
	}

	var resp deviceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, audit.Failure(ActionGetDevice, info, audit.Detail{"error": err.Error()})
	}

	device := &Device{
		ID:        resp.Data.ID.String(),
		Name:      resp.Data.Attributes.Name,
		ModelName: resp.Data.Attributes.ModelName,
	}
	return device, audit.Success(ActionGetDevice, info, audit.Detail{
		"name":       device.Name,
		"model_name": device.ModelName,
	})
}

// AssignGroup adds the device to the named group. The group listing is
// linear-scanned for an exact name match; first match wins. Group names
// are assumed unique in the directory. Three failures are distinguishable
// in the audit detail: the listing call failing, the name not being found,
// and the assignment call failing.
func (c *APIClient) AssignGroup(ctx context.Context, deviceID, groupName string) audit.Record {
	info := audit.Detail{"device_id": deviceID, "assign_group": groupName}

	status, body, err := c.get(ctx, c.baseURL+"/device_groups")
	if err != nil {
		return audit.Failure(ActionAssignGroup, info, audit.Detail{"error": err.Error()})
	}
	if status != http.StatusOK {
		return audit.Failure(ActionAssignGroup, info, audit.Detail{"step": "list_groups", "code": status})
	}

	var groups groupListResponse
	if err := json.Unmarshal(body, &groups); err != nil {
		return audit.Failure(ActionAssignGroup, info, audit.Detail{"error": err.Error()})
	}

	for _, group := range groups.Data {
		if group.Attributes.Name != groupName {
			continue
		}

		assignStatus, err := c.post(ctx, fmt.Sprintf("%s/device_groups/%s/devices/%s", c.baseURL, group.ID.String(), deviceID))
		if err != nil {
			return audit.Failure(ActionAssignGroup, info, audit.Detail{"error": err.Error()})
		}
		if assignStatus != http.StatusNoContent {
			return audit.Failure(ActionAssignGroup, info, audit.Detail{"step": "assign_device", "code": assignStatus})
		}
		return audit.Success(ActionAssignGroup, info, audit.Detail{"group_id": group.ID.String()})
	}

	return audit.Failure(ActionAssignGroup, info, audit.Detail{"reason": "GroupNotFound"})
}

func (c *APIClient) get(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("directory call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *APIClient) post(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("directory call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
