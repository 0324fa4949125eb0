// Package backend is the HTTP client for the vector-database admin API.
// It covers authentication, customer administration, and the raw
// database endpoints (collections, cluster, telemetry) the console
// renders. All methods take a context and return explicit errors;
// non-2xx responses surface as *APIError.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/vdbops/vantage/internal/httpkit"
)

// Client talks to the admin API. The bearer token is mutable at
// runtime (login, logout, expiry) and guarded for concurrent use by
// the refresh poller and request handlers.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.RWMutex
	token string
}

// NewClient creates an admin API client. The URL should include the
// scheme and host (e.g., "http://localhost:8000"). An optional static
// API key is sent as X-API-Key on every request; the bearer token is
// set after login via SetToken.
func NewClient(baseURL, apiKey string, insecureTLS bool, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []httpkit.ClientOption{
		httpkit.WithTimeout(15 * time.Second),
	}
	if insecureTLS {
		opts = append(opts, httpkit.WithTLSInsecureSkipVerify())
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpkit.NewClient(opts...),
		logger:     logger,
	}
}

// SetToken installs the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the bearer token. Subsequent authenticated calls
// will fail with a 401 until a new login.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the current bearer token, or "" when logged out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// doJSON performs one request against the API. A non-nil body is JSON
// encoded; a non-nil out receives the decoded response. Non-2xx
// responses are returned as *APIError with the backend's detail
// message when present.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// readAPIError turns a non-2xx response into an *APIError, preferring
// the backend's {"detail": ...} message over the raw body.
func readAPIError(resp *http.Response) error {
	raw := httpkit.ReadErrorBody(resp.Body, 512)

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err == nil && payload.Detail != "" {
		return &APIError{Status: resp.StatusCode, Detail: payload.Detail}
	}
	return &APIError{Status: resp.StatusCode, Detail: raw}
}

// Login exchanges credentials for a bearer token and installs it on
// the client.
func (c *Client) Login(ctx context.Context, username, password string) (TokenResponse, error) {
	var token TokenResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &token); err != nil {
		return TokenResponse{}, err
	}
	c.SetToken(token.AccessToken)
	return token, nil
}

// Logout invalidates the server-side session. The caller clears local
// state regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Me returns the identity behind the current token. A 401 here means
// the token is expired or revoked.
func (c *Client) Me(ctx context.Context) (UserInfo, error) {
	var info UserInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &info); err != nil {
		return UserInfo{}, err
	}
	return info, nil
}

// ChangePassword updates the operator's password. The token remains
// valid afterwards.
func (c *Client) ChangePassword(ctx context.Context, current, updated string) error {
	body := map[string]string{"current_password": current, "new_password": updated}
	return c.doJSON(ctx, http.MethodPost, "/api/auth/change-password", body, nil)
}

// Status asks the backend whether the vector database is reachable,
// and for its version when it is.
func (c *Client) Status(ctx context.Context) (StatusResult, error) {
	var envelope struct {
		Status string `json:"status"`
		Error  string `json:"error"`
		Data   struct {
			Version string `json:"version"`
		} `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/qdrant/status", nil, &envelope); err != nil {
		return StatusResult{}, err
	}
	return StatusResult{
		Status:  envelope.Status,
		Error:   envelope.Error,
		Version: envelope.Data.Version,
	}, nil
}

// ListCollections returns the names of all collections in the database.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	var envelope struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/qdrant/collections", nil, &envelope); err != nil {
		return nil, err
	}
	names := make([]string, len(envelope.Result.Collections))
	for i, col := range envelope.Result.Collections {
		names[i] = col.Name
	}
	return names, nil
}

// CollectionInfo fetches the point count and vector schema for one
// collection.
func (c *Client) CollectionInfo(ctx context.Context, name string) (Collection, error) {
	if !ValidCollectionName(name) {
		return Collection{}, &ValidationError{Field: "collection name", Reason: "must contain only letters, numbers, underscores, and hyphens"}
	}
	var envelope struct {
		Result struct {
			PointsCount int64            `json:"points_count"`
			Config      CollectionConfig `json:"config"`
		} `json:"result"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/qdrant/collections/"+name, nil, &envelope); err != nil {
		return Collection{}, err
	}
	return Collection{
		Name:        name,
		PointsCount: envelope.Result.PointsCount,
		Config:      envelope.Result.Config,
	}, nil
}

// CreateCollection creates a collection with the given vector schema.
func (c *Client) CreateCollection(ctx context.Context, name string, spec CollectionSpec) error {
	if !ValidCollectionName(name) {
		return &ValidationError{Field: "collection name", Reason: "must contain only letters, numbers, underscores, and hyphens"}
	}
	return c.doJSON(ctx, http.MethodPost, "/api/qdrant/collections/"+name, spec, nil)
}

// DeleteCollection removes a collection and all its points. This is
// irreversible; callers are expected to have confirmed intent.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	if !ValidCollectionName(name) {
		return &ValidationError{Field: "collection name", Reason: "must contain only letters, numbers, underscores, and hyphens"}
	}
	return c.doJSON(ctx, http.MethodDelete, "/api/qdrant/collections/"+name, nil, nil)
}

// ClusterInfo returns the database cluster snapshot: peer identity and
// raft role.
func (c *Client) ClusterInfo(ctx context.Context) (ClusterInfo, error) {
	var envelope struct {
		Result ClusterInfo `json:"result"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/qdrant/cluster", nil, &envelope); err != nil {
		return ClusterInfo{}, err
	}
	return envelope.Result, nil
}

// Telemetry returns the database's self-reported runtime metrics.
func (c *Client) Telemetry(ctx context.Context) (Telemetry, error) {
	var envelope struct {
		Result Telemetry `json:"result"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/qdrant/telemetry", nil, &envelope); err != nil {
		return Telemetry{}, err
	}
	return envelope.Result, nil
}

// EnrichCollections fetches per-collection detail for every name
// concurrently and merges the results. A failed detail fetch yields a
// name-only entry with zero counts rather than failing the whole
// listing; the failure is logged and the page still renders.
func (c *Client) EnrichCollections(ctx context.Context, names []string) []Collection {
	collections := make([]Collection, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			detail, err := c.CollectionInfo(ctx, name)
			if err != nil {
				c.logger.Warn("collection detail fetch failed",
					"collection", name,
					"error", err)
				collections[i] = Collection{Name: name}
				return
			}
			collections[i] = detail
		}(i, name)
	}
	wg.Wait()

	return collections
}

// ListCustomers returns all customers with their usage figures.
func (c *Client) ListCustomers(ctx context.Context) (CustomerList, error) {
	var list CustomerList
	if err := c.doJSON(ctx, http.MethodGet, "/api/customers", nil, &list); err != nil {
		return CustomerList{}, err
	}
	return list, nil
}

// CustomerStats returns aggregate usage statistics across all
// customers.
func (c *Client) CustomerStats(ctx context.Context) (CustomerStats, error) {
	var stats CustomerStats
	if err := c.doJSON(ctx, http.MethodGet, "/api/customers/stats", nil, &stats); err != nil {
		return CustomerStats{}, err
	}
	return stats, nil
}

// GetCustomer fetches one customer by ID.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (Customer, error) {
	var customer Customer
	if err := c.doJSON(ctx, http.MethodGet, "/api/customers/"+customerID, nil, &customer); err != nil {
		return Customer{}, err
	}
	return customer, nil
}

// CreateCustomer provisions a new customer. The backend allocates the
// ID and the dedicated collection.
func (c *Client) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (CreateCustomerResult, error) {
	var result CreateCustomerResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/customers", req, &result); err != nil {
		return CreateCustomerResult{}, err
	}
	return result, nil
}

// UpdateCustomer updates customer fields. Only the keys present in
// fields are changed; recognized keys are name, email, quota_mb, and
// active.
func (c *Client) UpdateCustomer(ctx context.Context, customerID string, fields map[string]any) (Customer, error) {
	var customer Customer
	if err := c.doJSON(ctx, http.MethodPut, "/api/customers/"+customerID, fields, &customer); err != nil {
		return Customer{}, err
	}
	return customer, nil
}

// DeleteCustomer removes a customer and their collection. Irreversible.
func (c *Client) DeleteCustomer(ctx context.Context, customerID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/customers/"+customerID, nil, nil)
}

// ListDocuments returns the documents stored for one customer, grouped
// from their chunks.
func (c *Client) ListDocuments(ctx context.Context, customerID string) (DocumentList, error) {
	var list DocumentList
	if err := c.doJSON(ctx, http.MethodGet, "/api/customers/"+customerID+"/documents", nil, &list); err != nil {
		return DocumentList{}, err
	}
	return list, nil
}

// UploadDocument streams a file into a customer's collection as a
// multipart form. The description is optional metadata stored with
// each chunk.
func (c *Client) UploadDocument(ctx context.Context, customerID, filename, description string, content io.Reader) (UploadResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return UploadResult{}, fmt.Errorf("read upload: %w", err)
	}
	if description != "" {
		if err := writer.WriteField("description", description); err != nil {
			return UploadResult{}, fmt.Errorf("build form: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("build form: %w", err)
	}

	path := "/api/customers/" + customerID + "/upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return UploadResult{}, fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("request %s: %w", path, err)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return UploadResult{}, readAPIError(resp)
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return UploadResult{}, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}
