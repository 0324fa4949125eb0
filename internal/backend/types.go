package backend

import (
	"encoding/json"
	"time"
)

// TokenResponse is the payload returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserInfo describes the authenticated operator, as reported by the
// backend's "who am I" endpoint.
type UserInfo struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Customer is a tenant of the vector-database service. All fields are
// computed server-side; the console never derives or mutates them
// locally, it only re-fetches.
type Customer struct {
	CustomerID     string  `json:"customer_id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	CollectionName string  `json:"collection_name"`
	QuotaMB        float64 `json:"quota_mb"`
	UsedMB         float64 `json:"used_mb"`
	RemainingMB    float64 `json:"remaining_mb"`
	UsagePercent   float64 `json:"usage_percent"`
	DocumentCount  int     `json:"document_count"`
	Active         bool    `json:"active"`
	CreatedAt      string  `json:"created_at"`
	LastUpload     string  `json:"last_upload"`
}

// CustomerList is the envelope for the customer listing endpoint.
type CustomerList struct {
	Customers []Customer `json:"customers"`
	Total     int        `json:"total"`
}

// CustomerStats holds aggregate usage statistics across all customers.
type CustomerStats struct {
	TotalCustomers  int     `json:"total_customers"`
	ActiveCustomers int     `json:"active_customers"`
	TotalQuotaMB    float64 `json:"total_quota_mb"`
	TotalUsedMB     float64 `json:"total_used_mb"`
	TotalDocuments  int     `json:"total_documents"`
	AvgUsagePercent float64 `json:"avg_usage_percent"`
}

// CreateCustomerRequest is the body for customer creation.
type CreateCustomerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	QuotaMB int    `json:"quota_mb"`
}

// CreateCustomerResult is the response to customer creation.
type CreateCustomerResult struct {
	Success  bool     `json:"success"`
	Customer Customer `json:"customer"`
}

// UploadResult is the response to a document upload.
type UploadResult struct {
	Success       bool    `json:"success"`
	Message       string  `json:"message"`
	FileName      string  `json:"file_name"`
	SizeMB        float64 `json:"size_mb"`
	ChunksCreated int     `json:"chunks_created"`
}

// Document is one uploaded file, grouped from its stored chunks.
type Document struct {
	Filename    string  `json:"filename"`
	Chunks      int     `json:"chunks"`
	Description string  `json:"description"`
	FileSizeMB  float64 `json:"file_size_mb"`
}

// DocumentList is the envelope for a customer's document listing.
type DocumentList struct {
	CustomerID     string     `json:"customer_id"`
	CollectionName string     `json:"collection_name"`
	Documents      []Document `json:"documents"`
	TotalDocuments int        `json:"total_documents"`
	TotalChunks    int        `json:"total_chunks"`
}

// StatusResult is the vector-database reachability report. Status is
// "online" or "offline"; Version is only present when online.
type StatusResult struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Version string `json:"-"`
}

// Online reports whether the backend considers the database reachable.
func (s StatusResult) Online() bool {
	return s.Status == "online"
}

// VectorParams is the vector schema of a collection: dimensionality and
// distance metric. Zero values mean the backend omitted the field.
type VectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

// CollectionConfig nests the vector parameters the way the database
// reports them. Absent levels unmarshal to zero values, never panic.
type CollectionConfig struct {
	Params struct {
		Vectors VectorParams `json:"vectors"`
	} `json:"params"`
}

// Collection is a named partition of vector entries, merged from the
// summary listing and the per-collection detail fetch.
type Collection struct {
	Name         string           `json:"name"`
	PointsCount  int64            `json:"points_count"`
	VectorsCount int64            `json:"vectors_count"`
	Config       CollectionConfig `json:"config"`
}

// CollectionSpec is the body for collection creation.
type CollectionSpec struct {
	Vectors       VectorParams `json:"vectors"`
	OnDiskPayload bool         `json:"on_disk_payload,omitempty"`
}

// ClusterInfo is a read-only snapshot of the database cluster state.
type ClusterInfo struct {
	PeerID   uint64 `json:"peer_id"`
	RaftInfo struct {
		Role string `json:"role"`
	} `json:"raft_info"`
}

// RaftRole returns the raft role, or "Standalone" when the node is not
// part of a cluster.
func (c ClusterInfo) RaftRole() string {
	if c.RaftInfo.Role == "" {
		return "Standalone"
	}
	return c.RaftInfo.Role
}

// TelemetryCollection is the per-collection slice of the telemetry
// payload. Only the vector count matters to the console.
type TelemetryCollection struct {
	VectorsCount int64 `json:"vectors_count"`
}

// telemetryCollections accepts both shapes the database emits for the
// collections field: a JSON array, or an object keyed by collection name.
type telemetryCollections []TelemetryCollection

func (t *telemetryCollections) UnmarshalJSON(data []byte) error {
	var asList []TelemetryCollection
	if err := json.Unmarshal(data, &asList); err == nil {
		*t = asList
		return nil
	}

	var asMap map[string]TelemetryCollection
	if err := json.Unmarshal(data, &asMap); err != nil {
		return err
	}
	list := make([]TelemetryCollection, 0, len(asMap))
	for _, c := range asMap {
		list = append(list, c)
	}
	*t = list
	return nil
}

// Telemetry is the database's self-reported runtime metrics.
type Telemetry struct {
	Collections telemetryCollections `json:"collections"`
	App         struct {
		MemoryUsage int64  `json:"memory_usage"`
		Status      string `json:"status"`
	} `json:"app"`
}

// TotalVectors sums vector counts across all collections in the
// telemetry payload.
func (t Telemetry) TotalVectors() int64 {
	var total int64
	for _, c := range t.Collections {
		total += c.VectorsCount
	}
	return total
}

// ParseTimestamp converts a backend ISO-8601 timestamp to a time.Time.
// Returns the zero time for empty or malformed input; the view layer
// renders those as a placeholder rather than erroring.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}
