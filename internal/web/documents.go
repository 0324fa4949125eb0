package web

import (
	"net/http"
	"net/url"
	"time"

	"github.com/vdbops/vantage/internal/backend"
	"github.com/vdbops/vantage/internal/events"
)

// maxUploadBytes caps document uploads at 50 MB, matching the
// backend's own limit.
const maxUploadBytes = 50 << 20

// DocumentsData is the template context for a customer's document page.
type DocumentsData struct {
	PageData
	Customer       backend.Customer
	Documents      []backend.Document
	TotalDocuments int
	TotalChunks    int
}

// handleDocuments renders the document list for one customer.
func (s *WebServer) handleDocuments(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	customer, err := s.backend.GetCustomer(r.Context(), id)
	if err != nil {
		s.logger.Error("customer fetch failed", "customer_id", id, "error", err)
		http.NotFound(w, r)
		return
	}

	data := DocumentsData{
		PageData: s.pageData("customers"),
		Customer: customer,
	}
	data.Error = r.URL.Query().Get("error")
	data.Notice = r.URL.Query().Get("notice")

	list, err := s.backend.ListDocuments(r.Context(), id)
	if err != nil {
		s.logger.Error("document list failed", "customer_id", id, "error", err)
		if data.Error == "" {
			data.Error = "Could not load documents: " + err.Error()
		}
	} else {
		data.Documents = list.Documents
		data.TotalDocuments = list.TotalDocuments
		data.TotalChunks = list.TotalChunks
	}

	s.render(w, r, "documents.html", data)
}

// handleDocumentUpload ingests one uploaded file into the customer's
// collection.
func (s *WebServer) handleDocumentUpload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		redirectDocuments(w, r, id, "error", "Choose a file to upload")
		return
	}
	defer file.Close()
	description := r.FormValue("description")

	result, err := s.backend.UploadDocument(r.Context(), id, header.Filename, description, file)
	if err != nil {
		s.logger.Error("document upload failed",
			"customer_id", id,
			"file", header.Filename,
			"error", err)
		redirectDocuments(w, r, id, "error", "Upload failed: "+err.Error())
		return
	}

	s.bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourceCustomers,
		Kind:      events.KindDocumentUploaded,
		Data: map[string]any{
			"customer_id": id,
			"file_name":   result.FileName,
			"chunks":      result.ChunksCreated,
		},
	})
	redirectDocuments(w, r, id, "notice", "Uploaded "+result.FileName)
}

func redirectDocuments(w http.ResponseWriter, r *http.Request, customerID, key, msg string) {
	http.Redirect(w, r, "/customers/"+customerID+"/documents?"+key+"="+url.QueryEscape(msg), http.StatusSeeOther)
}
