package web

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vdbops/vantage/internal/backend"
	"github.com/vdbops/vantage/internal/events"
)

// CollectionsData is the template context for the collections page.
type CollectionsData struct {
	PageData
	Collections []backend.Collection
}

// handleCollections renders the collection list with per-collection
// detail. Names come from one listing call; details are fetched
// concurrently, and a collection whose detail fetch failed still
// appears with zero counts.
func (s *WebServer) handleCollections(w http.ResponseWriter, r *http.Request) {
	data := CollectionsData{PageData: s.pageData("collections")}
	data.Error = r.URL.Query().Get("error")
	data.Notice = r.URL.Query().Get("notice")

	names, err := s.backend.ListCollections(r.Context())
	if err != nil {
		s.logger.Error("collection list failed", "error", err)
		if data.Error == "" {
			data.Error = "Could not load collections: " + err.Error()
		}
	} else {
		data.Collections = s.backend.EnrichCollections(r.Context(), names)
	}

	s.render(w, r, "collections.html", data)
}

// handleCollectionCreate creates a collection from the form: name,
// vector size, and distance metric.
func (s *WebServer) handleCollectionCreate(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	size, err := strconv.Atoi(r.FormValue("vector_size"))
	distance := r.FormValue("distance")
	if !backend.ValidCollectionName(name) {
		redirectCollections(w, r, "error", "Collection names may only contain letters, numbers, underscores, and hyphens")
		return
	}
	if err != nil || size <= 0 {
		redirectCollections(w, r, "error", "Vector size must be a positive number")
		return
	}
	if distance == "" {
		distance = "Cosine"
	}

	spec := backend.CollectionSpec{
		Vectors: backend.VectorParams{Size: size, Distance: distance},
	}
	if err := s.backend.CreateCollection(r.Context(), name, spec); err != nil {
		s.logger.Error("collection create failed", "collection", name, "error", err)
		redirectCollections(w, r, "error", "Create failed: "+err.Error())
		return
	}

	s.bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourceCollections,
		Kind:      events.KindCollectionCreated,
		Data:      map[string]any{"collection": name},
	})
	redirectCollections(w, r, "notice", "Created collection "+name)
}

// handleCollectionDelete drops a collection and all its points.
func (s *WebServer) handleCollectionDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := s.backend.DeleteCollection(r.Context(), name); err != nil {
		s.logger.Error("collection delete failed", "collection", name, "error", err)
		redirectCollections(w, r, "error", "Delete failed: "+err.Error())
		return
	}

	s.bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourceCollections,
		Kind:      events.KindCollectionDeleted,
		Data:      map[string]any{"collection": name},
	})
	redirectCollections(w, r, "notice", "Deleted collection "+name)
}

func redirectCollections(w http.ResponseWriter, r *http.Request, key, msg string) {
	http.Redirect(w, r, "/collections?"+key+"="+url.QueryEscape(msg), http.StatusSeeOther)
}
