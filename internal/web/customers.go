package web

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vdbops/vantage/internal/backend"
	"github.com/vdbops/vantage/internal/events"
)

// CustomersData is the template context for the customer admin page.
type CustomersData struct {
	PageData
	Customers []backend.Customer
	Total     int
	Stats     backend.CustomerStats
	StatsOK   bool
}

// handleCustomers renders the customer list with aggregate stats. The
// two fetches fail independently: a broken stats endpoint still leaves
// a usable customer table.
func (s *WebServer) handleCustomers(w http.ResponseWriter, r *http.Request) {
	data := CustomersData{PageData: s.pageData("customers")}
	data.Error = r.URL.Query().Get("error")
	data.Notice = r.URL.Query().Get("notice")

	list, err := s.backend.ListCustomers(r.Context())
	if err != nil {
		s.logger.Error("customer list failed", "error", err)
		if data.Error == "" {
			data.Error = "Could not load customers: " + err.Error()
		}
	} else {
		data.Customers = list.Customers
		data.Total = list.Total
	}

	stats, err := s.backend.CustomerStats(r.Context())
	if err != nil {
		s.logger.Warn("customer stats failed", "error", err)
	} else {
		data.Stats = stats
		data.StatsOK = true
	}

	if r.Header.Get("HX-Request") == "true" && r.Header.Get("HX-Target") == "customers-tbody" {
		if s.renderBlock(w, "customers.html", "customers-tbody", data) {
			return
		}
	}

	s.render(w, r, "customers.html", data)
}

// handleCustomerCreate provisions a new customer from the form and
// returns to the list.
func (s *WebServer) handleCustomerCreate(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	email := r.FormValue("email")
	quotaMB, err := strconv.Atoi(r.FormValue("quota_mb"))
	if name == "" || email == "" || err != nil || quotaMB <= 0 {
		redirectCustomers(w, r, "error", "Name, email, and a positive quota are required")
		return
	}

	result, err := s.backend.CreateCustomer(r.Context(), backend.CreateCustomerRequest{
		Name:    name,
		Email:   email,
		QuotaMB: quotaMB,
	})
	if err != nil {
		s.logger.Error("customer create failed", "name", name, "error", err)
		redirectCustomers(w, r, "error", "Create failed: "+err.Error())
		return
	}

	s.bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourceCustomers,
		Kind:      events.KindCustomerCreated,
		Data: map[string]any{
			"customer_id": result.Customer.CustomerID,
			"name":        result.Customer.Name,
		},
	})
	redirectCustomers(w, r, "notice", "Created customer "+result.Customer.Name)
}

// handleCustomerDelete removes a customer and their collection.
func (s *WebServer) handleCustomerDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.backend.DeleteCustomer(r.Context(), id); err != nil {
		s.logger.Error("customer delete failed", "customer_id", id, "error", err)
		redirectCustomers(w, r, "error", "Delete failed: "+err.Error())
		return
	}

	s.bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourceCustomers,
		Kind:      events.KindCustomerDeleted,
		Data:      map[string]any{"customer_id": id},
	})
	redirectCustomers(w, r, "notice", "Customer deleted")
}

// handleCustomerToggle flips a customer's active flag.
func (s *WebServer) handleCustomerToggle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	active := r.FormValue("active") == "true"

	if _, err := s.backend.UpdateCustomer(r.Context(), id, map[string]any{"active": active}); err != nil {
		s.logger.Error("customer toggle failed", "customer_id", id, "error", err)
		redirectCustomers(w, r, "error", "Update failed: "+err.Error())
		return
	}
	redirectCustomers(w, r, "notice", "Customer updated")
}

// handleCustomerDetail serves the merged customer+documents view as
// JSON for the detail popup.
func (s *WebServer) handleCustomerDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	customer, err := s.backend.GetCustomer(r.Context(), id)
	if err != nil {
		s.logger.Error("customer fetch failed", "customer_id", id, "error", err)
		http.NotFound(w, r)
		return
	}

	// Documents are best-effort: the popup still shows quota and
	// contact info when the document listing is down.
	var docs []backend.Document
	if list, err := s.backend.ListDocuments(r.Context(), id); err != nil {
		s.logger.Warn("document list failed", "customer_id", id, "error", err)
	} else {
		docs = list.Documents
	}
	if docs == nil {
		docs = []backend.Document{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"customer":  customer,
		"documents": docs,
	})
}

func redirectCustomers(w http.ResponseWriter, r *http.Request, key, msg string) {
	http.Redirect(w, r, "/customers?"+key+"="+url.QueryEscape(msg), http.StatusSeeOther)
}
