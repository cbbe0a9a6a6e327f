// Package response writes the JSON envelope every API endpoint returns:
//
//	{"success":true,"status":200,"data":{...}}
//	{"success":false,"status":400,"message":"Validation failed","errors":{"lines":"..."}}
package response

import (
	"encoding/json"
	"net/http"

	"github.com/shashiranjanraj/billdesk/pkg/apperror"
)

// Pagination is the metadata attached to list responses.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination derives TotalPages from total and limit.
func NewPagination(page, limit int, total int64) *Pagination {
	p := &Pagination{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		p.TotalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return p
}

// Envelope is exported so tests can decode responses.
type Envelope struct {
	Success    bool              `json:"success"`
	Status     int               `json:"status"`
	Message    string            `json:"message,omitempty"`
	Data       json.RawMessage   `json:"data,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
	Pagination *Pagination       `json:"pagination,omitempty"`
}

type envelope struct {
	Success    bool              `json:"success"`
	Status     int               `json:"status"`
	Message    string            `json:"message,omitempty"`
	Data       interface{}       `json:"data,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
	Pagination *Pagination       `json:"pagination,omitempty"`
}

func write(w http.ResponseWriter, status int, body envelope) {
	body.Status = status
	body.Success = status < http.StatusBadRequest
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

func Success(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusOK, envelope{Data: data})
}

// Message sends a 200 with a message and optional data.
func Message(w http.ResponseWriter, message string, data interface{}) {
	write(w, http.StatusOK, envelope{Message: message, Data: data})
}

func Created(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusCreated, envelope{Data: data})
}

func Paginated(w http.ResponseWriter, data interface{}, p *Pagination) {
	write(w, http.StatusOK, envelope{Data: data, Pagination: p})
}

// Error sends an error envelope with message.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, envelope{Message: message})
}

// ValidationError sends a 400 with the field → message map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	write(w, http.StatusBadRequest, envelope{Message: "Validation failed", Errors: errs})
}

// Fail writes e using its Kind's status. The wrapped cause is never sent.
func Fail(w http.ResponseWriter, e *apperror.Error) {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Kind.Status())
	}
	write(w, e.Kind.Status(), envelope{Message: msg, Errors: e.Fields})
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

func Forbidden(w http.ResponseWriter) {
	Error(w, http.StatusForbidden, "Forbidden")
}

func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "Not found")
}
