// Package handler exposes the HTTP surface: request parsing and validation,
// calling into the services, and mapping service errors to status codes.
package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"classledger/internal/apperr"
	"classledger/internal/attendance"
	"classledger/internal/school"
)

var marksTotal = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "classledger_attendance_marks_total",
	Help: "Attendance records accepted by the mark endpoint.",
})

func init() {
	prometheus.MustRegister(marksTotal)
}

// AuthConfig carries what the handlers need to issue tokens.
type AuthConfig struct {
	Issuer     string
	SigningKey string
	TokenTTL   time.Duration
}

// Handler holds the services behind the HTTP surface.
type Handler struct {
	school *school.Service
	att    *attendance.Service
	auth   AuthConfig
}

// New creates a handler.
func New(schoolSvc *school.Service, attSvc *attendance.Service, auth AuthConfig) *Handler {
	return &Handler{school: schoolSvc, att: attSvc, auth: auth}
}

// writeError maps a service error to an HTTP response. Store-layer causes are
// logged, never echoed to the client.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.Validation:
		status = http.StatusBadRequest
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Conflict:
		status = http.StatusConflict
	case apperr.Unauthorized:
		status = http.StatusUnauthorized
	default:
		log.Printf("internal error: %v", err)
	}
	c.JSON(status, gin.H{"message": apperr.Message(err)})
}

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// validID reports whether s parses as a UUID. IDs are checked before they
// reach query filters.
func validID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
