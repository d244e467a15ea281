package security

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Error     string    `json:"error"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// SetSecureHeaders marks a response as not sniffable, not frameable and not
// cacheable.
func SetSecureHeaders(h http.Header) {
	h.Set(echo.HeaderXContentTypeOptions, "nosniff")
	h.Set(echo.HeaderXFrameOptions, "DENY")
	h.Set(echo.HeaderCacheControl, "no-store, no-cache, must-revalidate")
	h.Set("Pragma", "no-cache")
}

// Respond writes body as JSON with the secure header set.
func Respond(c echo.Context, status int, body any) error {
	SetSecureHeaders(c.Response().Header())
	return c.JSON(status, body)
}

// RespondError writes an ErrorBody with the current UTC timestamp.
func RespondError(c echo.Context, status int, label, details string) error {
	return Respond(c, status, ErrorBody{
		Error:     label,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}
