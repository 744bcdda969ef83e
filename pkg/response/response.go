package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/attendance-request-api/pkg/errors"
)

// Notice variants understood by clients.
const (
	NoticeSuccess     = "success"
	NoticeDestructive = "destructive"
)

// Notice is a transient user-facing message rendered as a toast.
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Variant     string `json:"variant,omitempty"`
}

// Envelope represents the common response contract.
type Envelope struct {
	Data     interface{}            `json:"data,omitempty"`
	Error    *appErrors.Error       `json:"error,omitempty"`
	Notice   *Notice                `json:"notice,omitempty"`
	Redirect string                 `json:"redirect,omitempty"`
	Meta     map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response with optional metadata.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	noStore(c)
	envelope := Envelope{Data: data}
	if len(meta) > 0 && len(meta[0]) > 0 {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Flash sends a success payload together with a notice and an optional navigation target.
func Flash(c *gin.Context, status int, data interface{}, notice *Notice, redirect string) {
	noStore(c)
	c.JSON(status, Envelope{Data: data, Notice: notice, Redirect: redirect})
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// ErrorNotice sends an error response with a destructive notice and an optional redirect.
func ErrorNotice(c *gin.Context, err error, notice *Notice, redirect string) {
	appErr := appErrors.FromError(err)
	if notice != nil && notice.Variant == "" {
		notice.Variant = NoticeDestructive
	}
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr, Notice: notice, Redirect: redirect})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
