package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	appErrors "github.com/noah-isme/attendance-request-api/pkg/errors"
)

// DefaultAttachmentMaxBytes caps leave attachments at 5 MiB.
const DefaultAttachmentMaxBytes int64 = 5 * 1024 * 1024

var attachmentExtensions = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

// AttachmentAccept lists what the leave form accepts.
var AttachmentAccept = []string{"image/*", ".pdf", ".doc", ".docx"}

// Attachment is an uploaded leave document.
type Attachment struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// inspectAttachment checks size and type before anything is uploaded. It returns the storage
// extension (without dot) and a reader that replays the sniffed header.
func inspectAttachment(a *Attachment, maxBytes int64) (string, io.Reader, error) {
	if a == nil || a.Content == nil {
		return "", nil, appErrors.Clone(appErrors.ErrValidation, "attachment is empty")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultAttachmentMaxBytes
	}
	if a.Size > maxBytes {
		return "", nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("File size must be less than %dMB", maxBytes/(1024*1024)))
	}

	ext := strings.ToLower(filepath.Ext(a.Filename))
	declared, known := attachmentExtensions[ext]
	if !known {
		return "", nil, appErrors.Clone(appErrors.ErrValidation, "Only images, PDF and Word documents are allowed")
	}

	header := make([]byte, 512)
	n, err := io.ReadFull(a.Content, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect file")
	}
	if n == 0 {
		return "", nil, appErrors.Clone(appErrors.ErrValidation, "attachment is empty")
	}
	header = header[:n]
	if !sniffMatches(declared, http.DetectContentType(header)) {
		return "", nil, appErrors.Clone(appErrors.ErrValidation, "file content does not match its extension")
	}

	body := io.MultiReader(bytes.NewReader(header), a.Content)
	return strings.TrimPrefix(ext, "."), &cappedReader{r: body, remaining: maxBytes}, nil
}

var errAttachmentTooLarge = errors.New("attachment exceeds size limit")

// cappedReader fails once more than remaining bytes were read, covering clients that
// under-report the declared size.
type cappedReader struct {
	r         io.Reader
	remaining int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return n, errAttachmentTooLarge
	}
	return n, err
}

func sniffMatches(declared, sniffed string) bool {
	sniffed = strings.ToLower(strings.TrimSpace(strings.SplitN(sniffed, ";", 2)[0]))
	switch {
	case strings.HasPrefix(declared, "image/"):
		return strings.HasPrefix(sniffed, "image/")
	case declared == "application/pdf":
		return sniffed == "application/pdf"
	default:
		// Word documents sniff as OLE containers or zip archives.
		return sniffed == "application/octet-stream" || sniffed == "application/zip"
	}
}

// attachmentKey builds the bucket key {student_id}/{unix_millis}.{ext}.
func attachmentKey(studentID string, at time.Time, ext string) string {
	return fmt.Sprintf("%s/%d.%s", studentID, at.UnixMilli(), ext)
}
