package http

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/domain"
	"github.com/aussiebroadwan/bulkinvite/pkg/httpx"
	"github.com/aussiebroadwan/bulkinvite/pkg/invitersdk"
)

const (
	// DefaultMaxUploadBytes caps a submission request body.
	DefaultMaxUploadBytes = 10<<20 + MultipartOverhead

	// MultipartOverhead is the room left for form fields and part headers
	// when the request cap is derived from a list size limit.
	MultipartOverhead = 64 << 10

	// multipartMemory is how much of an upload is held in memory before
	// spilling to a temp file.
	multipartMemory = 1 << 20
)

// requestError is a rejected request, already mapped to a status and code.
type requestError struct {
	Status      int
	Code        string
	Description string
}

func (e *requestError) Error() string { return e.Description }

func (e *requestError) write(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.Status, invitersdk.ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

func badRequest(desc string) *requestError {
	return &requestError{Status: http.StatusBadRequest, Code: invitersdk.CodeInvalidRequest, Description: desc}
}

// submission is a parsed upload. The caller closes File.
type submission struct {
	Config   domain.JobConfig
	File     multipart.File
	FileName string
}

// parseSubmission reads the multipart form shared by the upload page and
// POST /v1/jobs. Directory settings left empty take defaults.
func parseSubmission(w http.ResponseWriter, r *http.Request, maxBytes int64, defaults domain.JobConfig) (*submission, *requestError) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &requestError{
				Status:      http.StatusRequestEntityTooLarge,
				Code:        invitersdk.CodeTooLarge,
				Description: "upload exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes",
			}
		}
		return nil, badRequest("invalid multipart form")
	}

	// 1. Required fields
	username := r.PostFormValue("username")
	if username == "" {
		return nil, badRequest("username is required")
	}
	password := r.PostFormValue("password")
	if password == "" {
		return nil, badRequest("password is required")
	}

	// 2. Optional settings
	cfg := domain.JobConfig{
		Credentials: domain.Credentials{Username: username, Password: password},
		APIHost:     valueOr(r.PostFormValue("apihost"), defaults.APIHost),
		APIVersion:  valueOr(r.PostFormValue("apiversion"), defaults.APIVersion),
		RoleID:      valueOr(r.PostFormValue("roleid"), defaults.RoleID),
		DryRun:      r.PostFormValue("dryrun") == "on",
	}
	if v := strings.TrimSpace(r.PostFormValue("delay")); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return nil, badRequest("delay must be a whole number of milliseconds")
		}
		cfg.Delay = time.Duration(ms) * time.Millisecond
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, badRequest(err.Error())
	}

	// 3. The list itself
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, badRequest("file is required")
	}
	if header.Filename == "" {
		_ = file.Close()
		return nil, badRequest("file is required")
	}
	cfg.SourceName = header.Filename

	return &submission{Config: cfg, File: file, FileName: header.Filename}, nil
}

func valueOr(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
