package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/progress"
	"github.com/aussiebroadwan/bulkinvite/pkg/httpx"
	"github.com/aussiebroadwan/bulkinvite/pkg/slogx"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// defaultFormDelayMS is the delay the upload form suggests.
const defaultFormDelayMS = 1000

// PagesHandler serves the browser front end: an upload form, a page that
// follows progress, and the plain-text log it polls.
type PagesHandler struct {
	Jobs    *JobsHandler
	Version string
}

type uploadPage struct {
	Version    string
	APIHost    string
	APIVersion string
	RoleID     string
	DelayMS    int
	Error      string
}

type displayPage struct {
	Sentinel string
}

func (h *PagesHandler) uploadPage(errText string) uploadPage {
	d := h.Jobs.Defaults.WithDefaults()
	return uploadPage{
		Version:    h.Version,
		APIHost:    d.APIHost,
		APIVersion: d.APIVersion,
		RoleID:     d.RoleID,
		DelayMS:    defaultFormDelayMS,
		Error:      errText,
	}
}

func (h *PagesHandler) render(w http.ResponseWriter, r *http.Request, code int, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		slogx.FromContext(r.Context()).Error("failed to render page", "page", name, "err", err)
		httpx.WriteText(w, http.StatusInternalServerError, "internal error\n")
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

// HandleForm renders the upload form.
func (h *PagesHandler) HandleForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "upload.html", h.uploadPage(""))
}

// HandleSubmit starts a job from the form and redirects to the display page.
// A rejected submission renders the form again with the reason.
func (h *PagesHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if _, rerr := h.Jobs.start(w, r); rerr != nil {
		h.render(w, r, rerr.Status, "upload.html", h.uploadPage(rerr.Description))
		return
	}
	http.Redirect(w, r, "/display_stream", http.StatusSeeOther)
}

// HandleDisplay renders the page that follows the progress log.
func (h *PagesHandler) HandleDisplay(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "display.html", displayPage{Sentinel: progress.Sentinel})
}

// HandleStreamOutput returns the whole progress log as plain text.
func (h *PagesHandler) HandleStreamOutput(w http.ResponseWriter, r *http.Request) {
	writeProgress(w, h.Jobs.Runner.Progress(0))
}
