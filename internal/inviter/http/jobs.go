package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/domain"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/service"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/staging"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/store"
	"github.com/aussiebroadwan/bulkinvite/pkg/httpx"
	"github.com/aussiebroadwan/bulkinvite/pkg/invitersdk"
	"github.com/aussiebroadwan/bulkinvite/pkg/slogx"
)

const maxListLimit = 500

type JobsHandler struct {
	Runner *service.Runner
	Stager *staging.Stager
	Jobs   store.Jobs

	Defaults       domain.JobConfig
	MaxUploadBytes int64
}

var errJobRunning = &requestError{
	Status:      http.StatusConflict,
	Code:        invitersdk.CodeJobRunning,
	Description: "a job is already running",
}

// start parses, stages and submits an upload. The upload page and the API
// share it and differ only in how they render the outcome.
func (h *JobsHandler) start(w http.ResponseWriter, r *http.Request) (domain.JobStatus, *requestError) {
	log := slogx.FromContext(r.Context())

	sub, rerr := parseSubmission(w, r, h.MaxUploadBytes, h.Defaults)
	if rerr != nil {
		return domain.JobStatus{}, rerr
	}
	defer sub.File.Close()

	// Fail fast before copying the upload to disk
	if h.Runner.Active() {
		return domain.JobStatus{}, errJobRunning
	}

	list, err := h.Stager.Stage(sub.FileName, sub.File)
	switch {
	case errors.Is(err, staging.ErrBusy):
		return domain.JobStatus{}, errJobRunning
	case errors.Is(err, staging.ErrEmpty):
		return domain.JobStatus{}, badRequest("file is empty")
	case errors.Is(err, staging.ErrTooLarge):
		return domain.JobStatus{}, &requestError{
			Status:      http.StatusRequestEntityTooLarge,
			Code:        invitersdk.CodeTooLarge,
			Description: "file exceeds " + strconv.FormatInt(h.Stager.MaxBytes, 10) + " bytes",
		}
	case err != nil:
		log.Error("failed to stage list", "err", err)
		return domain.JobStatus{}, &requestError{
			Status:      http.StatusInternalServerError,
			Code:        invitersdk.CodeServerError,
			Description: "failed to store upload",
		}
	}

	status, err := h.Runner.Submit(r.Context(), sub.Config, list)
	if err != nil {
		_ = list.Close()
		switch {
		case errors.Is(err, service.ErrJobRunning):
			return domain.JobStatus{}, errJobRunning
		case errors.Is(err, domain.ErrInvalidJobConfig):
			return domain.JobStatus{}, badRequest(err.Error())
		}
		log.Error("failed to submit job", "err", err)
		return domain.JobStatus{}, &requestError{
			Status:      http.StatusInternalServerError,
			Code:        invitersdk.CodeServerError,
			Description: "failed to start job",
		}
	}

	log.Info("job submitted", "job_id", status.ID, "source", sub.FileName, "dry_run", status.DryRun)
	return status, nil
}

// HandleSubmit godoc
//
//	@Summary		Submit Job
//	@Description	Upload a recipient list and start a reconciliation job. Only one job runs at a time.
//	@Tags			Jobs
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			username	formData	string	true	"Directory username"
//	@Param			password	formData	string	true	"Directory password"
//	@Param			apihost		formData	string	false	"Directory API host"
//	@Param			apiversion	formData	string	false	"Directory API version"
//	@Param			roleid		formData	string	false	"Role granted to invitees"
//	@Param			dryrun		formData	string	false	"Set to 'on' to simulate without mutations"
//	@Param			delay		formData	int		false	"Pause after each invitation in ms (0-10000)"
//	@Param			file		formData	file	true	"CSV list: first_name,last_name,email"
//	@Success		202			{object}	invitersdk.JobStatus	"job accepted"
//	@Failure		400			{object}	invitersdk.ErrorResponse	"error, error_description"
//	@Failure		409			{object}	invitersdk.ErrorResponse	"a job is already running"
//	@Failure		413			{object}	invitersdk.ErrorResponse	"upload too large"
//	@Router			/v1/jobs [post].
func (h *JobsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	status, rerr := h.start(w, r)
	if rerr != nil {
		rerr.write(w)
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, toStatusResponse(status))
}

// HandleCurrent godoc
//
//	@Summary		Current Job
//	@Description	Structured status of the running job, or of the last one to finish
//	@Tags			Jobs
//	@Produce		json
//	@Success		200	{object}	invitersdk.JobStatus
//	@Failure		404	{object}	invitersdk.ErrorResponse	"no job since start"
//	@Router			/v1/jobs/current [get].
func (h *JobsHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	status, ok := h.Runner.Status()
	if !ok {
		httpx.WriteJSON(w, http.StatusNotFound, invitersdk.ErrorResponse{
			Error:            invitersdk.CodeNotFound,
			ErrorDescription: "no job has run since start",
		})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toStatusResponse(status))
}

// HandleProgress godoc
//
//	@Summary		Job Progress
//	@Description	Progress log lines after offset, one per line. X-Progress-Offset carries the offset for the next call,
//	@Description	X-Progress-Job the id of the job that wrote the log, and X-Progress-Finished is "true" once that job has ended.
//	@Tags			Jobs
//	@Produce		plain
//	@Param			offset	query		int		false	"Lines already read"
//	@Success		200		{string}	string	"progress lines"
//	@Failure		400		{object}	invitersdk.ErrorResponse	"invalid offset"
//	@Router			/v1/jobs/current/progress [get].
func (h *JobsHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest("offset must be a non-negative integer").write(w)
			return
		}
		offset = n
	}

	writeProgress(w, h.Runner.Progress(offset))
}

func writeProgress(w http.ResponseWriter, page service.ProgressPage) {
	var b strings.Builder
	for _, l := range page.Lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}

	w.Header().Set(invitersdk.HeaderProgressOffset, strconv.Itoa(page.Offset))
	w.Header().Set(invitersdk.HeaderProgressJob, page.JobID)
	w.Header().Set(invitersdk.HeaderProgressFinished, strconv.FormatBool(page.Finished))
	httpx.WriteText(w, http.StatusOK, b.String())
}

// HandleCancel godoc
//
//	@Summary		Cancel Job
//	@Description	Ask the running job to stop. It ends in the cancelled state after its current call returns.
//	@Tags			Jobs
//	@Produce		json
//	@Success		202	{object}	invitersdk.JobStatus
//	@Failure		404	{object}	invitersdk.ErrorResponse	"no job running"
//	@Router			/v1/jobs/current [delete].
func (h *JobsHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	if !h.Runner.Cancel() {
		httpx.WriteJSON(w, http.StatusNotFound, invitersdk.ErrorResponse{
			Error:            invitersdk.CodeNotFound,
			ErrorDescription: "no job is running",
		})
		return
	}

	slogx.FromContext(r.Context()).Info("job cancellation requested")

	status, _ := h.Runner.Status()
	httpx.WriteJSON(w, http.StatusAccepted, toStatusResponse(status))
}

// HandleList godoc
//
//	@Summary		Job History
//	@Description	Recorded jobs, newest first
//	@Tags			Jobs
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum number of jobs (default 20, max 500)"
//	@Success		200		{object}	invitersdk.JobList
//	@Failure		400		{object}	invitersdk.ErrorResponse	"invalid limit"
//	@Failure		500		{object}	invitersdk.ErrorResponse	"error, error_description"
//	@Router			/v1/jobs [get].
func (h *JobsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest("limit must be a non-negative integer").write(w)
			return
		}
		limit = min(n, maxListLimit)
	}

	jobs, err := h.Jobs.ListJobs(r.Context(), limit)
	if err != nil {
		log.Error("failed to list jobs", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, invitersdk.ErrorResponse{
			Error:            invitersdk.CodeServerError,
			ErrorDescription: "failed to list jobs",
		})
		return
	}

	resp := invitersdk.JobList{Jobs: make([]invitersdk.Job, 0, len(jobs))}
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, toJobResponse(j))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet godoc
//
//	@Summary		Get Job
//	@Description	One recorded job by id
//	@Tags			Jobs
//	@Produce		json
//	@Param			id	path		string	true	"Job ID"
//	@Success		200	{object}	invitersdk.Job
//	@Failure		404	{object}	invitersdk.ErrorResponse	"unknown job"
//	@Failure		500	{object}	invitersdk.ErrorResponse	"error, error_description"
//	@Router			/v1/jobs/{id} [get].
func (h *JobsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	job, err := h.Jobs.GetJob(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		httpx.WriteJSON(w, http.StatusNotFound, invitersdk.ErrorResponse{
			Error:            invitersdk.CodeNotFound,
			ErrorDescription: "job not found",
		})
		return
	}
	if err != nil {
		log.Error("failed to get job", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, invitersdk.ErrorResponse{
			Error:            invitersdk.CodeServerError,
			ErrorDescription: "failed to get job",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toJobResponse(job))
}
