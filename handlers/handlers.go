package handlers

import (
	"net/http"

	"github.com/nijaru/yt-ask/answer"
	"github.com/nijaru/yt-ask/config"
	apperrors "github.com/nijaru/yt-ask/errors"
	"github.com/nijaru/yt-ask/metrics"
	"github.com/nijaru/yt-ask/middleware"
	"github.com/nijaru/yt-ask/transcription"
	"github.com/nijaru/yt-ask/utils"
	"github.com/nijaru/yt-ask/validation"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	StatusMessage = "Backend is running"

	videoIDRequired        = "video_id is required"
	questionFieldsRequired = "transcript and question are required"
)

type TranscriptRequest struct {
	VideoID string `json:"video_id"`
}

type TranscriptResponse struct {
	Transcript string `json:"transcript"`
}

type QuestionRequest struct {
	Transcript string `json:"transcript"`
	Question   string `json:"question"`
}

type AnswerResponse struct {
	Answer string `json:"answer"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

// Handler serves the relay endpoints. It holds no per-request state.
type Handler struct {
	fetcher   transcription.Fetcher
	generator *answer.Generator
	validator *validation.Validator
	metrics   *metrics.Metrics
	strict    bool
}

func New(cfg *config.Config, fetcher transcription.Fetcher, generator *answer.Generator, m *metrics.Metrics) *Handler {
	return &Handler{
		fetcher:   fetcher,
		generator: generator,
		validator: validation.NewValidator(cfg.MaxBodyBytes),
		metrics:   m,
		strict:    cfg.Strict(),
	}
}

// Routes registers every endpoint on a new ServeMux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /get_transcript", h.GetTranscript)
	mux.HandleFunc("POST /ask_question", h.AskQuestion)
	mux.HandleFunc("GET /{$}", h.Status)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}
	return mux
}

func (h *Handler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.GetTranscript"
	logger := middleware.GetLogger(r.Context())

	var req TranscriptRequest
	if err := h.validator.DecodeJSON(w, r, &req); err != nil {
		h.respondDecodeError(w, logger, err)
		return
	}
	if err := validation.Required(videoIDRequired, req.VideoID); err != nil {
		utils.RespondWithError(w, err)
		return
	}

	logger = logger.WithField("video_id", req.VideoID)

	fragments, err := h.fetcher.Fetch(r.Context(), req.VideoID)
	if err != nil {
		logger.WithError(err).Error("Transcript fetch failed")
		if !h.strict {
			utils.HandleError(w, utils.ErrorMessage(err), http.StatusBadRequest)
			return
		}
		if _, ok := apperrors.As(err); !ok {
			err = apperrors.Upstream(op, err, "")
		}
		utils.RespondWithError(w, err)
		return
	}

	logger.WithField("fragments", len(fragments)).Info("Transcript fetched")
	utils.RespondWithJSON(w, http.StatusOK, TranscriptResponse{
		Transcript: transcription.JoinText(fragments),
	})
}

func (h *Handler) AskQuestion(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	var req QuestionRequest
	if err := h.validator.DecodeJSON(w, r, &req); err != nil {
		h.respondDecodeError(w, logger, err)
		return
	}
	if err := validation.Required(questionFieldsRequired, req.Transcript, req.Question); err != nil {
		utils.RespondWithError(w, err)
		return
	}

	text, err := h.generator.Generate(r.Context(), req.Transcript, req.Question)
	if err != nil {
		logger.WithError(err).Error("Answer generation failed")
		if !h.strict {
			utils.HandleError(w, utils.ErrorMessage(err), http.StatusBadRequest)
			return
		}
		utils.RespondWithError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, AnswerResponse{Answer: text})
}

// Status is a liveness probe. It never checks dependencies.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, StatusResponse{Status: StatusMessage})
}

// respondDecodeError reports an unreadable body. Compat mode passes the
// decoder's own message through.
func (h *Handler) respondDecodeError(w http.ResponseWriter, logger logrus.FieldLogger, err error) {
	logger.WithError(err).Warn("Invalid request body")
	if !h.strict {
		utils.HandleError(w, errors.Cause(err).Error(), http.StatusBadRequest)
		return
	}
	utils.RespondWithError(w, err)
}
