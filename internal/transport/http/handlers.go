package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"vocab-quiz-service/internal/app"
	"vocab-quiz-service/internal/domain"
)

// Handler wires the quiz, progress, and review use cases into JSON routes.
type Handler struct {
	quiz     *app.QuizService
	progress *app.ProgressService
	review   *app.ReviewService
	feed     *app.ProgressFeed
	auth     Authenticator
}

func NewHandler(quiz *app.QuizService, progress *app.ProgressService, review *app.ReviewService, feed *app.ProgressFeed, auth Authenticator) *Handler {
	return &Handler{quiz: quiz, progress: progress, review: review, feed: feed, auth: auth}
}

// Routes registers every endpoint on a fresh mux. Everything under /api
// requires a resolved user.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/questions", h.requireUser(h.listQuestions))
	mux.HandleFunc("POST /api/answers", h.requireUser(h.validateAnswer))
	mux.HandleFunc("POST /api/sessions", h.requireUser(h.recordSession))

	mux.HandleFunc("POST /api/weaknesses", h.requireUser(h.addWeakness))
	mux.HandleFunc("DELETE /api/weaknesses", h.requireUser(h.removeWeakness))
	mux.HandleFunc("GET /api/weaknesses/questions", h.requireUser(h.weaknessQuestions))

	mux.HandleFunc("POST /api/reports", h.requireUser(h.submitReport))
	mux.HandleFunc("POST /api/reports/{id}/dismiss", h.requireUser(h.dismissReport))
	mux.HandleFunc("GET /api/reports/questions", h.requireUser(h.reportedQuestions))

	mux.HandleFunc("GET /api/progress/overview", h.requireUser(h.overview))
	mux.HandleFunc("GET /api/progress/feed", h.requireUser(h.serveFeed))
	return mux
}

func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, domain.ErrInvalidInput)
			return
		}
		limit = parsed
	}
	questions, err := h.quiz.Questions(r.Context(), r.URL.Query().Get("difficulty"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

type answerRequest struct {
	QuestionID  int64  `json:"questionId"`
	ChosenLabel string `json:"chosenLabel"`
}

func (h *Handler) validateAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	result, err := h.quiz.ValidateAnswer(r.Context(), req.QuestionID, req.ChosenLabel)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) recordSession(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	var in domain.SessionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	sessionID, err := h.progress.RecordSession(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"sessionId": sessionID})
}

type weaknessRequest struct {
	QuestionID int64 `json:"questionId"`
}

func (h *Handler) addWeakness(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	var req weaknessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	if err := h.review.AddWeakness(r.Context(), userID, req.QuestionID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": domain.WeaknessManualAdd})
}

func (h *Handler) removeWeakness(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	var req weaknessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	if err := h.review.RemoveWeakness(r.Context(), userID, req.QuestionID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": domain.WeaknessRemovedManual})
}

func (h *Handler) weaknessQuestions(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	questions, err := h.review.WeaknessQuestions(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

type reportRequest struct {
	QuestionID int64  `json:"questionId"`
	Reason     string `json:"reason"`
	Detail     string `json:"detail"`
}

func (h *Handler) submitReport(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	reportID, err := h.review.SubmitReport(r.Context(), userID, req.QuestionID, req.Reason, req.Detail)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"reportId": reportID})
}

func (h *Handler) dismissReport(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	reportID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	if err := h.review.DismissReport(r.Context(), userID, reportID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "dismissed"})
}

func (h *Handler) reportedQuestions(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	entries, err := h.review.ReportedQuestions(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	overview, err := h.progress.Overview(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Retryable
// transaction failures come back as 503 so clients know a resubmit of the
// identical payload is safe.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case app.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrCorruptQuestion):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSessionNotRecorded):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
