package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"newsrank/internal/models"
	"newsrank/internal/ranker"
)

type loginRequest struct {
	Username string `json:"username"`
}

type feedbackRequest struct {
	Username string `json:"username"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

type saveRequest struct {
	Username string `json:"username"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

type feedResponse struct {
	User     *models.User     `json:"user"`
	Page     int              `json:"page"`
	Ranking  *ranker.Ranking  `json:"ranking"`
	Articles []models.Article `json:"articles"`
}

type searchResponse struct {
	Query    string           `json:"query"`
	Page     int              `json:"page"`
	Articles []models.Article `json:"articles"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.readJSON(w, r, &req) {
		return
	}

	user, err := s.db.GetOrCreateUser(r.Context(), req.Username)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	s.writeJSON(w, r, http.StatusOK, user)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := s.db.GetOrCreateUser(ctx, chi.URLParam(r, "username"))
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	page := queryPage(r)
	sess := sessionFromContext(ctx)

	ranking, err := s.engine.Rank(ctx, user.ID, sess)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	articles, err := s.assembler.Assemble(ctx, ranking.Categories, page)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	s.writeJSON(w, r, http.StatusOK, feedResponse{
		User:     user,
		Page:     page,
		Ranking:  ranking,
		Articles: articles,
	})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req feedbackRequest
	if !s.readJSON(w, r, &req) {
		return
	}

	user, err := s.db.GetOrCreateUser(ctx, req.Username)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	sess := sessionFromContext(ctx)

	err = s.engine.RecordFeedback(ctx, user.ID, sess, req.Category, models.Action(req.Action))
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req saveRequest
	if !s.readJSON(w, r, &req) {
		return
	}

	user, err := s.db.GetOrCreateUser(ctx, req.Username)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	if err = s.engine.RecordSave(ctx, user.ID, req.Category); err != nil {
		s.writeError(w, r, err)

		return
	}

	if err = s.db.AppendSaved(ctx, user.ID, req.Title, req.URL, req.Category); err != nil {
		s.writeError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSaved(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := s.db.GetOrCreateUser(ctx, chi.URLParam(r, "username"))
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	articles, err := s.db.GetSavedArticles(ctx, user.ID)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	if articles == nil {
		articles = []models.SavedArticle{}
	}

	s.writeJSON(w, r, http.StatusOK, articles)
}

func (s *Server) handleUserMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := s.db.GetOrCreateUser(ctx, chi.URLParam(r, "username"))
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	stats, err := s.db.GetRewardStats(ctx, user.ID)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	s.writeJSON(w, r, http.StatusOK, stats)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "query is empty"})

		return
	}

	page := queryPage(r)

	articles, err := s.assembler.Search(r.Context(), query, page)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	s.writeJSON(w, r, http.StatusOK, searchResponse{
		Query:    query,
		Page:     page,
		Articles: articles,
	})
}

func queryPage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}

	return page
}

func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "malformed JSON body"})

		return false
	}

	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.ErrorContext(r.Context(), "Failed to encode response",
			"error", err,
			"path", r.URL.Path)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, ranker.ErrInvalidAction) || errors.Is(err, ranker.ErrUnknownCategory) {
		status = http.StatusBadRequest
	}

	if status >= http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "Request is failed",
			"error", err,
			"path", r.URL.Path)
	}

	s.writeJSON(w, r, status, errorResponse{Error: err.Error()})
}
