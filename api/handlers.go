package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/wayfarer/wayfarer/chatbot"
	"github.com/wayfarer/wayfarer/internal/metrics"
	"github.com/wayfarer/wayfarer/recommend"
)

const maxChatBodySize = 4 << 10

// Health handles GET /health. The service is healthy without a model; the
// recommend field reports whether one is loaded.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	status := "unavailable"
	if a.recommend.Available() {
		status = "ok"
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Recommend: status})
}

// Recommend handles GET /recommend?city=<name>&topn=<n>.
func (a *API) Recommend(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	city := query.Get("city")
	if city == "" {
		metrics.RecordRecommendLookup("bad_request")
		writeError(w, http.StatusBadRequest, "missing required query parameter: city")
		return
	}
	topN := a.defaultTopN
	if query.Has("topn") {
		n, err := strconv.Atoi(query.Get("topn"))
		if err != nil {
			metrics.RecordRecommendLookup("bad_request")
			writeError(w, http.StatusBadRequest, "topn must be an integer")
			return
		}
		topN = n
	}

	idx, err := a.recommend.Index()
	if err != nil {
		metrics.RecordRecommendLookup("unavailable")
		a.mapError(w, r, err)
		return
	}
	label, err := idx.Resolve(city)
	if err != nil {
		if errors.Is(err, recommend.ErrNotFound) {
			metrics.RecordRecommendLookup("not_found")
			writeError(w, http.StatusNotFound, fmt.Sprintf("City '%s' not found", city))
			return
		}
		a.mapError(w, r, err)
		return
	}
	matches, err := idx.TopN(label, topN)
	if err != nil {
		a.mapError(w, r, err)
		return
	}

	resp := RecommendResponse{QueryCity: label, Results: make([]RecommendResult, len(matches))}
	for i, m := range matches {
		resp.Results[i] = RecommendResult{
			City:     m.Label,
			Duration: m.Attributes.Duration,
			Time:     m.Attributes.Time,
			Score:    m.Score,
		}
	}
	metrics.RecordRecommendLookup("hit")
	writeJSON(w, http.StatusOK, resp)
}

// Chatbot handles POST /chatbot.
func (a *API) Chatbot(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[ChatRequest](w, r, maxChatBodySize)
	if !ok {
		return
	}
	reply := chatbot.Fallback
	rule, matched := a.chatbot.Match(req.Message)
	if matched {
		reply = rule.Response
	}
	metrics.RecordChatbotReply(rule.Name)
	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply})
}

// ListComments handles GET /comments for the signed-in user.
func (a *API) ListComments(w http.ResponseWriter, r *http.Request) {
	list, err := a.comments.List(r.Context(), subjectFromContext(r.Context()))
	if err != nil {
		a.mapError(w, r, err)
		return
	}
	limit, offset := parsePagination(r)
	page, meta := paginate(list, limit, offset)
	writeJSON(w, http.StatusOK, ListCommentsResponse{Comments: page, PaginationMeta: meta})
}

// PostComment handles POST /comments. The stored body is the sanitised form.
func (a *API) PostComment(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[CommentRequest](w, r, maxBodySize)
	if !ok {
		return
	}
	author := subjectFromContext(r.Context())
	c, err := a.comments.Post(r.Context(), author, req.Body)
	if err != nil {
		a.mapError(w, r, err)
		return
	}
	metrics.RecordCommentPosted()
	a.audit.logEvent(AuditCommentPosted, r, author)
	writeJSON(w, http.StatusCreated, c)
}
