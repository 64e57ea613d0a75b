package api

import (
	"github.com/wayfarer/wayfarer/accounts"
	"github.com/wayfarer/wayfarer/comments"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// OKResponse acknowledges a request with no other payload.
type OKResponse struct {
	OK bool `json:"ok"`
}

// SignupRequest is the JSON body for POST /auth/signup.
type SignupRequest = accounts.Registration

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// WhoAmIResponse is returned from POST /auth/login and GET /auth/whoami.
// Username is omitted when OK is false.
type WhoAmIResponse struct {
	OK       bool   `json:"ok"`
	Username string `json:"username,omitempty"`
}

// ProfileResponse is returned from GET /auth/profile.
type ProfileResponse = accounts.Profile

// RecommendResult is one ranked destination.
type RecommendResult struct {
	City     string  `json:"city"`
	Duration string  `json:"duration"`
	Time     string  `json:"time"`
	Score    float64 `json:"score"`
}

// RecommendResponse is returned from GET /recommend.
type RecommendResponse struct {
	QueryCity string            `json:"query_city"`
	Results   []RecommendResult `json:"results"`
}

// ChatRequest is the JSON body for POST /chatbot.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is returned from POST /chatbot.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// CommentRequest is the JSON body for POST /comments.
type CommentRequest struct {
	Body string `json:"body"`
}

// CommentResponse is one stored comment. Body is sanitised HTML.
type CommentResponse = comments.Comment

// ListCommentsResponse is returned from GET /comments.
type ListCommentsResponse struct {
	Comments []CommentResponse `json:"comments"`
	PaginationMeta
}

// HealthResponse is returned from GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Recommend string `json:"recommend"`
}
