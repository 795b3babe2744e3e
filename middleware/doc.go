// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status,
duration_ms). WebSocket upgrades pass through the wrapper.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(cfg.AllowedOrigin)(mux),
	}

An empty origin reflects the caller's Origin header. Allows methods GET,
POST, PUT, DELETE, OPTIONS with headers Content-Type, Authorization.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Actions answer with a notification:

	middleware.Notify(w, http.StatusOK, "Vote recorded", "", poll)
	middleware.NotifyError(w, http.StatusConflict, "Vote failed", msg)
	middleware.ValidationErrorResponse(w, fields)

Parse JSON request bodies (capped at 1 MiB):

	var req models.VoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Cookie Consent

HasConsent reads the cookie_consent cookie; SetConsent stores it.

# Client IP Extraction

	ip := middleware.GetClientIP(r)

Handles X-Forwarded-For and X-Real-IP. Used in request logs.
*/
package middleware
