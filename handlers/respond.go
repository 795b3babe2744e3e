// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/yourviews/backend"
	"github.com/danielhkuo/yourviews/export"
	"github.com/danielhkuo/yourviews/media"
	"github.com/danielhkuo/yourviews/middleware"
	"github.com/danielhkuo/yourviews/models"
	"github.com/danielhkuo/yourviews/queries"
	"github.com/danielhkuo/yourviews/session"
)

const msgAlreadyVoted = "You have already voted on this poll"

// identity returns the signed-in user of the request, or nil.
func identity(r *http.Request) *models.Identity {
	if s := session.FromContext(r.Context()); s != nil {
		return s.Identity()
	}
	return nil
}

// currentUserID returns the signed-in user's id, or "".
func currentUserID(r *http.Request) string {
	if id := identity(r); id != nil {
		return id.UserID
	}
	return ""
}

// render writes a page view with the visitor's identity and cookie banner
// state filled in.
func render(w http.ResponseWriter, r *http.Request, statusCode int, view models.View) {
	view.Identity = identity(r)
	view.ShowCookieBanner = !middleware.HasConsent(r)
	if view.Status == "" {
		view.Status = models.ViewSuccess
	}
	middleware.JSONResponse(w, statusCode, view)
}

// renderError maps a failed page read to a not-found or error view. back
// is offered as the way out of a not-found page.
func renderError(w http.ResponseWriter, r *http.Request, page string, err error, back models.Link) {
	if errors.Is(err, backend.ErrNotFound) {
		render(w, r, http.StatusNotFound, models.View{
			Page:    page,
			Status:  models.ViewNotFound,
			Error:   "The page you're looking for doesn't exist or has been removed.",
			Actions: []models.Link{back},
		})
		return
	}

	slog.Error("page load failed", "page", page, "error", err)
	render(w, r, errorStatus(err), models.View{
		Page:   page,
		Status: models.ViewError,
		Error:  backend.Message(err),
	})
}

// errorStatus picks the HTTP status for an error returned by the data layer.
func errorStatus(err error) int {
	var (
		authErr *session.AuthError
		beErr   *backend.Error
	)
	switch {
	case errors.Is(err, backend.ErrNotFound),
		errors.Is(err, backend.ErrUnknownDataset),
		errors.Is(err, export.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, backend.ErrAlreadyVoted),
		errors.Is(err, backend.ErrEmailTaken),
		errors.Is(err, backend.ErrPollClosed):
		return http.StatusConflict
	case errors.Is(err, backend.ErrInvalidOption),
		errors.Is(err, backend.ErrInvalidToken),
		errors.Is(err, media.ErrUnsupportedType):
		return http.StatusBadRequest
	case errors.Is(err, backend.ErrInvalidCredentials), errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.Is(err, media.ErrDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, queries.ErrInvalidResponse), errors.As(err, &beErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// actionError answers a failed action with a destructive notification, or
// field errors for invalid input.
func actionError(w http.ResponseWriter, title string, err error) {
	var verr *queries.ValidationError
	if errors.As(err, &verr) {
		middleware.ValidationErrorResponse(w, verr.Fields)
		return
	}

	middleware.NotifyError(w, errorStatus(err), title, errorMessage(err))
}

// errorMessage is the user-facing text of err. Backend messages are kept
// verbatim.
func errorMessage(err error) string {
	var beErr *backend.Error
	switch {
	case errors.Is(err, backend.ErrAlreadyVoted):
		return msgAlreadyVoted
	case errors.Is(err, export.ErrNoData):
		return "There is no data to export."
	case errors.As(err, &beErr):
		return beErr.Message
	case errors.Is(err, backend.ErrNotFound):
		return "Not found"
	}
	return backend.Message(err)
}

// redirectAction answers a successful action that moves the browser on.
func redirectAction(w http.ResponseWriter, statusCode int, title, description, to string, data any) {
	middleware.JSONResponse(w, statusCode, models.ActionResponse{
		Notification: models.Notification{
			Title:       title,
			Description: description,
			Variant:     models.VariantDefault,
		},
		RedirectTo: to,
		Data:       data,
	})
}

// parseBody decodes a JSON action body, answering 400 itself on failure.
func parseBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := middleware.ParseJSONBody(r, v); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}
