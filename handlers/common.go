package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/umakantv/go-utils/httpserver"
	logger "github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"

	"contacts-service/auth"
	"contacts-service/httperr"
	"contacts-service/models"
)

// logRequest logs the request with route/auth details from the server
// context plus any custom fields (e.g. zap.Error for errors).
func logRequest(ctx context.Context, level string, message string, fields ...zap.Field) {
	routeName := httpserver.GetRouteName(ctx)
	method := httpserver.GetRouteMethod(ctx)
	path := httpserver.GetRoutePath(ctx)
	reqAuth := httpserver.GetRequestAuth(ctx)

	logMsg := time.Now().Format("2006-01-02 15:04:05") + " - " + routeName + " - " + method + " - " + path
	if reqAuth != nil {
		logMsg += " - client:" + reqAuth.Client
	}
	if message != "" {
		logMsg += " - " + message
	}

	allFields := append([]zap.Field{
		zap.String("route", routeName),
		zap.String("method", method),
		zap.String("path", path),
	}, fields...)

	switch level {
	case "info":
		logger.Info(logMsg, allFields...)
	case "error":
		logger.Error(logMsg, allFields...)
	case "debug":
		logger.Debug(logMsg, allFields...)
	}
}

// respondJSON writes v with the given status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError serializes domain errors as {"message"} with their carried
// status. Anything that is not a *httperr.Error is logged and becomes a
// bare 500.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	var httpErr *httperr.Error
	if !errors.As(err, &httpErr) {
		logRequest(ctx, "error", "Unexpected error", zap.Error(err))
		httpErr = httperr.Internal()
	}
	respondJSON(w, httpErr.Status, httpErr)
}

// AuthedHandler is a handler that runs with an already-resolved caller.
type AuthedHandler func(ctx context.Context, w http.ResponseWriter, r *http.Request, user *models.User)

// RequireAuth parses the Authorization header, resolves the bearer token
// to its user and passes the record on. Any failure, including a missing
// or malformed scheme, ends in a 401.
func RequireAuth(sessions *auth.SessionManager, next AuthedHandler) httpserver.HandlerFunc {
	return httpserver.HandlerFunc(func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondError(ctx, w, httperr.Unauthorized(""))
			return
		}

		user, err := sessions.Resolve(ctx, parts[1])
		if err != nil {
			respondError(ctx, w, err)
			return
		}

		next(ctx, w, r, user)
	})
}
