package server

import (
	"context"
	"net/http"
	"os"

	"github.com/umakantv/go-utils/httpserver"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"

	"contacts-service/auth"
	"contacts-service/avatar"
	cachepackage "contacts-service/cache"
	"contacts-service/config"
	"contacts-service/database"
	"contacts-service/email"
	"contacts-service/handlers"
	"contacts-service/store"
)

const avatarSize = 250

// checkAuth reports whether the request carries a bearer credential. Token
// resolution against the store happens in handlers.RequireAuth, which owns
// the 401 response shape; this hook only feeds the request log.
func checkAuth(r *http.Request) (bool, httpserver.RequestAuth) {
	authorization := r.Header.Get("Authorization")
	if len(authorization) > 7 && authorization[:7] == "Bearer " {
		return true, httpserver.RequestAuth{Type: "bearer"}
	}
	return false, httpserver.RequestAuth{}
}

func StartServer() {
	logger.Init(logger.LoggerConfig{
		CallerKey:  "file",
		TimeKey:    "timestamp",
		CallerSkip: 1,
	})

	logger.Info("Starting Contacts Service...")

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is not set")
		os.Exit(1)
	}

	dbConn := database.InitializeDatabase(cfg)
	defer dbConn.Close()

	cache := cachepackage.InitializeCache(cfg)
	defer cache.Close()

	users := store.NewUserStore(dbConn)
	contacts := store.NewContactStore(dbConn)
	sessions := auth.NewSessionManager(users, cfg.JWTSecret, cfg.TokenTTL)
	mail := email.NewSendGridSender(cfg.SendGridAPIKey, cfg.EmailFrom)
	avatars := avatar.NewProcessor(cfg.AvatarsDir, avatarSize)

	authHandler := handlers.NewAuthHandler(users, sessions, mail, avatars, cfg)
	contactHandler := handlers.NewContactHandler(contacts, cache)

	server := httpserver.New(cfg.Port, checkAuth)

	server.Register(httpserver.Route{
		Name:     "HealthCheck",
		Method:   "GET",
		Path:     "/health",
		AuthType: "none",
	}, httpserver.HandlerFunc(func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "contacts-service"}`))
	}))

	server.Register(httpserver.Route{
		Name:     "RegisterUser",
		Method:   "POST",
		Path:     "/users/register",
		AuthType: "none",
	}, httpserver.HandlerFunc(authHandler.Register))

	server.Register(httpserver.Route{
		Name:     "VerifyEmail",
		Method:   "GET",
		Path:     "/users/verify/{verificationToken}",
		AuthType: "none",
	}, httpserver.HandlerFunc(authHandler.Verify))

	server.Register(httpserver.Route{
		Name:     "ResendVerification",
		Method:   "POST",
		Path:     "/users/verify",
		AuthType: "none",
	}, httpserver.HandlerFunc(authHandler.ResendVerification))

	server.Register(httpserver.Route{
		Name:     "LoginUser",
		Method:   "POST",
		Path:     "/users/login",
		AuthType: "none",
	}, httpserver.HandlerFunc(authHandler.Login))

	server.Register(httpserver.Route{
		Name:     "CurrentUser",
		Method:   "GET",
		Path:     "/users/current",
		AuthType: "none",
	}, handlers.RequireAuth(sessions, authHandler.Current))

	server.Register(httpserver.Route{
		Name:     "UpdateSubscription",
		Method:   "PATCH",
		Path:     "/users",
		AuthType: "none",
	}, handlers.RequireAuth(sessions, authHandler.UpdateSubscription))

	server.Register(httpserver.Route{
		Name:     "LogoutUser",
		Method:   "POST",
		Path:     "/users/logout",
		AuthType: "none",
	}, handlers.RequireAuth(sessions, authHandler.Logout))

	server.Register(httpserver.Route{
		Name:     "UpdateAvatar",
		Method:   "PATCH",
		Path:     "/users/avatars",
		AuthType: "none",
	}, handlers.RequireAuth(sessions, authHandler.UpdateAvatar))

	server.Register(httpserver.Route{
		Name:     "ListContacts",
		Method:   "GET",
		Path:     "/contacts",
		AuthType: "none",
	}, handlers.RequireAuth(sessions, contactHandler.List))

	server.Register(httpserver.Route{
		Name:     "GetContact",
		Method:   "GET",
		Path:     "/contacts/{id}",
		AuthType: "none",
	}, handlers.RequireAuth(sessions, contactHandler.Get))

	server.Register(httpserver.Route{
		Name:     "CreateContact",
		Method:   "POST",
		Path:     "/contacts",
		AuthType: "none",
	}, handlers.RequireAuth(sessions, contactHandler.Create))

	server.Register(httpserver.Route{
		Name:     "UpdateContact",
		Method:   "PUT",
		Path:     "/contacts/{id}",
		AuthType: "none",
	}, handlers.RequireAuth(sessions, contactHandler.Update))

	server.Register(httpserver.Route{
		Name:     "UpdateContactFavorite",
		Method:   "PATCH",
		Path:     "/contacts/{id}/favorite",
		AuthType: "none",
	}, handlers.RequireAuth(sessions, contactHandler.UpdateFavorite))

	server.Register(httpserver.Route{
		Name:     "DeleteContact",
		Method:   "DELETE",
		Path:     "/contacts/{id}",
		AuthType: "none",
	}, handlers.RequireAuth(sessions, contactHandler.Delete))

	logger.Info("Contacts Service started", zap.String("port", cfg.Port))

	if err := server.Start(); err != nil {
		logger.Error("Server failed to start", zap.Error(err))
	}
}
