package middleware

import (
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// Logger is chi's request logger writing through the logrus logger.
func Logger(logger *log.Logger) func(http.Handler) http.Handler {
	return chiMiddleware.RequestLogger(&chiMiddleware.DefaultLogFormatter{
		Logger:  logger,
		NoColor: true,
	})
}
