// Package requestid attaches a correlation id to every HTTP request.
//
// Middleware reuses the client's X-Request-ID header when it is a short token
// of letters, digits, '-' and '_', and generates a UUID otherwise. The id is
// echoed in the response and stored in the request context, where FromContext
// reads it. LoggerExtractor plugs the id into loggers built by pkg/logger:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware)
package requestid
