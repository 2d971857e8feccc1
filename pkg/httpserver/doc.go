// Package httpserver runs an http.Handler with sane timeouts, a request body
// cap and graceful shutdown on context cancellation or SIGINT/SIGTERM.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// The body cap wraps the handler with http.MaxBytesHandler, so a handler that
// reads too much gets an *http.MaxBytesError; formdata.StatusCode maps it to
// 413. HealthHandler serves liveness and readiness probes.
//
// Run wraps listen failures with ErrStart and Shutdown wraps shutdown failures
// with ErrShutdown.
package httpserver
