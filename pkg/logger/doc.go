// Package logger builds *slog.Logger values with a consistent set of options
// and attribute helpers.
//
// New selects a text or JSON handler, applies static attributes and wraps the
// handler so registered ContextExtractor callbacks can add request scoped values
// (such as a request id) to every record:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "formkit"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "form decoded", logger.Form("avatar-upload"), logger.Fields(3))
//
// The helpers in attr.go (Error, Field, Bytes, ...) keep attribute keys uniform.
// Error and Filename return an empty attribute for empty input, so they can be
// passed without a nil check.
//
// Noop returns a logger that drops everything; libraries use it as their default.
package logger
