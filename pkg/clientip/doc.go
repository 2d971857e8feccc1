// Package clientip resolves the address of the client that sent a request
// when the server runs behind one or more reverse proxies.
//
// The proxy headers in ProxyHeaders are checked in order (Cloudflare,
// DigitalOcean App Platform, X-Forwarded-For, X-Real-IP) and RemoteAddr is the
// fallback. Invalid values are skipped, so a forged header holding garbage does
// not hide the real address.
//
// Middleware stores the resolved address in the request context, where the
// upload quota uses it as its key and LoggerExtractor adds it to log records:
//
//	log := logger.New(logger.WithContextExtractors(clientip.LoggerExtractor()))
//	r.Use(clientip.Middleware)
package clientip
