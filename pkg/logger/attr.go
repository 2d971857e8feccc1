package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// RequestID records the request identifier under the key "request_id".
// An empty id yields an empty Attr.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Form records the name of a form schema under the key "form".
func Form(name string) slog.Attr {
	return slog.String("form", name)
}

// Field records a form field name under the key "field".
func Field(name string) slog.Attr {
	return slog.String("field", name)
}

// Filename records an uploaded file name under the key "filename".
// An empty name yields an empty Attr, so text parts log without it.
func Filename(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("filename", name)
}

// Bytes records a byte count under the key "bytes".
func Bytes(n int64) slog.Attr {
	return slog.Int64("bytes", n)
}

// Count records a number of parts under the key "parts".
func Count(n int) slog.Attr {
	return slog.Int("parts", n)
}

// Fields records a number of decoded fields under the key "fields".
func Fields(n int) slog.Attr {
	return slog.Int("fields", n)
}

// Status records an HTTP status code under the key "status".
func Status(code int) slog.Attr {
	return slog.Int("status", code)
}

// ClientIP records the resolved client address under the key "client_ip".
// An empty address yields an empty Attr.
func ClientIP(ip string) slog.Attr {
	if ip == "" {
		return slog.Attr{}
	}
	return slog.String("client_ip", ip)
}
