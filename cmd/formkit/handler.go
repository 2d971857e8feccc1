package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/formkit/pkg/file"
	"github.com/dmitrymomot/formkit/pkg/formdata"
	"github.com/dmitrymomot/formkit/pkg/formschema"
	"github.com/dmitrymomot/formkit/pkg/logger"
)

// response is the JSON envelope of every answer.
type response struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *errorDetail   `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// storedFile is how a saved file value is reported.
type storedFile struct {
	*file.Stored
	Field string `json:"field"`
	URL   string `json:"url"`
}

type uploadHandler struct {
	forms   *formschema.Registry
	storage file.Storage
	cfg     formdata.Config
	log     *slog.Logger
}

// ServeHTTP decodes POST /forms/{form} against the named schema, stores every
// file value and answers with the decoded fields.
func (h *uploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "form")
	log := h.log.With(logger.Form(name))

	schema, ok := h.forms.Lookup(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, response{Error: &errorDetail{
			Code:    "form_not_found",
			Message: fmt.Sprintf("form %q is not registered", name),
		}})
		return
	}

	dec := formdata.NewDecoderFromConfig(h.cfg,
		formdata.WithStrict(h.cfg.Strict || schema.Strict),
		formdata.WithLenientScalars(h.cfg.LenientScalars || schema.LenientScalars),
		formdata.WithLogger(log),
	)
	form, err := dec.DecodeRequest(r, schema.Schema)
	if err != nil {
		log.WarnContext(ctx, "form rejected", logger.Error(err), logger.Status(formdata.StatusCode(err)))
		formdata.DefaultErrorHandler(w, r, err)
		return
	}

	var saved []string
	data := make(map[string]any, form.Len())
	for _, field := range form.Names() {
		v := form.Get(field)
		out, err := h.present(r, name, field, v, &saved)
		if err != nil {
			log.ErrorContext(ctx, "store file", logger.Field(field), logger.Error(err))
			h.rollback(ctx, log, saved)
			writeJSON(w, http.StatusInternalServerError, response{Error: &errorDetail{
				Code:    "storage_error",
				Message: "failed to store uploaded file",
			}})
			return
		}
		data[field] = out
	}

	log.InfoContext(ctx, "form accepted", logger.Fields(form.Len()))
	writeJSON(w, http.StatusOK, response{
		Data: data,
		Meta: map[string]any{"form": name},
	})
}

// present stores file values and returns the JSON view of v. Keys of stored
// files are appended to saved.
func (h *uploadHandler) present(r *http.Request, formName, field string, v formdata.Value, saved *[]string) (any, error) {
	switch v.Kind() {
	case formdata.ValueFile:
		f, _ := v.AsFile()
		stored, err := h.storage.Save(r.Context(), f, file.ObjectKey(formName+"/"+field, f))
		if err != nil {
			return nil, err
		}
		*saved = append(*saved, stored.Key)
		return storedFile{Stored: stored, Field: field, URL: h.storage.URL(stored.Key)}, nil
	case formdata.ValueList:
		items, _ := v.AsList()
		out := make([]any, 0, len(items))
		for _, item := range items {
			p, err := h.present(r, formName, field, item, saved)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	default:
		return v.Interface(), nil
	}
}

// rollback deletes the files a failed request already stored. It runs even
// when the request context is done.
func (h *uploadHandler) rollback(ctx context.Context, log *slog.Logger, keys []string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := h.storage.Delete(ctx, key); err != nil {
			log.ErrorContext(ctx, "remove stored file", logger.Error(err), slog.String("key", key))
		}
	}
}

// writeJSON encodes body before writing the status, so an encoding failure
// still yields a 500.
func writeJSON(w http.ResponseWriter, status int, body response) {
	payload, err := json.Marshal(body)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(payload, '\n'))
}

// formsIndex lists the registered form names.
func formsIndex(forms *formschema.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, response{Data: forms.Names()})
	}
}
