/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package api exposes the schema management and entity data operations over
// HTTP. Typed core errors map to client-error responses with their message;
// anything else is logged and surfaced as an opaque server error.
package api

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/suparena/dyndata"
	"github.com/suparena/dyndata/codec"
	"github.com/suparena/dyndata/errors"
	"github.com/suparena/dyndata/model"
)

var entityURIPattern = regexp.MustCompile(model.URINamePattern)

// Handler provides the HTTP endpoints.
type Handler struct {
	svc    *dyndata.Service
	logger zerolog.Logger
}

// New creates a Handler.
func New(svc *dyndata.Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Routes builds the router. Schema management lives under
// /configuration/entity; everything else is dynamic entity data, with
// multi-part keys passed as extra path segments in declared key order.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.requestLogger)
	r.Use(metricsMiddleware)

	r.Handle("/metrics", metricsHandler())

	r.Route("/configuration/entity", func(r chi.Router) {
		r.Get("/", h.listEntities)
		r.Post("/", h.createEntity)
		r.Get("/{uriName}", h.getEntity)
		r.Put("/{uriName}", h.updateEntity)
		r.Delete("/{uriName}", h.deleteEntity)
	})

	r.Get("/{entityUri}", h.listInstances)
	r.Post("/{entityUri}", h.createInstance)
	r.Get("/{entityUri}/*", h.getInstance)
	r.Put("/{entityUri}/*", h.updateInstance)
	r.Delete("/{entityUri}/*", h.deleteInstance)

	return r
}

func (h *Handler) listEntities(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.Schema.ListEntities(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, renderDocuments(docs))
}

func (h *Handler) getEntity(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Schema.FindEntity(r.Context(), chi.URLParam(r, "uriName"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if doc == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, renderDocument(doc))
}

func (h *Handler) createEntity(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeBody(w, r)
	if !ok {
		return
	}
	if err := h.svc.Schema.CreateEntity(r.Context(), body); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) updateEntity(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeBody(w, r)
	if !ok {
		return
	}
	if err := h.svc.Schema.UpdateEntity(r.Context(), body, chi.URLParam(r, "uriName")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteEntity(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Schema.DeleteEntity(r.Context(), chi.URLParam(r, "uriName")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listInstances(w http.ResponseWriter, r *http.Request) {
	uri, ok := h.entityURI(w, r)
	if !ok {
		return
	}
	docs, err := h.svc.Data.List(r.Context(), uri)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, renderDocuments(docs))
}

func (h *Handler) getInstance(w http.ResponseWriter, r *http.Request) {
	uri, ok := h.entityURI(w, r)
	if !ok {
		return
	}
	doc, err := h.svc.Data.Get(r.Context(), uri, instanceIDs(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if doc == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, renderDocument(doc))
}

func (h *Handler) createInstance(w http.ResponseWriter, r *http.Request) {
	uri, ok := h.entityURI(w, r)
	if !ok {
		return
	}
	body, ok := h.decodeBody(w, r)
	if !ok {
		return
	}
	if err := h.svc.Data.Create(r.Context(), uri, body); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) updateInstance(w http.ResponseWriter, r *http.Request) {
	uri, ok := h.entityURI(w, r)
	if !ok {
		return
	}
	body, ok := h.decodeBody(w, r)
	if !ok {
		return
	}
	if err := h.svc.Data.Update(r.Context(), uri, body, instanceIDs(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteInstance(w http.ResponseWriter, r *http.Request) {
	uri, ok := h.entityURI(w, r)
	if !ok {
		return
	}
	if err := h.svc.Data.Delete(r.Context(), uri, instanceIDs(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) entityURI(w http.ResponseWriter, r *http.Request) (string, bool) {
	uri := chi.URLParam(r, "entityUri")
	if !entityURIPattern.MatchString(uri) {
		w.WriteHeader(http.StatusNotFound)
		return "", false
	}
	return uri, true
}

// instanceIDs splits the wildcard tail into the ordered key value list.
func instanceIDs(r *http.Request) []string {
	return strings.Split(chi.URLParam(r, "*"), "/")
}

// decodeBody parses the JSON body with number preservation, so integer
// literals reach the codec undamaged by float conversion.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	var body map[string]any
	if err := decoder.Decode(&body); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody("request body must be a JSON object"))
		return nil, false
	}
	return body, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.IsNotFound(err):
		h.writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.IsClientError(err):
		h.writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		h.writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func errorBody(message string) map[string]string {
	return map[string]string{"errorMessage": message}
}

// renderDocument maps store-typed values onto plain JSON forms: Decimal128 as
// a number, timestamps in the ISO layout accepted on input.
func renderDocument(doc model.Document) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = renderValue(v)
	}
	return out
}

func renderDocuments(docs []model.Document) []map[string]any {
	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		out = append(out, renderDocument(doc))
	}
	return out
}

func renderValue(v any) any {
	switch t := v.(type) {
	case primitive.Decimal128:
		return json.Number(t.String())
	case time.Time:
		return t.Format(codec.TimestampLayout)
	case model.Document:
		return renderDocument(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = renderValue(item)
		}
		return out
	default:
		return v
	}
}
