package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ccodesido/zentiumassist-all/pkg"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps domain errors onto status codes.  Anything unrecognised is
// logged and answered with a generic 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeDetail(w, http.StatusRequestEntityTooLarge, "el cuerpo de la petición es demasiado grande")
	case errors.Is(err, pkg.ErrNotFound):
		writeDetail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, pkg.ErrValidation), errors.Is(err, pkg.ErrConflict):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pkg.ErrUnauthorized):
		writeDetail(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, pkg.ErrForbidden):
		writeDetail(w, http.StatusForbidden, err.Error())
	default:
		s.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.Error(err),
		)
		writeDetail(w, http.StatusInternalServerError, "error interno del servidor")
	}
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields
// and trailing data.  An empty body is an error unless optional is set.
func decodeJSON(r *http.Request, dst any, optional bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return err
		case errors.Is(err, io.EOF):
			if optional {
				return nil
			}
			return fmt.Errorf("%w: request body is required", pkg.ErrValidation)
		default:
			return fmt.Errorf("%w: invalid JSON: %v", pkg.ErrValidation, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must contain a single JSON object", pkg.ErrValidation)
	}
	return nil
}
