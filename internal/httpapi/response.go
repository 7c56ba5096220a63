package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xKoRx/openapi-proxy/internal"
	"github.com/xKoRx/openapi-proxy/sdk/domain"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry/semconv"
)

// wrapParam parámetro de consulta que anida la respuesta bajo una clave.
const wrapParam = "wrap"

type resultBody struct {
	Result string `json:"result"`
}

type errorBody struct {
	Error string `json:"error"`
}

// StatusFor traduce la clasificación de un error a un código HTTP.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotAuthorized:
		return http.StatusForbidden
	case domain.KindUnknownCommand:
		return http.StatusNotFound
	case domain.KindConnectionLost, domain.KindTimeout:
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeJSON escribe v con el estado indicado, anidado bajo ?wrap= si se pidió.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	if key := r.URL.Query().Get(wrapParam); key != "" {
		v = map[string]any{key: v}
	}
	writeBody(w, status, v)
}

// writeText escribe {"result": text}; ?wrap= no aplica a los textos.
func writeText(w http.ResponseWriter, text string) {
	writeBody(w, http.StatusOK, resultBody{Result: text})
}

func writeBody(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError escribe {"error": msg} con el estado que corresponde a err.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.telemetry.RecordError(r.Context(), err, semconv.Proxy.ErrorKind.String(string(domain.KindOf(err))))
	}
	writeBody(w, status, errorBody{Error: err.Error()})
}

// writeResult escribe el resultado de un comando: {"result": ...} para
// respuestas informativas o el payload del venue como objeto JSON.
func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, result *internal.Result) {
	if result.Message == nil || result.Message.Payload == nil {
		text := result.Text
		if text == "" && result.Message != nil {
			text = result.Message.Name()
		}
		writeText(w, text)
		return
	}

	payload, err := result.Message.MarshalPayloadJSON()
	if err != nil {
		s.writeError(w, r, domain.WrapError(domain.KindInternal, "failed to render reply", err))
		return
	}
	writeJSON(w, r, http.StatusOK, json.RawMessage(payload))
}
