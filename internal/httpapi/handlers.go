package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/xKoRx/openapi-proxy/internal"
	"github.com/xKoRx/openapi-proxy/internal/command"
	"github.com/xKoRx/openapi-proxy/internal/journal"
	"github.com/xKoRx/openapi-proxy/sdk/domain"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry/semconv"
)

const (
	defaultJournalLimit = 50
	maxBodyBytes        = 1 << 20
)

// getData GET /get-data?command=<name> <args...>
func (s *Server) getData(w http.ResponseWriter, r *http.Request) {
	fields := strings.Fields(r.URL.Query().Get("command"))
	if len(fields) == 0 {
		writeText(w, "Invalid Command: ")
		return
	}
	s.telemetry.SetSpanAttributes(r.Context(), semconv.Proxy.Command.String(fields[0]))

	result, err := s.backend.Execute(r.Context(), fields[0], fields[1:])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.telemetry.SetSpanAttributes(r.Context(), semconv.Proxy.RequestID.String(result.RequestID))
	s.writeResult(w, r, result)
}

// setAccount POST /api/set-account {accountId?}. Un cuerpo que no es JSON
// válido equivale a {} y se usa la cuenta por defecto.
func (s *Server) setAccount(w http.ResponseWriter, r *http.Request) {
	args, err := decodeArgs(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		if !malformedJSON(err) {
			s.writeError(w, r, err)
			return
		}
		s.telemetry.Debug(r.Context(), "Ignoring malformed set-account body", semconv.Proxy.Command.String(command.NameSetAccount))
		args = map[string]string{}
	}
	s.execute(w, r, command.NameSetAccount, args)
}

// trendbars POST /api/trendbars {fromTimestamp, toTimestamp, period, symbolId}
func (s *Server) trendbars(w http.ResponseWriter, r *http.Request) {
	s.executeBody(w, r, command.NameTrendbars, nil)
}

// liveQuote POST /api/live-quote {symbolId, quoteType, timeDeltaInSeconds}
func (s *Server) liveQuote(w http.ResponseWriter, r *http.Request) {
	s.executeBody(w, r, command.NameTickData, map[string]string{"timeDeltaInSeconds": "seconds"})
}

// marketOrder POST /api/market-order {symbolId, orderType, tradeSide, volume, ...}
func (s *Server) marketOrder(w http.ResponseWriter, r *http.Request) {
	s.executeBody(w, r, command.NameNewOrder, nil)
}

// executeBody decodifica un cuerpo JSON plano, renombra claves y ejecuta el comando.
func (s *Server) executeBody(w http.ResponseWriter, r *http.Request, name string, rename map[string]string) {

	args, err := decodeArgs(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for from, to := range rename {
		if v, ok := args[from]; ok {
			delete(args, from)
			args[to] = v
		}
	}
	s.execute(w, r, name, args)
}

// execute ejecuta un comando con parámetros por nombre y escribe el resultado.
func (s *Server) execute(w http.ResponseWriter, r *http.Request, name string, args map[string]string) {
	s.telemetry.SetSpanAttributes(r.Context(), semconv.Proxy.Command.String(name))
	result, err := s.backend.ExecuteNamed(r.Context(), name, args)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.telemetry.SetSpanAttributes(r.Context(), semconv.Proxy.RequestID.String(result.RequestID))
	s.writeResult(w, r, result)
}

// decodeArgs convierte un objeto JSON plano en parámetros de texto. Un
// cuerpo vacío equivale a {}; null se trata como ausente.
func decodeArgs(body io.Reader) (map[string]string, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]string{}, nil
		}
		return nil, domain.WrapError(domain.KindValidation, fmt.Sprintf("invalid JSON body: %v", err), err)
	}

	args := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
		case string:
			args[key] = v
		case json.Number:
			args[key] = v.String()
		case bool:
			args[key] = strconv.FormatBool(v)
		default:
			return nil, domain.Validationf("parameter %s: expected a scalar value", key).WithDetail("param", key)
		}
	}
	return args, nil
}

// malformedJSON indica que el cuerpo no es un objeto JSON legible.
func malformedJSON(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

// session GET /api/session
func (s *Server) session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.backend.Session())
}

// commands GET /api/commands
func (s *Server) commands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.backend.Commands())
}

// journal GET /api/journal?limit=N
func (s *Server) journal(w http.ResponseWriter, r *http.Request) {
	limit := defaultJournalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, r, domain.Validationf("parameter limit: expected a non-negative integer, got %q", raw))
			return
		}
		limit = n
	}

	records, err := s.backend.Journal(limit)
	if errors.Is(err, internal.ErrJournalDisabled) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(errorBody{Error: err.Error()})
		return
	}
	if err != nil {
		s.writeError(w, r, fmt.Errorf("read journal: %w", err))
		return
	}
	if records == nil {
		records = []*journal.Record{}
	}
	writeJSON(w, r, http.StatusOK, records)
}

type healthBody struct {
	Status    string `json:"status"`
	Phase     string `json:"phase"`
	Connected bool   `json:"connected"`
}

// healthz GET /healthz. Responde 200 mientras el proceso vive.
func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	view := s.backend.Session()
	writeJSON(w, r, http.StatusOK, healthBody{Status: "ok", Phase: view.Phase, Connected: view.Connected})
}
