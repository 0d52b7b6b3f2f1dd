package stubapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/kingrea/sistema-obras/internal/domain"
	"github.com/kingrea/sistema-obras/internal/gateway"
)

type envelope struct {
	Data any `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
}

// inspectionBody is an inspection as responses carry it: "obra" is the
// embedded work when the store resolved it, else the bare identifier.
// Request payloads always send the identifier.
type inspectionBody struct {
	domain.Inspection
	Work any `json:"obra"`
}

func inspectionResponse(in domain.Inspection) inspectionBody {
	var ref any = in.Work.ID
	if in.Work.Summary != nil {
		ref = in.Work.Summary
	}
	return inspectionBody{Inspection: in, Work: ref}
}

func inspectionResponses(list []domain.Inspection) []inspectionBody {
	out := make([]inspectionBody, 0, len(list))
	for _, in := range list {
		out = append(out, inspectionResponse(in))
	}
	return out
}

type reportRequest struct {
	Email string `json:"email"`
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = s.requestID()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Printf("stubapi: %s %s -> %d in %s [%s]",
			r.Method, r.URL.Path, rec.status, time.Since(started).Round(time.Millisecond), r.Header.Get("X-Request-ID"))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": string(s.Status())})
}

func (s *Server) listWorks(w http.ResponseWriter, r *http.Request) {
	works, err := s.store.ListWorks(r.Context(), queryParams(r))
	if err != nil {
		s.fail(w, err, "Erro ao listar obras")
		return
	}
	writeData(w, http.StatusOK, nonNil(works))
}

func (s *Server) getWork(w http.ResponseWriter, r *http.Request) {
	work, err := s.store.GetWork(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err, "Obra não encontrada")
		return
	}
	writeData(w, http.StatusOK, work)
}

func (s *Server) createWork(w http.ResponseWriter, r *http.Request) {
	var payload domain.WorkPayload
	if !s.decode(w, r, &payload) {
		return
	}
	if msg := validateWork(payload); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	work, err := s.store.CreateWork(r.Context(), payload)
	if err != nil {
		s.fail(w, err, "Erro ao criar obra")
		return
	}
	writeData(w, http.StatusCreated, work)
}

func (s *Server) updateWork(w http.ResponseWriter, r *http.Request) {
	var payload domain.WorkPayload
	if !s.decode(w, r, &payload) {
		return
	}
	if msg := validateWork(payload); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	work, err := s.store.UpdateWork(r.Context(), mux.Vars(r)["id"], payload)
	if err != nil {
		s.fail(w, err, "Obra não encontrada")
		return
	}
	writeData(w, http.StatusOK, work)
}

func (s *Server) deleteWork(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteWork(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.fail(w, err, "Obra não encontrada")
		return
	}
	writeData(w, http.StatusOK, nil)
}

func (s *Server) listInspectionsOfWork(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListInspectionsOfWork(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err, "Obra não encontrada")
		return
	}
	writeData(w, http.StatusOK, inspectionResponses(list))
}

func (s *Server) sendReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "Email é obrigatório")
		return
	}
	if err := s.store.SendWorkReport(r.Context(), mux.Vars(r)["id"], strings.TrimSpace(req.Email)); err != nil {
		s.fail(w, err, "Obra não encontrada")
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "enviado"})
}

func (s *Server) listInspections(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListInspections(r.Context(), queryParams(r))
	if err != nil {
		s.fail(w, err, "Erro ao listar fiscalizações")
		return
	}
	writeData(w, http.StatusOK, inspectionResponses(list))
}

func (s *Server) getInspection(w http.ResponseWriter, r *http.Request) {
	in, err := s.store.GetInspection(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err, "Fiscalização não encontrada")
		return
	}
	writeData(w, http.StatusOK, inspectionResponse(in))
}

func (s *Server) createInspection(w http.ResponseWriter, r *http.Request) {
	var payload domain.InspectionPayload
	if !s.decode(w, r, &payload) {
		return
	}
	if msg := validateInspection(payload); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	in, err := s.store.CreateInspection(r.Context(), payload)
	if err != nil {
		s.fail(w, err, "Obra não encontrada")
		return
	}
	writeData(w, http.StatusCreated, inspectionResponse(in))
}

func (s *Server) updateInspection(w http.ResponseWriter, r *http.Request) {
	var payload domain.InspectionPayload
	if !s.decode(w, r, &payload) {
		return
	}
	if msg := validateInspection(payload); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	in, err := s.store.UpdateInspection(r.Context(), mux.Vars(r)["id"], payload)
	if err != nil {
		s.fail(w, err, "Fiscalização não encontrada")
		return
	}
	writeData(w, http.StatusOK, inspectionResponse(in))
}

func (s *Server) deleteInspection(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteInspection(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.fail(w, err, "Fiscalização não encontrada")
		return
	}
	writeData(w, http.StatusOK, nil)
}

func validateWork(p domain.WorkPayload) string {
	if strings.TrimSpace(p.Name) == "" {
		return "Nome é obrigatório"
	}
	if p.Location != nil && p.Location.Validate() != nil {
		return "Localização inválida"
	}
	return ""
}

func validateInspection(p domain.InspectionPayload) string {
	if strings.TrimSpace(p.WorkID) == "" {
		return "Obra é obrigatória"
	}
	if !p.Status.IsValid() {
		return "Status inválido"
	}
	if p.Location != nil && p.Location.Validate() != nil {
		return "Localização inválida"
	}
	return ""
}

// decode reads a size-limited JSON body. It writes the error response and
// returns false when the body is unusable.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição vazio")
		return false
	}
	reader := http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Requisição muito grande")
			return false
		}
		writeError(w, http.StatusBadRequest, "Não foi possível ler a requisição")
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, gateway.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	s.logger.Printf("stubapi: store error: %v", err)
	writeError(w, http.StatusInternalServerError, "Erro interno do servidor")
}

func queryParams(r *http.Request) gateway.Params {
	params := gateway.Params{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
