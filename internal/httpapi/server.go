package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"riverwood/internal/config"
	"riverwood/internal/frontend"
	"riverwood/internal/observability"
	"riverwood/internal/turn"
)

const maxBodyBytes = 25 << 20

type Server struct {
	cfg      config.Config
	session  *frontend.Session
	gatherer prometheus.Gatherer
}

func New(cfg config.Config, session *frontend.Session, gatherer prometheus.Gatherer) *Server {
	return &Server{cfg: cfg, session: session, gatherer: gatherer}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", observability.Handler(s.gatherer))
	}

	r.Post("/v1/turn", s.handleTurn)
	r.Post("/v1/speak", s.handleSpeak)
	r.Get("/v1/reply", s.handleReply)
	r.Get("/v1/memory", s.handleMemory)

	return r
}

type turnRequest struct {
	Text  string `json:"text"`
	Audio []byte `json:"audio"`
}

type turnResponse struct {
	ID         string `json:"id"`
	Outcome    string `json:"outcome"`
	Source     string `json:"source,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Echo       string `json:"echo,omitempty"`
	Reply      string `json:"reply,omitempty"`
	Message    string `json:"message,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"openai":     s.cfg.HasOpenAI(),
		"elevenlabs": s.cfg.HasEleven(),
	})
}

// handleTurn accepts either a JSON body ({"text": ..., "audio": base64}) or a
// raw audio/* body. Aborted turns are reported in the body, not the status.
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var in turn.Input
	if strings.HasPrefix(r.Header.Get("Content-Type"), "audio/") {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_audio", err.Error())
			return
		}
		in.Audio = data
	} else {
		var req turnRequest
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
			respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		in = turn.Input{Audio: req.Audio, Text: req.Text}
	}

	res := s.session.Turn(r.Context(), in)
	respondJSON(w, http.StatusOK, turnResponse{
		ID:         res.ID,
		Outcome:    string(res.Outcome),
		Source:     string(res.Source),
		Transcript: res.Transcript,
		Echo:       frontend.Echo(res),
		Reply:      res.Reply,
		Message:    res.Message,
	})
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	audio, notice := s.session.Play(r.Context())
	if notice != "" {
		respondError(w, http.StatusServiceUnavailable, "voice_unavailable", notice)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func (s *Server) handleReply(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"reply": s.session.LastReply()})
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.session.Memory(r.Context()))
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
