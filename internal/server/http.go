package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/karupanerura/tuffie/internal/ast"
	"github.com/karupanerura/tuffie/internal/evaluator"
	"github.com/karupanerura/tuffie/internal/lexer"
	"github.com/karupanerura/tuffie/internal/parser"
	"github.com/karupanerura/tuffie/internal/token"
	"github.com/karupanerura/tuffie/internal/types"
)

const (
	sessionsPath       = "/v1/sessions"
	maxRequestBodySize = 1 << 20
)

type sourceRequest struct {
	Source string `json:"source"`
}

type tokenizeResponse struct {
	Tokens   []token.Token                    `json:"tokens"`
	Warnings []*lexer.UnterminatedStringError `json:"warnings"`
}

type parseResponse struct {
	Program  *ast.Program                     `json:"program"`
	Source   string                           `json:"source"`
	Warnings []*lexer.UnterminatedStringError `json:"warnings"`
}

type evaluateResponse struct {
	Results  []any                            `json:"results"`
	Warnings []*lexer.UnterminatedStringError `json:"warnings"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Exception any    `json:"exception,omitempty"`
}

type session struct {
	mu sync.RWMutex

	Name       string    `json:"name"`
	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`

	env *types.Environment
}

func (s *session) MarshalJSON() ([]byte, error) {
	type sessionJSON struct {
		Name       string         `json:"name"`
		CreateTime time.Time      `json:"createTime"`
		UpdateTime time.Time      `json:"updateTime"`
		Variables  map[string]any `json:"variables"`
	}
	return json.Marshal(sessionJSON{
		Name:       s.Name,
		CreateTime: s.CreateTime,
		UpdateTime: s.UpdateTime,
		Variables:  s.env.Variables,
	})
}

type httpHandler struct {
	sessions sync.Map
	debug    bool
}

func NewHTTPHandler(debug bool) http.Handler {
	return &httpHandler{debug: debug}
}

func (h *httpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch path := r.URL.Path; {
	case path == "/v1/tokenize":
		h.handleSource(w, r, h.tokenize)
	case path == "/v1/parse":
		h.handleSource(w, r, h.parse)
	case path == "/v1/evaluate":
		h.handleSource(w, r, func(source string) (any, error) {
			return h.evaluate(source, evaluator.New())
		})
	case path == sessionsPath:
		switch r.Method {
		case http.MethodGet:
			h.listSessions(w, r)
		case http.MethodPost:
			h.createSession(w, r)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(path, sessionsPath+"/"):
		sessionID := path[len(sessionsPath)+1:]
		if i := strings.LastIndexByte(sessionID, ':'); i != -1 {
			customMethod := sessionID[i+1:]
			sessionID = sessionID[:i]
			if customMethod != "evaluate" {
				http.Error(w, "Not Found", http.StatusNotFound)
				return
			}
			h.evaluateInSession(w, r, sessionID)
			return
		}

		switch r.Method {
		case http.MethodGet:
			h.getSession(w, r, sessionID)
		case http.MethodDelete:
			h.deleteSession(w, r, sessionID)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	default:
		http.Error(w, "Not Found", http.StatusNotFound)
	}
}

func (h *httpHandler) handleSource(w http.ResponseWriter, r *http.Request, f func(string) (any, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	source, ok := decodeSource(w, r)
	if !ok {
		return
	}

	ret, err := f(source)
	if err != nil {
		resError(w, err)
		return
	}
	resJSON(w, http.StatusOK, ret)
}

func (h *httpHandler) tokenize(source string) (any, error) {
	tokens, warnings, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	return &tokenizeResponse{Tokens: tokens, Warnings: nonNilWarnings(warnings)}, nil
}

func (h *httpHandler) parse(source string) (any, error) {
	tokens, warnings, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}

	program, err := h.parseTokens(tokens)
	if err != nil {
		return nil, err
	}
	return &parseResponse{Program: program, Source: ast.Render(program), Warnings: nonNilWarnings(warnings)}, nil
}

func (h *httpHandler) parseTokens(tokens []token.Token) (*ast.Program, error) {
	if h.debug {
		return parser.ParseWithDebugOutput(tokens)
	}
	return parser.Parse(tokens)
}

// evaluate runs source against ev and commits the environment only when every
// statement succeeded.
func (h *httpHandler) evaluate(source string, ev *evaluator.Evaluator) (*evaluateResponse, error) {
	tokens, warnings, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}

	program, err := h.parseTokens(tokens)
	if err != nil {
		return nil, err
	}

	scratch := &evaluator.Evaluator{Environment: ev.Environment.ShallowClone()}
	results, err := scratch.EvaluateProgram(program)
	if err != nil {
		return nil, err
	}
	ev.Environment = scratch.Environment

	return &evaluateResponse{Results: results, Warnings: nonNilWarnings(warnings)}, nil
}

func (h *httpHandler) createSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	now := time.Now().UTC()
	s := &session{
		Name:       "sessions/" + id,
		CreateTime: now,
		UpdateTime: now,
		env:        types.NewEnvironment(),
	}
	h.sessions.Store(id, s)
	resJSON(w, http.StatusOK, s)
}

func (h *httpHandler) listSessions(w http.ResponseWriter, r *http.Request) {
	results := []*session{}
	h.sessions.Range(func(key, value any) bool {
		results = append(results, value.(*session))
		return true
	})
	for _, s := range results {
		s.mu.RLock()
	}
	defer func() {
		for _, s := range results {
			s.mu.RUnlock()
		}
	}()
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreateTime.Before(results[j].CreateTime)
	})

	resJSON(w, http.StatusOK, map[string][]*session{"sessions": results})
}

func (h *httpHandler) getSession(w http.ResponseWriter, r *http.Request, id string) {
	ret, ok := h.sessions.Load(id)
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	s := ret.(*session)

	s.mu.RLock()
	defer s.mu.RUnlock()
	resJSON(w, http.StatusOK, s)
}

func (h *httpHandler) deleteSession(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := h.sessions.LoadAndDelete(id); !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *httpHandler) evaluateInSession(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	ret, ok := h.sessions.Load(id)
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	s := ret.(*session)

	source, ok := decodeSource(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ev := &evaluator.Evaluator{Environment: s.env}
	res, err := h.evaluate(source, ev)
	if err != nil {
		resError(w, err)
		return
	}
	s.env = ev.Environment
	s.UpdateTime = time.Now().UTC()
	resJSON(w, http.StatusOK, res)
}

func decodeSource(w http.ResponseWriter, r *http.Request) (string, bool) {
	defer r.Body.Close()

	b, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize+1))
	if err != nil {
		log.Printf("failed to read request body: %v", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return "", false
	}
	if len(b) > maxRequestBodySize {
		http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
		return "", false
	}

	var req sourceRequest
	if err = json.Unmarshal(b, &req); err != nil {
		log.Printf("failed to decode request body: %v", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return "", false
	}
	return req.Source, true
}

func nonNilWarnings(warnings []*lexer.UnterminatedStringError) []*lexer.UnterminatedStringError {
	if warnings == nil {
		return []*lexer.UnterminatedStringError{}
	}
	return warnings
}

func resError(w http.ResponseWriter, err error) {
	var (
		lexErr    *lexer.LexError
		parseErr  *parser.ParseError
		exception types.Exception
	)
	switch {
	case errors.As(err, &lexErr):
		resJSON(w, http.StatusBadRequest, &errorResponse{Error: errorBody{Kind: "LexError", Message: err.Error()}})
	case errors.As(err, &parseErr):
		resJSON(w, http.StatusBadRequest, &errorResponse{Error: errorBody{Kind: "ParseError", Message: err.Error()}})
	case errors.As(err, &exception):
		resJSON(w, http.StatusUnprocessableEntity, &errorResponse{Error: errorBody{Kind: "Exception", Message: err.Error(), Exception: exception.Exception()}})
	default:
		log.Printf("failed to process request: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func resJSON(w http.ResponseWriter, status int, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("failed to encode response: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return fmt.Errorf("json.MarshalIndent: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)+1))
	w.WriteHeader(status)

	if _, err = w.Write(b); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("io.WriteString: %w", err)
	}
	return nil
}
