// Command apistub is a self-contained in-memory StudyBridge backend for local
// development and demos. It mirrors the production API's paths, parameter
// names and status codes, including the quirks clients have to live with
// (the "recieved" message type, the plural "admintokens" field).
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/studybridge/client-go/internal/config"
)

type account struct {
	Name        string `json:"name"`
	Password    string `json:"password,omitempty"`
	Token       string `json:"token,omitempty"`
	AdminTokens string `json:"admintokens,omitempty"`
}

type message struct {
	MessageContent string `json:"messageContent"`
	MessageType    string `json:"messageType"`
	TimeStamp      string `json:"timeStamp"`
}

type conversation struct {
	AdminToken           string    `json:"adminToken"`
	PersonConvoWithToken string    `json:"personConvoWithToken"`
	Messages             []message `json:"messages"`
}

type profile struct {
	Name            string  `json:"name,omitempty"`
	Token           string  `json:"token,omitempty"`
	TotalProgress   float64 `json:"totalProgress"`
	ProgressPerDays float64 `json:"progressPerDays"`
	TimeSpent       float64 `json:"timeSpent"`
}

type enrollment struct {
	Name      string `json:"name"`
	UserToken string `json:"userToken"`
}

// backend is the whole datastore. Nothing survives a restart, which is the
// point of a stub.
type backend struct {
	mu       sync.Mutex
	admins   map[string]account        // keyed by admin token
	students map[string]account        // keyed by student token
	convs    []*conversation
	profiles map[string]profile        // keyed by student token
	enrolled map[string][]enrollment   // admin token -> students
}

func newBackend() *backend {
	return &backend{
		admins:   make(map[string]account),
		students: make(map[string]account),
		profiles: make(map[string]profile),
		enrolled: make(map[string][]enrollment),
	}
}

func (b *backend) findConv(adminToken, studentToken string) *conversation {
	for _, c := range b.convs {
		if c.PersonConvoWithToken != studentToken {
			continue
		}
		if adminToken == "" || c.AdminToken == adminToken {
			return c
		}
	}
	return nil
}

func (b *backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/check-admin-credentials", b.checkAdmin)
	r.Get("/check-user-credentials", b.checkStudent)
	r.Post("/save-login-signIn_admin", b.registerAdmin)
	r.Post("/save-login-signIn", b.registerStudent)
	r.Post("/add-student", b.enroll)
	r.Get("/searchConversation", b.searchConversation)
	r.Post("/addMessageToPerson", b.addMessage)
	r.Get("/fetchAll", b.fetchProfile)
	r.Post("/user-progress", b.saveProgress)
	r.Get("/get-admin-enroll-by-token", b.listEnrolled)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "timestamp": time.Now().UnixMilli()})
	})
	return r
}

func (b *backend) checkAdmin(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	admin, ok := b.admins[r.URL.Query().Get("token")]
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "unknown admin token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"name":        admin.Name,
		"admintokens": admin.AdminTokens,
	})
}

func (b *backend) checkStudent(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	student, ok := b.students[r.URL.Query().Get("token")]
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "unknown student token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": student.Name})
}

func (b *backend) registerAdmin(w http.ResponseWriter, r *http.Request) {
	var in account
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" || in.AdminTokens == "" {
		writeError(w, http.StatusBadRequest, "name and admintokens are required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.admins[in.AdminTokens]; exists {
		writeError(w, http.StatusConflict, "admin already exists")
		return
	}
	b.admins[in.AdminTokens] = in
	writeJSON(w, http.StatusOK, map[string]string{"status": "created"})
}

func (b *backend) registerStudent(w http.ResponseWriter, r *http.Request) {
	var in account
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" || in.Token == "" {
		writeError(w, http.StatusBadRequest, "name and token are required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.students[in.Token]; exists {
		writeError(w, http.StatusConflict, "student already exists")
		return
	}
	b.students[in.Token] = in
	b.profiles[in.Token] = profile{Name: in.Name, Token: in.Token}
	writeJSON(w, http.StatusOK, map[string]string{"status": "created"})
}

func (b *backend) enroll(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AdminToken string `json:"adminToken"`
		UserToken  string `json:"userToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.AdminToken == "" || in.UserToken == "" {
		writeError(w, http.StatusBadRequest, "adminToken and userToken are required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	student, ok := b.students[in.UserToken]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown student token")
		return
	}
	for _, e := range b.enrolled[in.AdminToken] {
		if e.UserToken == in.UserToken {
			writeJSON(w, http.StatusOK, map[string]string{"status": "enrolled"})
			return
		}
	}
	b.enrolled[in.AdminToken] = append(b.enrolled[in.AdminToken], enrollment{Name: student.Name, UserToken: in.UserToken})
	writeJSON(w, http.StatusOK, map[string]string{"status": "enrolled"})
}

func (b *backend) searchConversation(w http.ResponseWriter, r *http.Request) {
	adminToken := r.URL.Query().Get("adminToken")
	studentToken := r.URL.Query().Get("personToken")
	if studentToken == "" {
		studentToken = r.URL.Query().Get("personConvoWithToken")
	}
	if studentToken == "" {
		writeError(w, http.StatusBadRequest, "a student token is required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	conv := b.findConv(adminToken, studentToken)
	if conv == nil {
		writeError(w, http.StatusNotFound, "no conversation")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (b *backend) addMessage(w http.ResponseWriter, r *http.Request) {
	adminToken := r.URL.Query().Get("adminToken")
	studentToken := r.URL.Query().Get("personToken")
	if adminToken == "" || studentToken == "" {
		writeError(w, http.StatusBadRequest, "adminToken and personToken are required")
		return
	}
	var msg message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil || msg.MessageContent == "" {
		writeError(w, http.StatusBadRequest, "messageContent is required")
		return
	}
	if msg.MessageType != "sent" && msg.MessageType != "recieved" {
		writeError(w, http.StatusBadRequest, "unknown messageType")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	conv := b.findConv(adminToken, studentToken)
	if conv == nil {
		// First message creates the conversation.
		conv = &conversation{AdminToken: adminToken, PersonConvoWithToken: studentToken}
		b.convs = append(b.convs, conv)
	}
	conv.Messages = append(conv.Messages, msg)
	writeJSON(w, http.StatusOK, map[string]string{"status": "added"})
}

func (b *backend) fetchProfile(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	p, ok := b.profiles[r.URL.Query().Get("token")]
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "unknown student token")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (b *backend) saveProgress(w http.ResponseWriter, r *http.Request) {
	var in profile
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	existing := b.profiles[in.Token]
	in.Name = existing.Name
	b.profiles[in.Token] = in
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (b *backend) listEnrolled(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	students := b.enrolled[r.URL.Query().Get("adminToken")]
	b.mu.Unlock()
	if students == nil {
		students = []enrollment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"students": students})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	addr := os.Getenv("STUDYBRIDGE_STUB_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      newBackend().routes(),
		ReadTimeout:  config.StubReadTimeout,
		WriteTimeout: config.StubWriteTimeout,
		IdleTimeout:  config.StubIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("starting stub backend")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down stub backend")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.StubShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
}
