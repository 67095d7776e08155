// Command articles-stub serves an in-memory article API and an
// OpenAI-compatible chat endpoint for local end-to-end runs.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gooptimize/internal/article"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":5000"
	}

	s := newStore(
		article.Article{Title: "Chatbots guide 2023", Author: "Stub", Description: "Chatbots answer questions.", Tags: []string{"ai"}},
		article.Article{Title: "Static site generators", Author: "Stub", Description: "Static sites are fast."},
	)
	log.Info().Str("addr", addr).Str("model", model).Msg("articles-stub listening")
	if err := http.ListenAndServe(addr, newMux(s, model)); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

type store struct {
	mu       sync.Mutex
	order    []string
	articles map[string]article.Article
}

func newStore(seed ...article.Article) *store {
	s := &store{articles: make(map[string]article.Article)}
	now := time.Now().UTC()
	for _, a := range seed {
		a.ID = uuid.NewString()
		a.CreatedAt, a.UpdatedAt = now, now
		s.order = append(s.order, a.ID)
		s.articles[a.ID] = a
	}
	return s
}

func (s *store) list() []article.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]article.Article, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.articles[id])
	}
	return out
}

func (s *store) update(id string, u article.Update) (article.Article, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	if !ok {
		return article.Article{}, false
	}
	a.Title, a.Description, a.Tags = u.Title, u.Description, u.Tags
	if u.OriginalDescription != "" && a.OriginalDescription == "" {
		a.OriginalDescription = u.OriginalDescription
	}
	a.UpdatedAt = time.Now().UTC()
	s.articles[id] = a
	return a, true
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newMux(s *store, model string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/articles", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, s.list(), "")
	})
	mux.HandleFunc("PUT /api/articles/{id}", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var u article.Update
		if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
			writeEnvelope(w, http.StatusBadRequest, nil, "invalid body")
			return
		}
		a, ok := s.update(r.PathValue("id"), u)
		if !ok {
			writeEnvelope(w, http.StatusNotFound, nil, "article not found")
			return
		}
		log.Info().Str("id", a.ID).Str("title", a.Title).Msg("article updated")
		writeEnvelope(w, http.StatusOK, a, "")
	})
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		prompt := ""
		if n := len(req.Messages); n > 0 {
			prompt = req.Messages[n-1].Content
		}
		content := "TITLE: " + stubTitle(prompt) + "\nCONTENT:\nAn expanded article body written from the supplied references."
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-" + uuid.NewString(),
			"object": "chat.completion",
			"model":  model,
			"choices": []map[string]any{
				{"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	})
	return mux
}

// stubTitle echoes the original title from the rewrite prompt.
func stubTitle(prompt string) string {
	for _, line := range strings.Split(prompt, "\n") {
		if t, ok := strings.CutPrefix(strings.TrimSpace(line), "Title:"); ok {
			if t = strings.TrimSpace(t); t != "" {
				return t + " (Optimized)"
			}
		}
	}
	return "Optimized Article"
}

func writeEnvelope(w http.ResponseWriter, status int, data any, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"success": status < 300}
	if data != nil {
		body["data"] = data
	}
	if msg != "" {
		body["message"] = msg
	}
	_ = json.NewEncoder(w).Encode(body)
}
