// Command openai-stub serves a deterministic subset of the OpenAI API for
// local runs and end-to-end checks of postforge without network access.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

// text returns the message content whether it was sent as a string or as
// multimodal parts.
func text(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	_ = json.Unmarshal(raw, &parts)
	var b strings.Builder
	for _, p := range parts {
		if p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

var countRe = regexp.MustCompile(`generate (\d+) different`)

// reply picks a canned answer from the system prompt.
func reply(sys string, user string) string {
	switch {
	case strings.Contains(sys, "image generation prompts"):
		return "A photorealistic desk at dawn, soft rim light, no text."
	case strings.HasPrefix(sys, "Clean up and format"):
		return strings.TrimSpace(user)
	case strings.Contains(sys, "summary of"):
		return "A short summary of the source."
	case strings.Contains(user, "interpret what it could mean"):
		return "A quiet scene that suggests patience and craft."
	}
	n := 1
	if m := countRe.FindStringSubmatch(user); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil && v > 0 && v <= 25 {
			n = v
		}
	}
	posts := make([]string, n)
	for i := range posts {
		posts[i] = fmt.Sprintf("Stub post %d about the source. #postforge", i+1)
	}
	return strings.Join(posts, "\n\n")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func main() {
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		var sys, user string
		for _, m := range req.Messages {
			switch m.Role {
			case "system":
				sys = text(m.Content)
			case "user":
				user = text(m.Content)
			}
		}
		out := reply(sys, user)
		writeJSON(w, map[string]any{
			"id":     "stub",
			"object": "chat.completion",
			"model":  model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": out},
			}},
			"usage": map[string]int{
				"prompt_tokens":     (len(sys) + len(user)) / 4,
				"completion_tokens": len(out) / 4,
				"total_tokens":      (len(sys) + len(user) + len(out)) / 4,
			},
		})
	})
	mux.HandleFunc("/v1/images/generations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"created": 0,
			"data":    []map[string]string{{"url": "https://images.example.invalid/stub.png", "revised_prompt": "stub"}},
		})
	})
	mux.HandleFunc("/v1/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(64 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{"text": "um so this is the stub transcript", "duration": 42.0})
	})

	log.Printf("openai-stub listening on %s (model %s)", addr, model)
	log.Fatal(http.ListenAndServe(addr, mux))
}
