package farmbuddycmder_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// fakeBackend is just enough of the FarmBuddy web app to drive the commands.
type fakeBackend struct {
	*httptest.Server

	mu            sync.Mutex
	conversations map[int64]string
	nextID        int64
	opened        []int64
	sent          []map[string]string
	uploads       []string
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{
		conversations: map[int64]string{},
		nextID:        1,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /chat/", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok", Path: "/"})
		fmt.Fprint(w, "<html>chat</html>")
	})
	mux.HandleFunc("GET /chat/{id}/", func(w http.ResponseWriter, r *http.Request) {
		var id int64
		fmt.Sscan(r.PathValue("id"), &id)
		b.mu.Lock()
		_, ok := b.conversations[id]
		if ok {
			b.opened = append(b.opened, id)
		}
		b.mu.Unlock()
		if !ok {
			http.Redirect(w, r, "/chat/", http.StatusFound)
			return
		}
		fmt.Fprint(w, "<html>conversation</html>")
	})
	mux.HandleFunc("POST /chat/new/", func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		id := b.nextID
		b.nextID++
		b.conversations[id] = "New Conversation"
		b.mu.Unlock()
		writeJSON(w, map[string]any{"success": true, "conversation_id": id})
	})
	mux.HandleFunc("POST /chat/send/", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		b.mu.Lock()
		b.sent = append(b.sent, in)
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"chunk":"Plant "}`)
		fmt.Fprintln(w, `{"chunk":"after the first rains."}`)
	})
	mux.HandleFunc("POST /chat/upload/", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, hdr, err := r.FormFile("image")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		b.uploads = append(b.uploads, hdr.Filename)
		b.mu.Unlock()
		writeJSON(w, map[string]any{"success": true, "response": "Looks like cassava mosaic."})
	})
	mux.HandleFunc("POST /chat/api/rename/{id}/", func(w http.ResponseWriter, r *http.Request) {
		var id int64
		fmt.Sscan(r.PathValue("id"), &id)
		var in struct{ Title string }
		_ = json.NewDecoder(r.Body).Decode(&in)
		b.mu.Lock()
		_, ok := b.conversations[id]
		if ok {
			b.conversations[id] = in.Title
		}
		b.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{"success": true, "title": in.Title})
	})
	mux.HandleFunc("POST /chat/api/delete/{id}/", func(w http.ResponseWriter, r *http.Request) {
		var id int64
		fmt.Sscan(r.PathValue("id"), &id)
		b.mu.Lock()
		_, ok := b.conversations[id]
		delete(b.conversations, id)
		b.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{"success": true})
	})
	mux.HandleFunc("POST /chat/api/weather/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"success": true,
			"report":  "Current weather in Kaduna: 31°C, clear sky",
			"data":    map[string]any{"current": map[string]any{"name": "Kaduna"}, "forecast": []any{}},
		})
	})

	mux.HandleFunc("POST /chat/api/transcribe/", func(w http.ResponseWriter, r *http.Request) {
		f, _, err := r.FormFile("audio")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		audio, _ := io.ReadAll(f)
		// The fake recognizer "hears" the file contents.
		writeJSON(w, map[string]any{"success": true, "text": string(audio)})
	})

	b.Server = httptest.NewServer(mux)
	return b
}

func (b *fakeBackend) title(id int64) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.conversations[id]
	return t, ok
}

func (b *fakeBackend) openedIDs() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int64{}, b.opened...)
}

func (b *fakeBackend) messages() []map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]string{}, b.sent...)
}

func (b *fakeBackend) uploaded() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string{}, b.uploads...)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
