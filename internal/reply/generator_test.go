package reply

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	log "log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"riverwood/internal/memory"
)

const testStatus = "Today's Update (15 October 2026):\n• Internal roads: 90% complete\n"

func quietLogger() *log.Logger {
	return log.New(log.NewTextHandler(io.Discard, nil))
}

type fakeCompleter struct {
	out    string
	err    error
	calls  int
	system string
	user   string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.system, f.user = system, user
	return f.out, f.err
}

func TestGenerateOffline(t *testing.T) {
	g := New(nil, quietLogger())

	got, src := g.Reply(context.Background(), "hello", memory.Record{}, testStatus)
	if src != SourceOffline {
		t.Fatalf("source = %q, want %q", src, SourceOffline)
	}
	if !strings.Contains(got, testStatus) {
		t.Fatalf("offline reply %q does not embed the status text", got)
	}
	if got != OfflineReply(testStatus) {
		t.Fatalf("offline reply = %q, want the fixed fallback", got)
	}
}

func TestGenerateQuotaFallback(t *testing.T) {
	llm := &fakeCompleter{err: errors.New(`429 {"code":"insufficient_quota"}`)}
	g := New(llm, quietLogger())

	got, src := g.Reply(context.Background(), "hello", memory.Record{}, testStatus)
	if src != SourceQuota {
		t.Fatalf("source = %q, want %q", src, SourceQuota)
	}
	if got != QuotaReply(testStatus) {
		t.Fatalf("reply = %q, want the quota fallback", got)
	}
	if got == OfflineReply(testStatus) {
		t.Fatal("quota fallback equals the offline fallback")
	}
	if !strings.Contains(got, testStatus) || !strings.Contains(got, "naam aur plot preference") {
		t.Fatalf("quota reply %q lacks status or the name/preference invite", got)
	}
}

func TestGenerateGenericError(t *testing.T) {
	g := New(&fakeCompleter{err: errors.New("connection reset by peer")}, quietLogger())

	got, src := g.Reply(context.Background(), "hello", memory.Record{}, testStatus)
	if src != SourceError {
		t.Fatalf("source = %q, want %q", src, SourceError)
	}
	if got != "[GPT ERROR] connection reset by peer" {
		t.Fatalf("reply = %q", got)
	}
}

func TestGenerateSuccessTrimsAndBuildsPrompt(t *testing.T) {
	llm := &fakeCompleter{out: "\n  Namaste Raj ji!  \n"}
	g := New(llm, quietLogger())
	mem := memory.Record{Name: memory.Text("Raj")}

	got := g.Generate(context.Background(), "status batao", mem, testStatus)
	if got != "Namaste Raj ji!" {
		t.Fatalf("Generate() = %q, want trimmed model text", got)
	}
	if llm.user != "status batao" {
		t.Fatalf("user message = %q", llm.user)
	}
	for _, want := range []string{Persona, "CONSTRUCTION UPDATE:\n" + testStatus, `"name":"Raj"`, `"preferences":null`} {
		if !strings.Contains(llm.system, want) {
			t.Fatalf("system prompt missing %q:\n%s", want, llm.system)
		}
	}
}

func TestOpenAIChatRequest(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4.1-mini",`+
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  Haan ji!  "}}]}`)
	}))
	defer ts.Close()

	client := openai.NewClient(option.WithAPIKey("sk-test"), option.WithBaseURL(ts.URL), option.WithMaxRetries(0))
	g := New(NewOpenAIChat(client, "gpt-4.1-mini", 220, 0.7), quietLogger())

	got, src := g.Reply(context.Background(), "hi", memory.Record{}, testStatus)
	if src != SourceModel || got != "Haan ji!" {
		t.Fatalf("Reply() = %q/%q, want model reply", got, src)
	}
	if body["model"] != "gpt-4.1-mini" {
		t.Fatalf("model = %v, want gpt-4.1-mini", body["model"])
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want system+user", len(msgs))
	}
}

func TestOpenAIChatQuotaError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`)
	}))
	defer ts.Close()

	client := openai.NewClient(option.WithAPIKey("sk-test"), option.WithBaseURL(ts.URL), option.WithMaxRetries(0))
	g := New(NewOpenAIChat(client, "gpt-4.1-mini", 220, 0.7), quietLogger())

	if _, src := g.Reply(context.Background(), "hi", memory.Record{}, testStatus); src != SourceQuota {
		t.Fatalf("source = %q, want %q", src, SourceQuota)
	}
}

func TestOpenAIChatEmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}))
	defer ts.Close()

	client := openai.NewClient(option.WithAPIKey("sk-test"), option.WithBaseURL(ts.URL), option.WithMaxRetries(0))
	got, src := New(NewOpenAIChat(client, "m", 10, 0), quietLogger()).Reply(context.Background(), "hi", memory.Record{}, testStatus)
	if src != SourceError || !strings.HasPrefix(got, ErrorTag) {
		t.Fatalf("Reply() = %q/%q, want tagged error", got, src)
	}
}
