// Package reply produces the assistant's answer for one turn, degrading to
// canned bilingual messages when the language model is unavailable.
package reply

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"strings"

	"riverwood/internal/memory"
	"riverwood/internal/provider"
)

// Completer is a chat model taking one system and one user message.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Source tells which branch produced a reply.
type Source string

const (
	SourceModel   Source = "model"
	SourceOffline Source = "offline"
	SourceQuota   Source = "quota"
	SourceError   Source = "error"
)

type Generator struct {
	llm Completer
	log *log.Logger
}

// New returns a generator. A nil llm puts it in offline mode.
func New(llm Completer, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.Default()
	}
	return &Generator{llm: llm, log: logger}
}

// Generate returns the reply text. It never fails: every problem becomes a
// fallback message.
func (g *Generator) Generate(ctx context.Context, userText string, mem memory.Record, statusText string) string {
	text, _ := g.Reply(ctx, userText, mem, statusText)
	return text
}

// Reply is Generate plus the branch that produced the text.
func (g *Generator) Reply(ctx context.Context, userText string, mem memory.Record, statusText string) (string, Source) {
	if g.llm == nil {
		return OfflineReply(statusText), SourceOffline
	}

	out, err := g.llm.Complete(ctx, SystemPrompt(mem, statusText), userText)
	if err != nil {
		if provider.Classify(err) == provider.QuotaExceeded {
			g.log.Warn("generation quota exhausted", "err", err)
			return QuotaReply(statusText), SourceQuota
		}
		g.log.Error("generation failed", "err", err)
		return fmt.Sprintf("%s %v", ErrorTag, err), SourceError
	}
	return strings.TrimSpace(out), SourceModel
}

// SystemPrompt joins the persona, the status block and the memory snapshot.
func SystemPrompt(mem memory.Record, statusText string) string {
	snapshot, err := json.Marshal(mem)
	if err != nil {
		snapshot = []byte("{}")
	}
	var sb strings.Builder
	sb.WriteString(Persona)
	sb.WriteString("\n\nCONSTRUCTION UPDATE:\n")
	sb.WriteString(statusText)
	sb.WriteString("\nMEMORY:\n")
	sb.Write(snapshot)
	return sb.String()
}

// OfflineReply is the answer when no provider credential is configured.
func OfflineReply(statusText string) string {
	return offlinePrefix + statusText + offlineSuffix
}

// QuotaReply is the answer when the provider's credits are exhausted.
func QuotaReply(statusText string) string {
	return quotaPrefix + statusText + quotaSuffix
}
