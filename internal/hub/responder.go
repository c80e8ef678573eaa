package hub

import (
	"context"

	"riverwood/internal/frontend"
	"riverwood/internal/turn"
)

// Responder answers turn and speak requests addressed to name (or to nobody
// in particular) using the session.
func Responder(name string, sess *frontend.Session) HandleFunc {
	return func(ctx context.Context, m Message) []Message {
		if m.To != "" && m.To != name {
			return nil
		}
		out := Message{From: name, To: m.From}

		switch m.Kind {
		case KindTurn:
			res := sess.Turn(ctx, turn.Input{Audio: m.Audio, Text: m.Content})
			if res.Aborted() {
				out.Kind, out.Content = KindNotice, res.Message
				return []Message{out}
			}
			out.Kind, out.Content = KindReply, res.Reply
			return []Message{out}

		case KindSpeak:
			audio, notice := sess.Play(ctx)
			if notice != "" {
				out.Kind, out.Content = KindNotice, notice
				return []Message{out}
			}
			out.Kind, out.Audio = KindAudio, audio
			return []Message{out}
		}
		return nil
	}
}
