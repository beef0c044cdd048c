// Package flash stores one-shot user-facing messages in the session.
//
// A message is written by the request that produces it and consumed by the next page
// that renders it. Reading with [Take] clears both session fields.
package flash

import "github.com/MrEthical07/cursos/session"

// Kind classifies a message for presentation.
type Kind string

const (
	Success Kind = "success"
	Danger  Kind = "danger"
)

// Message is a flash message read from the session.
type Message struct {
	Kind Kind
	Text string
}

// Set writes kind and text, overwriting any unread message.
func Set(sess *session.Session, kind Kind, text string) {
	sess.Set(session.KeyFlashKind, string(kind))
	sess.Set(session.KeyFlashMessage, text)
}

// Peek returns the pending message without clearing it.
func Peek(sess *session.Session) (Message, bool) {
	text, ok := sess.Get(session.KeyFlashMessage)
	if !ok {
		return Message{}, false
	}
	kind, _ := sess.Get(session.KeyFlashKind)
	return Message{Kind: Kind(kind), Text: text}, true
}

// Take returns the pending message and clears it.
func Take(sess *session.Session) (Message, bool) {
	msg, ok := Peek(sess)
	sess.Delete(session.KeyFlashKind)
	sess.Delete(session.KeyFlashMessage)
	return msg, ok
}
