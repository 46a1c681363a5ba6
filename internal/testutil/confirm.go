package testutil

import (
	"context"
	"sync"
)

// ScriptedConfirmer answers confirmations from a script and records every
// question asked. Once Answers is exhausted it answers Default.
//
// It satisfies engine.Confirmer.
type ScriptedConfirmer struct {
	mu      sync.Mutex
	Answers []bool
	Default bool
	asked   []Confirmation
}

// Confirmation is one recorded question.
type Confirmation struct {
	Title  string
	Detail string
	Answer bool
}

// AlwaysConfirm returns a confirmer that consents to everything.
func AlwaysConfirm() *ScriptedConfirmer {
	return &ScriptedConfirmer{Default: true}
}

// NeverConfirm returns a confirmer that declines everything.
func NeverConfirm() *ScriptedConfirmer {
	return &ScriptedConfirmer{}
}

// Scripted returns a confirmer giving answers in order, then declining.
func Scripted(answers ...bool) *ScriptedConfirmer {
	return &ScriptedConfirmer{Answers: answers}
}

func (c *ScriptedConfirmer) Confirm(ctx context.Context, title, detail string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	answer := c.Default
	if n := len(c.asked); n < len(c.Answers) {
		answer = c.Answers[n]
	}
	c.asked = append(c.asked, Confirmation{Title: title, Detail: detail, Answer: answer})
	return answer, nil
}

// Asked returns the recorded questions in order.
func (c *ScriptedConfirmer) Asked() []Confirmation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Confirmation(nil), c.asked...)
}
