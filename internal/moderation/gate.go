package moderation

import (
	"context"
	"log/slog"
	"time"
)

// Verdict is the gate's answer for a single message payload.
type Verdict struct {
	Allowed bool
	Reason  string
}

var allowed = Verdict{Allowed: true}

// Classifier decides message admissibility. Implementations may be
// in-process (Blocklist) or remote oracles; the hot path only sees this
// interface.
type Classifier interface {
	Classify(ctx context.Context, text string) (Verdict, error)
}

// Gate wraps a Classifier with a per-call timeout and a failure policy.
// Classifier errors never propagate to the caller: depending on policy the
// message is either blocked (default) or waved through.
type Gate struct {
	cls      Classifier
	timeout  time.Duration
	failOpen bool
	log      *slog.Logger
}

func NewGate(cls Classifier, timeout time.Duration, failOpen bool, log *slog.Logger) *Gate {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Gate{cls: cls, timeout: timeout, failOpen: failOpen, log: log}
}

func (g *Gate) Screen(ctx context.Context, text string) Verdict {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	v, err := g.cls.Classify(ctx, text)
	if err != nil {
		g.log.Warn("moderation classify failed", "err", err, "fail_open", g.failOpen)
		if g.failOpen {
			return allowed
		}
		return Verdict{Allowed: false, Reason: "moderation unavailable"}
	}
	return v
}
