package gate

import (
	"log/slog"
	"time"
)

const (
	LevelError = "error"
	LevelInfo  = "info"
)

const (
	noticeIncomplete  = "account-incomplete"
	noticeConfigError = "config-error"
)

// Notice is a transient, dismissible user-visible message.
type Notice struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier receives user-visible notices as they are raised.
type Notifier interface {
	Notify(level, message string)
}

// LogNotifier writes notices to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(level, message string) {
	if level == LevelError {
		slog.Warn("user notice", "message", message)
		return
	}
	slog.Info("user notice", "message", message)
}

// noticeOnce raises a keyed notice at most once per session; re-evaluating
// the same inputs never repeats it. Callers hold g.mu.
func (g *Gate) noticeOnce(key, level, message string) {
	if g.shownNotices[key] {
		return
	}
	g.shownNotices[key] = true
	g.notices = append(g.notices, Notice{Level: level, Message: message, At: time.Now()})
	g.notifier.Notify(level, message)
}

// Notices returns the pending notices for the session.
func (g *Gate) Notices() []Notice {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Notice, len(g.notices))
	copy(out, g.notices)
	return out
}

// DismissNotices drops the pending notices. Keys stay recorded, so a
// dismissed one-time notice does not come back for the same session.
func (g *Gate) DismissNotices() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.notices = nil
}
