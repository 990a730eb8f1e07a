// Package blockpage serves the page that blocked navigations are
// redirected to.
package blockpage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"github.com/SoarinFerret/FocusWarden/internal/session"
)

//go:embed templates/blocked.html
var templateFS embed.FS

var blockedTemplate = template.Must(template.ParseFS(templateFS, "templates/blocked.html"))

var messages = []string{
	"You're stronger than your distractions! 💪",
	"Every focused minute is a victory! 🏆",
	"Your goals are calling - don't let them wait! 📞",
	"Productivity mode: ACTIVATED! ⚡",
	"Your future self will thank you for staying focused! 🌟",
	"Great things happen when you stay committed! 🎯",
	"Every distraction avoided is a step towards success! 🚀",
	"Focus is your superpower - use it wisely! ⚡",
	"A focused mind is like a laser beam - powerful! 🔥",
	"You're building amazing focus habits! 🧠",
	"Distractions are temporary, accomplishments are forever! ✨",
}

var facts = []string{
	"🧠 Your brain uses about 20% of your total energy!",
	"🍅 The Pomodoro Technique was invented in the 1980s by Francesco Cirillo!",
	"⚡ Focused work for 25 minutes can be more productive than 2 hours of distracted work!",
	"🎯 Studies show that it takes an average of 23 minutes to refocus after an interruption!",
	"💡 Taking breaks actually improves your creativity and problem-solving abilities!",
	"🌟 Every time you resist a distraction, you're building stronger willpower!",
}

// StatusFunc reports the clock state shown on the page.
type StatusFunc func(ctx context.Context) (session.Status, error)

type page struct {
	Site      string
	Message   string
	Fact      string
	Remaining string
}

// Handler renders GET /blocked?site=<domain>.
type Handler struct {
	Status StatusFunc
	// Pick returns an index in [0, n). Defaults to math/rand.
	Pick   func(n int) int
	Logger *slog.Logger
}

func (h *Handler) pick(n int) int {
	if h.Pick != nil {
		return h.Pick(n)
	}
	return rand.IntN(n)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	site := r.URL.Query().Get("site")
	if site == "" {
		site = "this site"
	}
	data := page{
		Site:    site,
		Message: messages[h.pick(len(messages))],
		Fact:    facts[h.pick(len(facts))],
	}
	if h.Status != nil {
		if st, err := h.Status(r.Context()); err == nil && st.Running && st.Mode == session.ModeFocus {
			data.Remaining = session.FormatClock(st.RemainingSeconds)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := blockedTemplate.Execute(w, data); err != nil {
		h.logger().Warn("failed to render blocked page", "err", err)
	}
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// NewMux routes /blocked to h.
func NewMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/blocked", h)
	return mux
}

// Serve listens on addr until ctx is done.
func Serve(ctx context.Context, addr string, h *Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           NewMux(h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	h.logger().Info("blocked page listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
