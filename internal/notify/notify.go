// Package notify delivers the completion alarm: a desktop notification
// carrying the configured sound.
package notify

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/zeebo/blake3"

	"github.com/SoarinFerret/FocusWarden/internal/session"
)

const (
	notificationsService = "org.freedesktop.Notifications"
	notificationsPath    = "/org/freedesktop/Notifications"
	notifyMethod         = "org.freedesktop.Notifications.Notify"

	appName      = "FocusWarden"
	expireMillis = int32(10000)
)

// Request describes one alarm. Completed is the mode that just finished.
type Request struct {
	SoundID         string
	Volume          int
	CustomSoundName string
	CustomSoundData []byte
	Completed       session.Mode
	Phase           int
}

// NewRequest builds a request from the current settings.
func NewRequest(s session.Settings, completed session.Mode, phase int) Request {
	return Request{
		SoundID:         s.AlarmSound,
		Volume:          s.Volume,
		CustomSoundName: s.CustomSoundName,
		CustomSoundData: s.CustomSoundData,
		Completed:       completed,
		Phase:           phase,
	}
}

// Alarm rings on completion. Implementations must return immediately; the
// clock never waits for, or depends on, the outcome.
type Alarm interface {
	Ring(Request)
}

// Discard is an Alarm that only logs.
type Discard struct {
	Logger *slog.Logger
}

func (d Discard) Ring(r Request) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("phase complete", "mode", r.Completed, "phase", r.Phase, "sound", r.SoundID, "volume", r.Volume)
}

// Message returns the notification summary and body for a finished mode.
func Message(completed session.Mode) (string, string) {
	summary := "Session Complete!"
	switch completed {
	case session.ModeFocus:
		return summary, "Great job! You've completed a focus session. Time for a break."
	case session.ModeShortBreak:
		return summary, "Break's over! Ready to focus? Let's get back to work!"
	case session.ModeLongBreak:
		return summary, "Long break's over! You're refreshed and ready to be productive!"
	}
	return summary, "Timer finished."
}

// Notifier sends alarms to org.freedesktop.Notifications on a D-Bus
// connection.
type Notifier struct {
	conn     *dbus.Conn
	cacheDir string
	logger   *slog.Logger

	mu         sync.Mutex
	customPath string
	customFor  [32]byte
}

// NewNotifier creates a Notifier. cacheDir holds the custom sound file.
func NewNotifier(conn *dbus.Conn, cacheDir string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{conn: conn, cacheDir: cacheDir, logger: logger}
}

// Ring sends the notification in the background.
func (n *Notifier) Ring(r Request) {
	go func() {
		if err := n.send(r); err != nil {
			n.logger.Warn("failed to send alarm notification", "mode", r.Completed, "err", err)
			return
		}
		n.logger.Info("sent alarm notification", "mode", r.Completed, "phase", r.Phase, "sound", r.SoundID)
	}()
}

func (n *Notifier) send(r Request) error {
	hints, err := n.hints(r)
	if err != nil {
		// The notification is still worth showing without its sound.
		n.logger.Warn("custom alarm sound unavailable", "err", err)
	}

	summary, body := Message(r.Completed)
	obj := n.conn.Object(notificationsService, notificationsPath)
	call := obj.Call(notifyMethod, 0,
		appName,       // app_name
		uint32(0),     // replaces_id
		"alarm-clock", // app_icon
		summary,       // summary
		body,          // body
		[]string{},    // actions
		hints,         // hints
		expireMillis,  // expire_timeout
	)
	if call.Err != nil {
		return fmt.Errorf("failed to send notification: %w", call.Err)
	}
	return nil
}

func (n *Notifier) hints(r Request) (map[string]dbus.Variant, error) {
	hints := map[string]dbus.Variant{
		"urgency":              dbus.MakeVariant(byte(2)), // critical stays until dismissed
		"x-focuswarden-volume": dbus.MakeVariant(int32(r.Volume)),
	}
	if r.Volume == 0 {
		hints["suppress-sound"] = dbus.MakeVariant(true)
		return hints, nil
	}

	if r.SoundID == session.CustomSound && len(r.CustomSoundData) > 0 {
		path, err := n.customSoundFile(r.CustomSoundName, r.CustomSoundData)
		if err != nil {
			return hints, err
		}
		hints["sound-file"] = dbus.MakeVariant(path)
		return hints, nil
	}

	hints["sound-name"] = dbus.MakeVariant(r.SoundID)
	return hints, nil
}

// customSoundFile writes the custom payload to the cache directory once
// per distinct content, and returns its path.
func (n *Notifier) customSoundFile(name string, data []byte) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	key := blake3.Sum256(data)
	if n.customPath != "" && n.customFor == key {
		if _, err := os.Stat(n.customPath); err == nil {
			return n.customPath, nil
		}
	}

	if err := os.MkdirAll(n.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}
	fileName := "custom-alarm" + filepath.Ext(name)
	path := filepath.Join(n.cacheDir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write custom sound: %w", err)
	}
	n.customPath = path
	n.customFor = key
	return path, nil
}
