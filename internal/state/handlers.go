package state

import (
	"github.com/SoarinFerret/FocusWarden/internal/blocking"
	"github.com/SoarinFerret/FocusWarden/internal/session"
)

// Settings returns the stored settings, or the defaults if none exist.
func (m *Manager) Settings() (session.Settings, error) {
	s, err := m.LoadSettings()
	if err != nil {
		return session.DefaultSettings(), err
	}
	if s == nil {
		return session.DefaultSettings(), nil
	}
	return *s, nil
}

// UpdateSettings applies fn to the current settings and stores the result.
// The daemon observes the write through Watch.
func (m *Manager) UpdateSettings(fn func(*session.Settings) error) (session.Settings, error) {
	s, err := m.Settings()
	if err != nil {
		return s, err
	}
	if err := fn(&s); err != nil {
		return s, err
	}
	s.Normalize()
	return s, m.SaveSettings(s)
}

// AddSite normalizes raw and appends it to the block list. It returns the
// normalized domain and whether it was newly added.
func (m *Manager) AddSite(raw string) (string, bool, error) {
	domain, err := blocking.Normalize(raw)
	if err != nil {
		return "", false, err
	}
	list, err := m.LoadBlockList()
	if err != nil {
		return domain, false, err
	}
	list, added, err := blocking.AddDomain(list, domain)
	if err != nil || !added {
		return domain, false, err
	}
	return domain, true, m.SaveBlockList(list)
}

// RemoveSite removes raw from the block list. It reports whether the
// domain was present.
func (m *Manager) RemoveSite(raw string) (bool, error) {
	list, err := m.LoadBlockList()
	if err != nil {
		return false, err
	}
	list, removed := blocking.RemoveDomain(list, raw)
	if !removed {
		return false, nil
	}
	return true, m.SaveBlockList(list)
}
