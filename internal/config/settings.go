package config

import "strings"

// Settings exposes the follows username as the list criterion. It reads
// through the loader on every call, so a username saved from the UI or set
// in the environment is seen on the next refresh.
type Settings struct {
	loader   *Loader
	override string
}

// NewSettings returns settings backed by l. A non-empty override wins over
// the configured username and is never persisted.
func NewSettings(l *Loader, override string) *Settings {
	return &Settings{loader: l, override: strings.TrimSpace(override)}
}

func (s *Settings) Criterion() string {
	if s.override != "" {
		return s.override
	}
	return strings.TrimSpace(s.loader.v.GetString("follows.username"))
}

// SetCriterion saves name as the follows username and drops any override.
// On failure the criterion is unchanged.
func (s *Settings) SetCriterion(name string) error {
	if err := s.loader.SaveUsername(name); err != nil {
		return err
	}
	s.override = ""
	return nil
}
