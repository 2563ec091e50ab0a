// Package prefs persists the settings shelf remembers between runs: the
// color theme and the list location the console was showing on exit.
package prefs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/shelf/internal/config"
)

const (
	defaultPath  = "~/.config/shelf/prefs.toml"
	defaultTheme = "Nightfox"
)

// Prefs is the contents of prefs.toml.
type Prefs struct {
	Theme string `toml:"theme"`
	// LastLocation is a list query string such as "category=Home&page=2".
	LastLocation string `toml:"last_location,omitempty"`
}

// Defaults returns the preferences used before anything was saved.
func Defaults() Prefs {
	return Prefs{Theme: defaultTheme}
}

func (p Prefs) normalize() Prefs {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.LastLocation = strings.TrimPrefix(strings.TrimSpace(p.LastLocation), "?")
	return p
}

// Path resolves path, or the default location when it is empty.
func Path(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPath
	}
	return config.ExpandPath(path)
}

// Load reads preferences from path. A missing file yields Defaults and no
// error. An unreadable or malformed file also yields Defaults, together with
// the error so the caller can log it; startup never fails on prefs.
func Load(path string) (Prefs, error) {
	resolved, err := Path(path)
	if err != nil {
		return Defaults(), err
	}

	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return Defaults(), nil
	case err != nil:
		return Defaults(), fmt.Errorf("read prefs: %w", err)
	}

	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return Defaults(), fmt.Errorf("decode %s: %w", resolved, err)
	}
	return p.normalize(), nil
}

// Save replaces the file at path atomically, creating its directory.
func Save(path string, p Prefs) error {
	resolved, err := Path(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p.normalize())
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	if err := atomic.WriteFile(resolved, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}
