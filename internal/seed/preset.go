// Package seed fills a development database with demo members, forum
// threads, events and resources. It is not meant for production data.
package seed

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset sizes a seeding run. Presets are YAML files; omitted keys keep
// their DefaultPreset value.
type Preset struct {
	// Seed makes the generated data reproducible. Zero picks a random seed.
	Seed                 int64   `yaml:"seed"`
	Members              int     `yaml:"members"`
	Admins               int     `yaml:"admins"`
	PendingRatio         float64 `yaml:"pending_ratio"`
	ThreadsPerCategory   int     `yaml:"threads_per_category"`
	MaxCommentsPerThread int     `yaml:"max_comments_per_thread"`
	UpcomingEvents       int     `yaml:"upcoming_events"`
	PastEvents           int     `yaml:"past_events"`
	Resources            int     `yaml:"resources"`
	// HistoryDays bounds how far back member signups and threads are spread.
	HistoryDays int `yaml:"history_days"`
}

func DefaultPreset() Preset {
	return Preset{
		Members:              40,
		Admins:               2,
		PendingRatio:         0.15,
		ThreadsPerCategory:   6,
		MaxCommentsPerThread: 8,
		UpcomingEvents:       3,
		PastEvents:           3,
		Resources:            6,
		HistoryDays:          540,
	}
}

// LoadPreset reads a YAML preset on top of DefaultPreset.
func LoadPreset(path string) (Preset, error) {
	p := DefaultPreset()
	raw, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read preset: %w", err)
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("parse preset %s: %w", path, err)
	}
	return p, p.Validate()
}

func (p Preset) Validate() error {
	if p.Members < 0 || p.Admins < 0 || p.ThreadsPerCategory < 0 || p.MaxCommentsPerThread < 0 ||
		p.UpcomingEvents < 0 || p.PastEvents < 0 || p.Resources < 0 {
		return errors.New("preset counts must not be negative")
	}
	if p.PendingRatio < 0 || p.PendingRatio > 1 {
		return fmt.Errorf("pending_ratio %.2f must be between 0 and 1", p.PendingRatio)
	}
	if p.HistoryDays < 1 {
		return errors.New("history_days must be at least 1")
	}
	if p.ThreadsPerCategory > 0 && p.Members+p.Admins == 0 {
		return errors.New("threads need at least one member to author them")
	}
	return nil
}
