package seed

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrEmptyPreset is returned for a preset that would create no users.
var ErrEmptyPreset = errors.New("seed preset creates no users")

//go:embed presets/presets.yaml
var presetFS embed.FS

// Preset sizes a seeded social mesh.
type Preset struct {
	Users           int     `yaml:"users"`
	Posts           int     `yaml:"posts"`
	RetweetRate     float64 `yaml:"retweet_rate"`
	QuoteRate       float64 `yaml:"quote_rate"`
	ImageRate       float64 `yaml:"image_rate"`
	CommentsPerPost int     `yaml:"comments_per_post"`
	LikeRate        float64 `yaml:"like_rate"`
	CommentLikeRate float64 `yaml:"comment_like_rate"`
	FollowRate      float64 `yaml:"follow_rate"`
	MaxDays         int     `yaml:"max_days"`
}

type presetFile struct {
	Presets map[string]Preset `yaml:"presets"`
}

// Presets returns the built-in presets by name.
func Presets() (map[string]Preset, error) {
	raw, err := presetFS.ReadFile("presets/presets.yaml")
	if err != nil {
		return nil, err
	}
	return parsePresets(raw)
}

// LoadPresetFile reads presets from a YAML file with the same layout as the built-in one.
func LoadPresetFile(path string) (map[string]Preset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset file: %w", err)
	}
	return parsePresets(raw)
}

// PresetByName looks name up among the built-in presets.
func PresetByName(name string) (Preset, error) {
	all, err := Presets()
	if err != nil {
		return Preset{}, err
	}
	p, ok := all[name]
	if !ok {
		names := make([]string, 0, len(all))
		for n := range all {
			names = append(names, n)
		}
		sort.Strings(names)
		return Preset{}, fmt.Errorf("unknown seed preset %q (have %v)", name, names)
	}
	return p, nil
}

func parsePresets(raw []byte) (map[string]Preset, error) {
	var f presetFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	for name, p := range f.Presets {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
	}
	return f.Presets, nil
}

// Validate rejects sizes and rates the seeder cannot honor.
func (p Preset) Validate() error {
	if p.Users < 1 {
		return ErrEmptyPreset
	}
	if p.Posts < 0 || p.CommentsPerPost < 0 || p.MaxDays < 0 {
		return fmt.Errorf("counts must not be negative")
	}
	for name, r := range map[string]float64{
		"retweet_rate":      p.RetweetRate,
		"quote_rate":        p.QuoteRate,
		"image_rate":        p.ImageRate,
		"like_rate":         p.LikeRate,
		"comment_like_rate": p.CommentLikeRate,
		"follow_rate":       p.FollowRate,
	} {
		if r < 0 || r > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, r)
		}
	}
	return nil
}
