// Package config loads the picker settings file and the server environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/DoyleJ11/dbd-character-picker/internal/engine"
)

const DefaultSettingsFile = "settings.yaml"

func DefaultKillers() []string {
	return []string{
		"Huntress", "Mastermind", "Nurse", "Knight", "Cenobite", "Deathslinger",
		"Skull Merchant", "Executioner", "Hag", "Nemesis", "Ghost Face", "Legion",
		"Clown", "Cannibal", "Pig", "Oni", "Twins", "Trapper", "Spirit",
		"Hillbilly", "Doctor", "Plague", "Onryo", "Artist", "Dredge", "Trickster",
		"Blight", "Wraith", "Nightmare", "Shape",
	}
}

func DefaultSurvivors() []string {
	return []string{
		"David", "Jeff", "Ada", "Elodie", "Dwight", "Thalita", "Bill", "Haddie",
		"Claudette", "Meg", "Felix", "Kate", "Leon", "Jonah", "Laurie", "Feng",
		"Mikaela", "Ash", "Yoichi", "Zarina", "Jane", "Ace", "Cheryl", "Vittorio",
		"Yui", "Quentin", "Nea", "Adam", "Yun-Jin", "Renato", "Rebecca", "Jill",
		"Jake", "Tapp",
	}
}

// Settings is the validated content of the settings file.
type Settings struct {
	Survivor  bool
	Random    bool
	Killers   []string
	Survivors []string
}

// rawSettings mirrors the file. Flags are kept as text so a bad value can
// fall back to its default instead of failing the whole file.
type rawSettings struct {
	Team      string   `yaml:"team"`
	Mode      string   `yaml:"mode"`
	Killers   []string `yaml:"killers"`
	Survivors []string `yaml:"survivors"`
}

func Defaults() Settings {
	return Settings{
		Killers:   DefaultKillers(),
		Survivors: DefaultSurvivors(),
	}
}

// EngineConfig converts the file flags into explicit team and strategy values.
func (s Settings) EngineConfig() engine.Config {
	return engine.Config{
		ActiveTeam: engine.TeamFromBool(s.Survivor),
		Strategy:   engine.StrategyFromBool(s.Random),
		Killers:    s.Killers,
		Survivors:  s.Survivors,
	}
}

// Load reads the settings file at path, writing a default one first when it
// does not exist. Invalid flags and rosters are replaced by defaults with a
// warning; a file that cannot be parsed at all is an error.
func Load(path string, logger *zap.Logger) (Settings, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("settings file not found, creating default", zap.String("path", path))
		if err := WriteDefault(path); err != nil {
			return Settings{}, err
		}
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("config: read settings: %w", err)
	}

	return Parse(data, logger)
}

// Parse decodes settings file content.
func Parse(data []byte, logger *zap.Logger) (Settings, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var raw rawSettings
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Settings{}, fmt.Errorf("config: parse settings: %w", err)
	}

	return Settings{
		Survivor:  parseFlag(raw.Team, "team", logger),
		Random:    parseFlag(raw.Mode, "mode", logger),
		Killers:   parseRoster(raw.Killers, "killers", DefaultKillers, logger),
		Survivors: parseRoster(raw.Survivors, "survivors", DefaultSurvivors, logger),
	}, nil
}

func parseFlag(value, key string, logger *zap.Logger) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		logger.Warn("invalid flag in settings file, using 0",
			zap.String("key", key), zap.String("value", value))
		return false
	}
	return b
}

func parseRoster(names []string, key string, fallback func() []string, logger *zap.Logger) []string {
	out := engine.Dedupe(names)
	if len(out) < engine.MinEligible {
		logger.Warn("invalid roster in settings file, using default list",
			zap.String("key", key), zap.Int("distinct", len(out)))
		return fallback()
	}
	return out
}

// WriteDefault writes a commented settings file with the default rosters.
func WriteDefault(path string) error {
	var b strings.Builder
	b.WriteString("# Default team selection: 0 = killer, 1 = survivor\n")
	b.WriteString("team: 0\n\n")
	b.WriteString("# Default mode selection: 0 = cycling, 1 = random\n")
	b.WriteString("mode: 0\n\n")

	lists, err := yaml.Marshal(struct {
		Killers   []string `yaml:"killers"`
		Survivors []string `yaml:"survivors"`
	}{DefaultKillers(), DefaultSurvivors()})
	if err != nil {
		return fmt.Errorf("config: encode defaults: %w", err)
	}
	b.WriteString("# Character rosters. Each needs at least 3 distinct names.\n")
	b.Write(lists)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("config: write default settings: %w", err)
	}
	return nil
}
