package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"chessping/internal/chess"
	"chessping/internal/match"
)

const envPrefix = "CHESSPING_"

var Config Configuration

type Configuration struct {
	LogLevel    int     `json:"logLevel"`
	LogFile     string  `json:"logFile"`
	Address     string  `json:"address"`
	TickRate    int     `json:"tickRate"`
	Rows        int     `json:"rows"`
	Variant     string  `json:"variant"`
	FirstServer string  `json:"firstServer"`
	HostPaddle  string  `json:"hostPaddle"`
	SpeedFactor float64 `json:"speedFactor"`
	SavePath    string  `json:"savePath"`
	SaveSlot    string  `json:"saveSlot"`
	SaveFormat  string  `json:"saveFormat"`
	SetupPath   string  `json:"setupPath"`
}

func Default() Configuration {
	return Configuration{
		LogLevel:    int(slog.LevelInfo),
		LogFile:     "chessping.log",
		Address:     "127.0.0.1:5050",
		TickRate:    60,
		Rows:        2,
		Variant:     "confined",
		FirstServer: "left",
		HostPaddle:  "left",
		SpeedFactor: 1,
		SavePath:    "chessping_save.json",
		SaveFormat:  "json",
	}
}

// LoadConfig reads the JSON config at path, or config.json when path is
// empty, then applies .env and CHESSPING_* overrides. Missing or broken files
// fall back to defaults.
func LoadConfig(path string) {
	Config = Load(path)
}

func Load(path string) Configuration {
	c := Default()

	if path == "" {
		path = "config.json"
	}
	cf, err := os.ReadFile(path)
	if err != nil {
		slog.Info("failed to open config at path provided, using default config instead", "path", path)
	} else if err := json.Unmarshal(cf, &c); err != nil {
		slog.Info("failed to read configuration, using default config instead...", "error", err)
		c = Default()
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}
	c.applyEnv()
	return c
}

func (c *Configuration) applyEnv() {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				slog.Warn("ignoring bad environment value", "name", envPrefix+name, "value", v)
				return
			}
			*dst = n
		}
	}

	num("LOG_LEVEL", &c.LogLevel)
	str("LOG_FILE", &c.LogFile)
	str("ADDRESS", &c.Address)
	num("TICK_RATE", &c.TickRate)
	num("ROWS", &c.Rows)
	str("VARIANT", &c.Variant)
	str("FIRST_SERVER", &c.FirstServer)
	str("HOST_PADDLE", &c.HostPaddle)
	str("SAVE_PATH", &c.SavePath)
	str("SAVE_SLOT", &c.SaveSlot)
	str("SAVE_FORMAT", &c.SaveFormat)
	str("SETUP_PATH", &c.SetupPath)

	if v, ok := os.LookupEnv(envPrefix + "SPEED_FACTOR"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Warn("ignoring bad environment value", "name", envPrefix+"SPEED_FACTOR", "value", v)
		} else {
			c.SpeedFactor = f
		}
	}
}

// SetupLogging points the default slog logger at LogFile, since the terminal
// belongs to the game view. The returned file must be closed on exit.
func (c Configuration) SetupLogging() (*os.File, error) {
	slog.SetLogLoggerLevel(slog.Level(c.LogLevel))
	if c.LogFile == "" {
		return nil, nil
	}
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	h := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.Level(c.LogLevel)})
	slog.SetDefault(slog.New(h))
	return f, nil
}

// Setup returns the piece setup: the TOML file at SetupPath when set,
// otherwise the default roster for Rows.
func (c Configuration) Setup() (chess.Setup, error) {
	if c.SetupPath == "" {
		return chess.DefaultSetup(c.Rows), nil
	}
	return LoadSetup(c.SetupPath, c.Rows)
}

// LoadSetup decodes a TOML setup file. A file without rows takes rows from
// the caller.
func LoadSetup(path string, rows int) (chess.Setup, error) {
	var s chess.Setup
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return chess.Setup{}, fmt.Errorf("read setup %s: %w", path, err)
	}
	if s.Rows == 0 {
		s.Rows = rows
	}
	if err := s.Validate(); err != nil {
		return chess.Setup{}, fmt.Errorf("setup %s: %w", path, err)
	}
	return s.Normalize(), nil
}

// MatchOptions resolves the match settings for a simulating process.
func (c Configuration) MatchOptions() (match.Options, error) {
	setup, err := c.Setup()
	if err != nil {
		return match.Options{}, err
	}
	variant, err := match.ParseVariant(c.Variant)
	if err != nil {
		return match.Options{}, err
	}
	first, err := chess.ParseSide(c.FirstServer)
	if err != nil {
		return match.Options{}, fmt.Errorf("first server: %w", err)
	}
	return match.Options{
		Setup:       setup,
		FirstServer: first,
		SpeedFactor: c.SpeedFactor,
		Variant:     variant,
		Authority:   match.Simulate,
	}, nil
}

func (c Configuration) HostSide() (chess.Side, error) {
	side, err := chess.ParseSide(c.HostPaddle)
	if err != nil {
		return "", fmt.Errorf("host paddle: %w", err)
	}
	return side, nil
}
