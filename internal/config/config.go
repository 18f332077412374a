package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/scythe504/trivia-backend/internal"
)

//go:embed categories.yaml
var defaultCategories []byte

type Config struct {
	Port int

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	AuthMode    string
	IdentityURL string

	QuestionAPIURL     string
	QuestionAPITimeout time.Duration
	DefaultTimeLimit   int // seconds
	DeadlineEnabled    bool
	DeadlineGrace      time.Duration
	QuestionsSeedFile  string

	AllowedOrigins []string
	LogLevel       slog.Level

	Categories Categories
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Port:               GetInt("PORT", 8080),
		DatabaseURL:        GetString("DATABASE_URL", ""),
		RedisAddr:          GetString("REDIS_ADDR", ""),
		RedisPassword:      GetString("REDIS_PASSWORD", ""),
		AuthMode:           GetString("AUTH_MODE", "remote"),
		IdentityURL:        GetString("IDENTITY_URL", ""),
		QuestionAPIURL:     GetString("QUESTION_API_URL", "https://opentdb.com/api.php"),
		QuestionAPITimeout: GetDuration("QUESTION_API_TIMEOUT", 5*time.Second),
		DefaultTimeLimit:   GetInt("DEFAULT_TIME_LIMIT", 15),
		DeadlineEnabled:    GetBool("QUESTION_DEADLINE_ENABLED", true),
		DeadlineGrace:      GetDuration("QUESTION_DEADLINE_GRACE", 3*time.Second),
		QuestionsSeedFile:  GetString("QUESTIONS_SEED_FILE", ""),
		AllowedOrigins:     splitList(GetString("ALLOWED_ORIGINS", "*")),
		LogLevel:           parseLevel(GetString("LOG_LEVEL", "info")),
	}

	raw := defaultCategories
	if path := GetString("CATEGORIES_FILE", ""); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read categories file: %w", err)
		}
		raw = b
	}
	cats, err := ParseCategories(raw)
	if err != nil {
		return nil, err
	}
	cfg.Categories = cats

	switch cfg.AuthMode {
	case "remote":
		if cfg.IdentityURL == "" {
			return nil, errors.New("IDENTITY_URL is required when AUTH_MODE=remote")
		}
	case "dev":
	default:
		return nil, fmt.Errorf("unknown AUTH_MODE %q", cfg.AuthMode)
	}

	return cfg, nil
}

func GetString(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func GetInt(key string, defaultValue int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func GetBool(key string, defaultValue bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func GetDuration(key string, defaultValue time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Categories maps a category name to its external question API id.
type Categories struct {
	names []string
	ids   map[string]int
}

type categoriesFile struct {
	Categories []struct {
		Name       string `yaml:"name"`
		ExternalID int    `yaml:"externalId"`
	} `yaml:"categories"`
}

func ParseCategories(raw []byte) (Categories, error) {
	var f categoriesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Categories{}, fmt.Errorf("parse categories: %w", err)
	}
	if len(f.Categories) == 0 {
		return Categories{}, errors.New("parse categories: table is empty")
	}

	c := Categories{ids: make(map[string]int, len(f.Categories))}
	for _, entry := range f.Categories {
		if entry.Name == "" {
			return Categories{}, errors.New("parse categories: entry without name")
		}
		if _, dup := c.ids[entry.Name]; dup {
			return Categories{}, fmt.Errorf("parse categories: duplicate %q", entry.Name)
		}
		c.ids[entry.Name] = entry.ExternalID
		c.names = append(c.names, entry.Name)
	}
	// quick match rooms are created with this category
	if !c.Has(internal.QuickMatchCategory) {
		return Categories{}, fmt.Errorf("parse categories: missing %q", internal.QuickMatchCategory)
	}
	return c, nil
}

func (c Categories) Names() []string {
	return append([]string(nil), c.names...)
}

func (c Categories) Has(name string) bool {
	_, ok := c.ids[name]
	return ok
}

// ExternalID returns the API id for name; 0 means any category.
func (c Categories) ExternalID(name string) (int, bool) {
	id, ok := c.ids[name]
	return id, ok
}

// DefaultCategories returns the embedded category table.
func DefaultCategories() Categories {
	c, err := ParseCategories(defaultCategories)
	if err != nil {
		panic(err)
	}
	return c
}
