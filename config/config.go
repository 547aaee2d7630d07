package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	ServerAddr string

	UserAgent      string
	FetchTimeoutMs int
	SettleMs       int
	MaxConcurrency int
	ChromeBin      string

	SourcesPath   string
	CSVOutputPath string
	Debug         bool
}

// Source describes one external site the crawler scrapes. Unit declares the
// price unit the source quotes in (yuan/kg vs yuan/ton); it is stored
// alongside each record and never used to convert.
type Source struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Kind    string `yaml:"kind"` // "prices" or "news"
	Unit    string `yaml:"unit"`
	Enabled bool   `yaml:"enabled"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "cotton"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "cotton123"),
		PostgresDB:       getEnv("POSTGRES_DB", "cotton_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		ServerAddr: getEnv("SERVER_ADDR", ":8080"),

		UserAgent: getEnv("CRAWL_USER_AGENT",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 "+
				"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"),
		FetchTimeoutMs: getEnvInt("FETCH_TIMEOUT_MS", 30000),
		SettleMs:       getEnvInt("SETTLE_MS", 4000),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		ChromeBin:      getEnv("CHROME_BIN", ""),

		SourcesPath:   getEnv("SOURCES_PATH", "./config/sources.yaml"),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", ""),
		Debug:         getEnvBool("DEBUG", false),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// LoadSources parses the YAML source registry at path. A missing file is not
// an error: the built-in registry matching the sites the extractors know
// about is returned instead.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSources(), nil
		}
		return nil, fmt.Errorf("config: read sources %q: %w", path, err)
	}

	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse sources %q: %w", path, err)
	}
	if len(f.Sources) == 0 {
		return nil, fmt.Errorf("config: sources file %q lists no sources", path)
	}
	return f.Sources, nil
}

// DefaultSources returns the built-in source registry.
func DefaultSources() []Source {
	return []Source{
		{Name: "cottonchina", URL: "http://www.cottonchina.org.cn/", Kind: "prices", Unit: "yuan/ton", Enabled: true},
		{Name: "mysteel", URL: "https://m.mysteel.com/hot/1585337.html", Kind: "prices", Unit: "yuan/kg", Enabled: true},
		{Name: "cncotton", URL: "https://www.cncotton.com/", Kind: "news", Unit: "", Enabled: true},
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
