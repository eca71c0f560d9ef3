package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ScrapeConfig хранит параметры поиска и обхода годов постройки
type ScrapeConfig struct {
	StartYear int // Обход идет от StartYear вниз к EndYear
	EndYear   int
	Years     []int // Явный список лет; перекрывает диапазон, если задан

	SearchName   string
	PriceFrom    int
	PriceTo      int
	DwellingType string
	Omni         string
	ListingType  string

	MaxRetries        int
	RetryBackoffBase  time.Duration
	MaxPagesPerYear   int
	RateLimitMinDelay time.Duration
	RateLimitMaxDelay time.Duration
	RequestTimeout    time.Duration
	EnrichBuiltYear   bool
}

// MLXConfig хранит адреса провайдера и файл сессии
type MLXConfig struct {
	HomeURL    string
	SearchURL  string
	CookieFile string
}

// OutputConfig описывает, куда писать результаты
type OutputConfig struct {
	Sinks    []string // csv, json, postgres, rabbitmq
	CSVFile  string
	JSONFile string
}

// RabbitMQConfig хранит конфигурацию для RabbitMQ
type RabbitMQConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// DBconfig хранит конфигурацию для БД
type DBconfig struct {
	URL string
}

type StdoutLogConfig struct {
	Level string
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string
}

type DebugConfig struct {
	Enabled bool
	Dir     string
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	AppName      string
	Scrape       ScrapeConfig
	MLX          MLXConfig
	Output       OutputConfig
	Database     DBconfig
	RabbitMQ     RabbitMQConfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
	Debug        DebugConfig
}

// LoadConfig загружает конфигурацию из переменных окружения.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		// Переменные могут приходить и из окружения напрямую
		log.Printf("Info: Could not load .env file (path: %v): %v.\n", envPath, err)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "mlx-scraper-service")

	cfg.Scrape.StartYear = getEnvAsInt("SCRAPE_START_YEAR", time.Now().Year())
	cfg.Scrape.EndYear = getEnvAsInt("SCRAPE_END_YEAR", 1950)
	if yearsStr := os.Getenv("SCRAPE_YEARS"); yearsStr != "" {
		years, err := parseYearList(yearsStr)
		if err != nil {
			return nil, fmt.Errorf("SCRAPE_YEARS is invalid: %w", err)
		}
		cfg.Scrape.Years = years
	}

	cfg.Scrape.SearchName = getEnvAsString("SEARCH_NAME", "")
	cfg.Scrape.PriceFrom = getEnvAsInt("PRICE_FROM", 0)
	cfg.Scrape.PriceTo = getEnvAsInt("PRICE_TO", 0)
	cfg.Scrape.DwellingType = getEnvAsString("DWELLING_TYPE", "")
	cfg.Scrape.Omni = getEnvAsString("OMNI", "")
	cfg.Scrape.ListingType = getEnvAsString("LISTING_TYPE", "")

	cfg.Scrape.MaxRetries = getEnvAsInt("MAX_RETRIES", 3)
	cfg.Scrape.RetryBackoffBase = secondsDuration(getEnvAsFloat("RETRY_BACKOFF_BASE_SECONDS", 2.0))
	cfg.Scrape.MaxPagesPerYear = getEnvAsInt("MAX_PAGES_PER_YEAR", 50)
	cfg.Scrape.RateLimitMinDelay = secondsDuration(getEnvAsFloat("RATE_LIMIT_MIN_SECONDS", 1.0))
	cfg.Scrape.RateLimitMaxDelay = secondsDuration(getEnvAsFloat("RATE_LIMIT_MAX_SECONDS", 3.0))
	cfg.Scrape.RequestTimeout = secondsDuration(getEnvAsFloat("REQUEST_TIMEOUT_SECONDS", 30.0))
	cfg.Scrape.EnrichBuiltYear = getEnvAsBool("ENRICH_BUILT_YEAR", false)

	cfg.MLX.HomeURL = getEnvAsString("MLX_HOME_URL", "")
	cfg.MLX.SearchURL = getEnvAsString("MLX_SEARCH_URL", "")
	cfg.MLX.CookieFile = getEnvAsString("COOKIE_FILE", "session_cookies.json")

	cfg.Output.Sinks = parseSinkList(getEnvAsString("OUTPUT_SINKS", "csv"))
	cfg.Output.CSVFile = getEnvAsString("CSV_OUTPUT_FILE", "calgary_properties.csv")
	cfg.Output.JSONFile = getEnvAsString("JSON_OUTPUT_FILE", "calgary_properties.jsonl")

	// URL базы и брокера обязательны только если соответствующий sink включен
	cfg.Database.URL = os.Getenv("DATABASE_URL")
	if sinkEnabled(cfg.Output.Sinks, "postgres") && cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required when postgres sink is enabled")
	}

	cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
	cfg.RabbitMQ.Exchange = getEnvAsString("RABBITMQ_EXCHANGE", "scraped.properties.exchange")
	cfg.RabbitMQ.RoutingKey = getEnvAsString("RABBITMQ_ROUTING_KEY", "scraped.property")
	if sinkEnabled(cfg.Output.Sinks, "rabbitmq") && cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL environment variable is required when rabbitmq sink is enabled")
	}

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}

		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")

	cfg.Debug.Enabled = getEnvAsBool("DEBUG_MODE", false)
	cfg.Debug.Dir = getEnvAsString("DEBUG_DIR", "debug")

	return cfg, nil
}

// YearSequence возвращает список лет для обхода: явный список как есть,
// иначе диапазон от StartYear вниз к EndYear.
func (c ScrapeConfig) YearSequence() []int {
	if len(c.Years) > 0 {
		return c.Years
	}
	if c.StartYear < c.EndYear {
		return nil
	}
	years := make([]int, 0, c.StartYear-c.EndYear+1)
	for y := c.StartYear; y >= c.EndYear; y-- {
		years = append(years, y)
	}
	return years
}

func parseYearList(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	years := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		year, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%q is not a valid year", p)
		}
		years = append(years, year)
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("no years specified")
	}
	return years, nil
}

func parseSinkList(s string) []string {
	parts := strings.Split(s, ",")
	sinks := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			sinks = append(sinks, p)
		}
	}
	return sinks
}

func sinkEnabled(sinks []string, name string) bool {
	for _, s := range sinks {
		if s == name {
			return true
		}
	}
	return false
}

func secondsDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// getEnvAsString читает переменную окружения как строку или возвращает значение по умолчанию
func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt читает переменную окружения как int или возвращает значение по умолчанию
// Логирует ошибку, если переменная есть, но не может быть преобразована в int
func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

// getEnvAsFloat читает переменную окружения как float64 или возвращает значение по умолчанию
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueFloat, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as float: %v. Using default value: %f\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueFloat
}

// getEnvAsBool читает переменную окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}
