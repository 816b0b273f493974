package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds pipeline configuration.
type Config struct {
	Source           string // "search" or "sheet"
	SheetURL         string
	SheetFormat      string // "csv" or "html"
	BaseURL          string
	OutputFile       string
	RulesFile        string
	MinLikes         int
	MaxPages         int
	FetchDetails     bool
	Delay            time.Duration
	RandomDelay      time.Duration
	Timeout          time.Duration
	UserAgent        string
	DescriptionLimit int
	DedupeMaxSize    int
	MetricsAddr      string
	RespectRobotsTxt bool
	DryRun           bool
	Verbose          bool
}

// DefaultConfig returns defaults matching the marketplace's scraping
// guidelines: identifying user agent, at least one second between requests.
func DefaultConfig() *Config {
	return &Config{
		Source:           "search",
		SheetFormat:      "csv",
		BaseURL:          "https://booth.pm",
		OutputFile:       "docs/data/items.json",
		MinLikes:         0,
		MaxPages:         50,
		FetchDetails:     false,
		Delay:            time.Second,
		RandomDelay:      2 * time.Second,
		Timeout:          30 * time.Second,
		UserAgent:        "VRC-LIFE Portal Bot",
		DescriptionLimit: 500,
		DedupeMaxSize:    10000,
		MetricsAddr:      "",
		RespectRobotsTxt: false,
		DryRun:           false,
		Verbose:          false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.Source != "search" && c.Source != "sheet" {
		return fmt.Errorf("source must be search or sheet")
	}
	if c.Source == "sheet" && !c.DryRun {
		if c.SheetURL == "" {
			return fmt.Errorf("sheet source requires a sheet URL")
		}
		if _, err := url.Parse(c.SheetURL); err != nil {
			return fmt.Errorf("invalid sheet URL: %w", err)
		}
	}
	if c.SheetFormat != "csv" && c.SheetFormat != "html" {
		return fmt.Errorf("sheet format must be csv or html")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.MinLikes < 0 {
		return fmt.Errorf("min likes cannot be negative")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.RandomDelay < 0 {
		return fmt.Errorf("random delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.DescriptionLimit <= 0 {
		return fmt.Errorf("description limit must be positive")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}
	return nil
}

// EnvString reads a string environment variable, reporting presence.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer environment variable, reporting presence.
func EnvInt(key string) (int, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, true, nil
}
