package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"keyword-radar/internal/config"
	"keyword-radar/internal/service"
	"keyword-radar/pkg/logger"
	"keyword-radar/pkg/opportunity"
)

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns environment variable as int or default
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBoolOrDefault returns environment variable as bool or default
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func main() {
	var (
		keyword    = flag.String("keyword", getEnvOrDefault("KEYWORD", ""), "Seed keyword to analyze (env: KEYWORD)")
		configPath = flag.String("config", getEnvOrDefault("KEYWORD_RADAR_CONFIG", ""), "Configuration file path (env: KEYWORD_RADAR_CONFIG)")
		input      = flag.String("input", "", "Rank candidates from a local JSON file instead of calling DataForSEO")
		limit      = flag.Int("limit", getEnvIntOrDefault("LIMIT", 0), "Maximum opportunities to return (env: LIMIT)")
		noAI       = flag.Bool("no-ai", getEnvBoolOrDefault("NO_AI", false), "Skip AI insights and tool template (env: NO_AI)")
		debug      = flag.Bool("debug", getEnvBoolOrDefault("DEBUG", false), "Enable debug logging (env: DEBUG)")
		timeout    = flag.Duration("timeout", 5*time.Minute, "Overall analysis timeout")
		help       = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		printUsage()
		return
	}

	if *keyword == "" {
		fmt.Fprintln(os.Stderr, "ERROR: a seed keyword is required.")
		fmt.Fprintln(os.Stderr, "Use -keyword flag or KEYWORD environment variable.")
		fmt.Fprintln(os.Stderr, "")
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewManager().Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	// JSON results go to stdout, so logs default to stderr
	logConfig := logger.Config(cfg.Logger)
	if logConfig.Output == "" || logConfig.Output == "stdout" {
		logConfig.Output = "stderr"
	}
	if *debug {
		logConfig.Level = "debug"
	}
	logger.SetLogger(logger.New(logConfig))
	log := logger.WithComponent("main")

	if *limit > 0 {
		cfg.Ranking.MaxOpportunities = *limit
	}

	builder := service.NewAnalyzerBuilder(cfg)
	if *noAI {
		builder = builder.WithoutAI()
	}
	analyzer, err := builder.Build()
	if err != nil {
		log.WithError(err).Fatal("Failed to build analyzer")
	}
	defer analyzer.Close()

	var result interface{}
	if *input != "" {
		payload, readErr := os.ReadFile(*input)
		if readErr != nil {
			log.WithError(readErr).Fatal("Failed to read candidate file")
		}
		result, err = analyzer.Rank(*keyword, payload, *limit)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()
		result, err = analyzer.Analyze(ctx, *keyword)
	}

	if err != nil {
		switch {
		case errors.Is(err, opportunity.ErrSeedNotFound):
			fmt.Fprintf(os.Stderr, "ERROR: %q was not found in the keyword data.\n", *keyword)
		case errors.Is(err, service.ErrAnalysisFailed):
			fmt.Fprintf(os.Stderr, "ERROR: analysis failed: %v\n", err)
		default:
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		}
		os.Exit(1)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		log.WithError(err).Fatal("Failed to write result")
	}
}

func printUsage() {
	fmt.Println("Keyword Radar - keyword opportunity analysis")
	fmt.Println("")
	fmt.Println("USAGE:")
	fmt.Println("    ./keyword-radar -keyword <KEYWORD> [OPTIONS]")
	fmt.Println("")
	fmt.Println("OPTIONS:")
	fmt.Println("    -keyword string    Seed keyword (env: KEYWORD)")
	fmt.Println("    -config string     YAML/JSON config file (env: KEYWORD_RADAR_CONFIG)")
	fmt.Println("    -input string      Rank candidates from a JSON array file, no provider calls")
	fmt.Println("    -limit int         Maximum opportunities (default from config: 10, env: LIMIT)")
	fmt.Println("    -no-ai             Skip AI insights and tool template (env: NO_AI)")
	fmt.Println("    -debug             Enable debug logging (env: DEBUG)")
	fmt.Println("    -timeout duration  Overall analysis timeout (default 5m)")
	fmt.Println("    -help              Show this help message")
	fmt.Println("")
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("    KEYWORD_RADAR_DATAFORSEO_LOGIN     DataForSEO login")
	fmt.Println("    KEYWORD_RADAR_DATAFORSEO_PASSWORD  DataForSEO password")
	fmt.Println("    ANTHROPIC_API_KEY                  Anthropic API key for insights")
	fmt.Println("    KEYWORD_RADAR_ENV_FILE             Path of the .env file (default .env)")
	fmt.Println("")
	fmt.Println("EXAMPLES:")
	fmt.Println("    ./keyword-radar -keyword \"personal loans\"")
	fmt.Println("    ./keyword-radar -keyword loans -input candidates.json -limit 5")
}
