package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/exammaker/exammaker-backend/internal/config"
	"github.com/exammaker/exammaker-backend/internal/examsession"
	"github.com/exammaker/exammaker-backend/internal/fixture"
	"github.com/exammaker/exammaker-backend/internal/logger"
	"github.com/goccy/go-yaml"
)

// fixtures validates a fixture catalogue (the embedded one by default) and
// prints a summary, or the whole catalogue with -dump.
func main() {
	file := flag.String("file", "", "validate this YAML catalogue instead of the embedded one")
	dump := flag.String("dump", "", "print the catalogue as json or yaml")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	var (
		seed *fixture.Seed
		err  error
	)
	if *file != "" {
		data, readErr := os.ReadFile(*file)
		if readErr != nil {
			log.Fatal().Err(readErr).Str("file", *file).Msg("Failed to read catalogue")
		}
		seed, err = fixture.Parse(data)
	} else {
		seed, err = fixture.Load()
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Catalogue is invalid")
	}

	switch *dump {
	case "":
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(seed); err != nil {
			log.Fatal().Err(err).Msg("Encode failed")
		}
		return
	case "yaml":
		out, err := yaml.Marshal(seed)
		if err != nil {
			log.Fatal().Err(err).Msg("Encode failed")
		}
		os.Stdout.Write(out)
		return
	default:
		log.Fatal().Str("dump", *dump).Msg("Unknown dump format, use json or yaml")
	}

	fmt.Println("=== Exams ===")
	for _, e := range seed.Exams {
		fmt.Printf("%3d  %-40s %2d questions  %s\n",
			e.ID, e.Title, len(e.Questions), examsession.FormatClock(e.DurationMinutes*60))
	}

	fmt.Println("=== Question Bank ===")
	for _, q := range seed.Questions {
		fmt.Printf("%3d  [%s/%s] %s\n", q.ID, q.Topic, q.Difficulty, q.Text)
	}

	fmt.Printf("=== %d topics, %d resources ===\n", len(seed.Topics), len(seed.Resources))
	fmt.Println("Catalogue OK")
}
