package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/spendvoice/spendvoice/internal/dates"
	"github.com/spendvoice/spendvoice/internal/extract"
	"github.com/spendvoice/spendvoice/internal/gemini"
	"github.com/spendvoice/spendvoice/internal/logger"
	"github.com/spendvoice/spendvoice/internal/voice"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "parse":
		runParse(log)
	case "transcribe":
		runTranscribe(log)
	case "resolve":
		runResolve(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("SpendVoice CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  parse       Extract a transaction from a text description")
	fmt.Println("  transcribe  Transcribe an audio file and extract a transaction")
	fmt.Println("  resolve     Resolve a date phrase against today")
	fmt.Println("  help        Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runParse(log zerolog.Logger) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	text := fs.String("text", "", "Transaction description, e.g. 'spent $20 on coffee yesterday'")
	model := fs.String("model", gemini.DefaultModel, "Gemini model name")
	fs.Parse(os.Args[2:])

	if *text == "" {
		log.Fatal().Msg("Error: --text is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	ai, err := gemini.NewClient(ctx, *model)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	candidate, err := extract.New(ai, log).Extract(ctx, *text)
	if err != nil {
		log.Fatal().Err(err).Msg("Extraction failed")
	}

	printCandidate(candidate)
}

func runTranscribe(log zerolog.Logger) {
	fs := flag.NewFlagSet("transcribe", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to local audio file")
	mimeType := fs.String("mime", "audio/webm", "Audio MIME type")
	model := fs.String("model", gemini.DefaultModel, "Gemini model name")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	audio, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read audio file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	ai, err := gemini.NewClient(ctx, *model)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	transcription, err := voice.New(ai, log).Transcribe(ctx, audio, *mimeType)
	if err != nil {
		log.Fatal().Err(err).Msg("Transcription failed")
	}

	fmt.Printf("Transcription: %s\n\n", transcription)

	candidate, err := extract.New(ai, log).Extract(ctx, transcription)
	if err != nil {
		log.Fatal().Err(err).Msg("Extraction failed")
	}

	printCandidate(candidate)
}

func runResolve(log zerolog.Logger) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	phrase := fs.String("phrase", "", "Date phrase, e.g. 'yesterday' or '3 days ago'")
	reference := fs.String("reference", "", "Reference date as YYYY-MM-DD (defaults to today)")
	fs.Parse(os.Args[2:])

	if *phrase == "" {
		log.Fatal().Msg("Error: --phrase is required")
	}

	ref := time.Now()
	if *reference != "" {
		parsed, err := time.Parse(time.DateOnly, *reference)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid reference date")
		}
		ref = parsed
	}

	resolved := dates.Resolve(*phrase, ref)
	fmt.Printf("%q resolves to %s\n", *phrase, resolved.Format(time.DateOnly))
}

func printCandidate(c *extract.Candidate) {
	fmt.Println("=== Parsed Transaction ===")
	fmt.Printf("Amount:   %.2f\n", c.Amount)
	fmt.Printf("Type:     %s\n", c.Type)
	fmt.Printf("Category: %s\n", c.Category)
	if c.Merchant != "" {
		fmt.Printf("Merchant: %s\n", c.Merchant)
	}
	if c.Note != "" {
		fmt.Printf("Note:     %s\n", c.Note)
	}
	fmt.Printf("Date:     %s\n", c.Date)
}
