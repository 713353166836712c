package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mathdrill/internal/config"
	"mathdrill/internal/credentials"
	"mathdrill/internal/database"
	"mathdrill/internal/logger"
	"mathdrill/internal/security"
	"mathdrill/internal/service"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	demoCmd := flag.NewFlagSet("seed-demo", flag.ExitOnError)
	resetCmd := flag.NewFlagSet("reset-content", flag.ExitOnError)
	hashCmd := flag.NewFlagSet("hash-passcode", flag.ExitOnError)

	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	importInput := importCmd.String("input", "", "Input file path (required)")
	importYes := importCmd.Bool("yes", false, "Skip the confirmation prompt")
	demoYes := demoCmd.Bool("yes", false, "Skip the confirmation prompt")
	resetYes := resetCmd.Bool("yes", false, "Skip the confirmation prompt")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// these need no database
	switch os.Args[1] {
	case "hash-passcode":
		hashCmd.Parse(os.Args[2:])
		handleHashPasscode(hashCmd.Arg(0))
		return
	case "gen-secret":
		secret, err := credentials.GenerateSecret(32)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate secret: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(secret)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("Failed to open database", "error", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.RunMigrations(ctx); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	backupService := service.NewBackupService(db, log)
	seeder := service.NewSeedService(db, log)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(ctx, log, backupService, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		if !*importYes && !confirm("This will replace ALL existing data.") {
			log.Info("Import cancelled")
			return
		}
		if err := backupService.ImportFile(ctx, *importInput); err != nil {
			log.Fatal("Import failed", "error", err)
		}
		log.Info("Import complete", "input", *importInput)

	case "seed-demo":
		demoCmd.Parse(os.Args[2:])
		if !*demoYes && !confirm("This will replace practice history with demo data.") {
			log.Info("Seeding cancelled")
			return
		}
		if _, err := seeder.SeedContent(ctx); err != nil {
			log.Fatal("Failed to seed content", "error", err)
		}
		if err := seeder.SeedDemoData(ctx); err != nil {
			log.Fatal("Failed to seed demo data", "error", err)
		}
		log.Info("Demo data seeded")

	case "reset-content":
		resetCmd.Parse(os.Args[2:])
		if !*resetYes && !confirm("This will regenerate all skills and questions and clear review items.") {
			log.Info("Reset cancelled")
			return
		}
		n, err := seeder.ResetContent(ctx)
		if err != nil {
			log.Fatal("Failed to reset content", "error", err)
		}
		log.Info("Content reset", "questions", n)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(ctx context.Context, log *logger.Logger, backupService *service.BackupService, outputPath string) {
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("backup_%s.json", timestamp)
	}

	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal("Failed to create output directory", "error", err)
		}
	}

	log.Info("Exporting database", "output", outputPath)
	if err := backupService.ExportFile(ctx, outputPath); err != nil {
		log.Fatal("Export failed", "error", err)
	}

	if info, err := os.Stat(outputPath); err == nil {
		log.Info("Export complete", "sizeMB", fmt.Sprintf("%.2f", float64(info.Size())/1024/1024))
	}
}

// handleHashPasscode prints the hash of passcode, generating one when it is empty
func handleHashPasscode(passcode string) {
	if passcode == "" {
		generated, err := credentials.GeneratePasscode()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate passcode: %v\n", err)
			os.Exit(1)
		}
		passcode = generated
		fmt.Printf("Passcode: %s\n", passcode)
	}
	hash, err := security.HashPasscode(passcode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash passcode: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

func confirm(warning string) bool {
	fmt.Printf("WARNING: %s Type 'yes' to confirm: ", warning)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(line) == "yes"
}

func printUsage() {
	fmt.Println("MathDrill Data Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]           Export database to JSON file")
	fmt.Println("  backup import [options]           Replace database contents from JSON file")
	fmt.Println("  backup seed-demo [-yes]           Replace practice history with demo data")
	fmt.Println("  backup reset-content [-yes]       Regenerate skills and questions")
	fmt.Println("  backup hash-passcode [passcode]   Print a hash for AUTH_PASSCODE_HASH (generates a passcode if omitted)")
	fmt.Println("  backup gen-secret                 Print a random JWT_SECRET")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -yes              Skip the confirmation prompt")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  CONFIG_FILE      Optional YAML configuration file")
	fmt.Println("  DATABASE_TYPE    Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./mathdrill.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
