package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/joho/godotenv"

	"invoice-gen/config"
	"invoice-gen/core"

	// Database drivers

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("Generation failed", "error", err)
		os.Exit(1)
	}
}

func run(output io.Writer, args []string) error {
	flags := flag.NewFlagSet("invoice-gen", flag.ContinueOnError)
	flags.SetOutput(output)

	dataFile := flags.String("data", "", "Path to the shipment data file (JSON or YAML)")
	configFile := flags.String("config", "", "Layout config path (default: derived from the data file name)")
	templateFile := flags.String("template", "", "Template workbook path (default: derived from the data file name)")
	templateDir := flags.String("templates", "./templates", "Template directory for derivation")
	configDir := flags.String("configs", "./configs", "Layout config directory for derivation")
	outputPath := flags.String("output", "", "Output workbook path (default: result/<identifier>.xlsx)")
	fob := flags.Bool("fob", false, "FOB mode: use the FOB aggregation and apply FOB text substitutions")
	custom := flags.Bool("custom", false, "Custom mode: use the custom aggregation with amount/unit-price overrides")
	fetcherType := flags.String("fetcher", "file", "Shipment fetcher type: file, dynamodb, mysql, postgres")
	dbDSN := flags.String("db-dsn", "", "Database connection string (DSN) for mysql/postgres")
	dbTable := flags.String("db-table", "shipment_lines", "Shipment lines table for mysql/postgres/dynamodb")
	s3Bucket := flags.String("s3-bucket", "", "S3 bucket name for uploading the output")
	s3Prefix := flags.String("s3-prefix", "invoice-gen-output", "S3 prefix (folder) for uploaded files")
	s3UploadDir := flags.Bool("s3-upload-dir", false, "Upload the whole output directory instead of just the generated workbook")

	if err := flags.Parse(args); err != nil {
		return err
	}

	// Initialize structured logger
	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Optional environment bootstrap (AWS credentials, DSNs).
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded environment from .env")
	}

	if *dataFile == "" {
		return fmt.Errorf("the -data flag is required")
	}

	// 1. Resolve template and layout config by naming convention unless
	// overridden.
	identifier := ""
	if *configFile == "" || *templateFile == "" {
		derived, err := config.DerivePaths(*dataFile, *templateDir, *configDir)
		if err != nil {
			return err
		}
		identifier = derived.Identifier
		if *configFile == "" {
			*configFile = derived.Config
		}
		if *templateFile == "" {
			*templateFile = derived.Template
		}
	}

	slog.Info("Loading layout config", "file", *configFile)
	layout, err := config.LoadLayout(*configFile)
	if err != nil {
		return err
	}
	if err := config.NewValidator().ValidateLayout(layout); err != nil {
		return fmt.Errorf("invalid layout config: %w", err)
	}

	// 2. Prepare the shipment fetcher
	var fetcher core.ShipmentFetcher

	switch *fetcherType {
	case "dynamodb":
		slog.Info("Initializing DynamoDB shipment fetcher", "table", *dbTable)
		// Load AWS Config (handles env vars, IAM roles, etc.)
		cfg, err := awsconfig.LoadDefaultConfig(context.TODO())
		if err != nil {
			return fmt.Errorf("unable to load AWS SDK config: %w", err)
		}
		fetcher = core.NewDynamoDBShipmentFetcher(cfg, *dbTable)
	case "mysql", "postgres":
		if *dbDSN == "" {
			return fmt.Errorf("db-dsn is required for %s fetcher", *fetcherType)
		}
		slog.Info("Initializing SQL shipment fetcher", "type", *fetcherType, "table", *dbTable)
		db, err := sql.Open(*fetcherType, *dbDSN)
		if err != nil {
			return fmt.Errorf("failed to open db connection: %w", err)
		}
		if err := db.Ping(); err != nil {
			return fmt.Errorf("failed to ping db: %w", err)
		}
		fetcher = core.NewSQLShipmentFetcher(db, *fetcherType, *dbTable)
	default:
		slog.Info("Initializing file shipment fetcher", "dir", filepath.Dir(*dataFile))
		fetcher = core.NewFileShipmentFetcher(filepath.Dir(*dataFile))
	}

	shipmentName := filepath.Base(*dataFile)
	if *fetcherType != "file" && identifier != "" {
		shipmentName = identifier
	}
	data, err := fetcher.Fetch(shipmentName)
	if err != nil {
		return fmt.Errorf("failed to load shipment data: %w", err)
	}

	// 3. Generate
	if *outputPath == "" {
		name := identifier
		if name == "" {
			name = "invoice"
		}
		*outputPath = filepath.Join("result", name+".xlsx")
	}

	registry := config.NewRegistryFromLayout(layout)
	ctx := core.NewGenerationContext(layout, registry, data, *fob, *custom)

	generator := core.NewGenerator(ctx)
	if err := generator.Generate(*templateFile, *outputPath); err != nil {
		return fmt.Errorf("generate workbook: %w", err)
	}

	slog.Info("Successfully generated", "output", *outputPath)

	// 4. Upload to S3 if configured
	if *s3Bucket != "" {
		slog.Info("Starting S3 upload", "bucket", *s3Bucket, "prefix", *s3Prefix)

		cfg, err := awsconfig.LoadDefaultConfig(context.TODO())
		if err != nil {
			return fmt.Errorf("unable to load AWS SDK config for S3: %w", err)
		}

		uploader := core.NewS3Uploader(cfg, *s3Bucket, *s3Prefix)
		if *s3UploadDir {
			err = uploader.UploadDirectory(filepath.Dir(*outputPath))
		} else {
			err = uploader.UploadWorkbook(*outputPath)
		}
		if err != nil {
			return fmt.Errorf("failed to upload output to s3: %w", err)
		}
		slog.Info("Successfully uploaded to S3")
	}

	return nil
}
