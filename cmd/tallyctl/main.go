package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/dukerupert/tally/internal/backup"
	"github.com/dukerupert/tally/internal/cli"
	"github.com/dukerupert/tally/internal/config"
	"github.com/dukerupert/tally/internal/database"
	"github.com/dukerupert/tally/internal/logging"
	"github.com/dukerupert/tally/internal/logstore"
	"github.com/dukerupert/tally/internal/store"
)

var CLI struct {
	Config   string `help:"Config file path." type:"path" default:"tally.yaml" env:"TALLY_CONFIG"`
	DB       string `help:"Database path. Overrides the config file." type:"path"`
	LogLevel string `help:"Log level." default:"warn" enum:"debug,info,warn,error"`

	Export   cli.ExportCmd   `cmd:"" help:"Export all data as JSON."`
	Import   cli.ImportCmd   `cmd:"" help:"Replace all data with an export file."`
	Members  cli.MembersCmd  `cmd:"" help:"List household members."`
	Progress cli.ProgressCmd `cmd:"" help:"Show completion for a day."`
	Docs     cli.DocsCmd     `cmd:"" help:"List stored documents and their versions."`
	Backup   struct {
		Create  cli.BackupCreateCmd  `cmd:"" help:"Upload an encrypted backup now."`
		List    cli.BackupListCmd    `cmd:"" help:"List backups."`
		Restore cli.BackupRestoreCmd `cmd:"" help:"Restore a backup."`
	} `cmd:"" help:"Manage off-site backups."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("tallyctl"),
		kong.Description("Maintenance commands for a tally household."),
		kong.UsageOnError(),
	)

	if err := run(kctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(kctx *kong.Context) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if CLI.DB != "" {
		cfg.DBPath = CLI.DB
	}

	logger, closer := logging.Setup(CLI.LogLevel, "")
	defer closer.Close()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	docs := store.NewDocumentStore(db)
	logs, err := logstore.Open(ctx, docs, logstore.Options{Logger: logger})
	if err != nil {
		return err
	}

	backups := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.Backup.S3.Endpoint,
			Bucket:    cfg.Backup.S3.Bucket,
			Region:    cfg.Backup.S3.Region,
			AccessKey: cfg.Backup.S3.AccessKey,
			SecretKey: cfg.Backup.S3.SecretKey,
		},
		Passphrase:    cfg.Backup.Passphrase,
		RetentionDays: cfg.Backup.RetentionDays,
	}, store.NewBackupStore(db), logs, logger, nil)

	return kctx.Run(&cli.Context{
		Ctx:     ctx,
		Logs:    logs,
		Docs:    docs,
		Backups: backups,
		Out:     os.Stdout,
	})
}
