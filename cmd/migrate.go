package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/andkozlov/starload/internal/utils"
	"github.com/andkozlov/starload/pkg/odoo"
	"github.com/andkozlov/starload/pkg/pipeline"
	"github.com/andkozlov/starload/pkg/storage"
	"github.com/andkozlov/starload/pkg/swapi"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run the full SWAPI to Odoo migration",
	Long:  "Fetches planets, characters and character portraits from the SWAPI and loads them into the configured Odoo database, skipping records that already exist.",
	Run: func(cmd *cobra.Command, args []string) {
		// Fatal exits only happen here, after runMigrate's deferred
		// cleanup (ledger lock, ledger handle) has run.
		if err := runMigrate(cmd); err != nil {
			utils.Log.Fatal(err)
		}
	},
}

func runMigrate(cmd *cobra.Command) error {
	url := viper.GetString("odoo.url")
	db := viper.GetString("odoo.db")
	username := viper.GetString("odoo.username")
	password := viper.GetString("odoo.password")
	planetsModel := viper.GetString("odoo.planets_model")
	charactersModel := viper.GetString("odoo.characters_model")

	if url == "" || db == "" || username == "" || password == "" {
		return errors.New("Odoo connection settings are incomplete, please fill in odoo.url, odoo.db, odoo.username and odoo.password")
	}
	if planetsModel == "" || charactersModel == "" {
		return errors.New("please configure odoo.planets_model and odoo.characters_model")
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	maxAttempts, _ := cmd.Flags().GetInt("max-attempts")
	skipImages, _ := cmd.Flags().GetBool("skip-images")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	store, err := odoo.NewClient(url, db, username, password, utils.Log)
	if err != nil {
		return fmt.Errorf("database connection error, incorrect host: %w", err)
	}
	if err := store.Login(); err != nil {
		if errors.Is(err, odoo.ErrBadLogin) {
			return fmt.Errorf("database connection error, incorrect database name or credentials: %w", err)
		}
		return fmt.Errorf("database connection error: %w", err)
	}

	var ledger *storage.DB
	if ledgerPath := viper.GetString("ledger.path"); ledgerPath != "" {
		lock, err := utils.NewLedgerLock(ledgerPath)
		if err != nil {
			return fmt.Errorf("could not prepare the ledger lock: %w", err)
		}
		if err := lock.Lock(); err != nil {
			return fmt.Errorf("could not lock the ledger: %w", err)
		}
		defer lock.Unlock()

		ledger, err = storage.Open(ledgerPath)
		if err != nil {
			return fmt.Errorf("could not open the ledger: %w", err)
		}
		defer ledger.Close()
	}

	result, err := pipeline.Run(context.Background(), pipeline.Config{
		PlanetURL:       viper.GetString("swapi.planet_url"),
		CharacterURL:    viper.GetString("swapi.character_url"),
		ImageURL:        viper.GetString("swapi.image_url"),
		PlanetsModel:    planetsModel,
		CharactersModel: charactersModel,
		Session:         swapi.NewSession(),
		Store:           store,
		Ledger:          ledger,
		Concurrency:     concurrency,
		MaxAttempts:     maxAttempts,
		SkipImages:      skipImages,
		Progress:        !noProgress,
		Log:             utils.Log,
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Printf("Planets: %d created, %d total known\n", result.PlanetsCreated, len(result.PlanetIDs))
	fmt.Printf("Characters: %d created, %d total known\n", result.CharactersCreated, len(result.CharacterIDs))
	return nil
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().IntP("concurrency", "c", 10, "Concurrent fetch workers per batch")
	migrateCmd.Flags().Int("max-attempts", 10, "Attempts per URL before giving up")
	migrateCmd.Flags().Bool("skip-images", false, "Do not fetch character portraits")
	migrateCmd.Flags().Bool("no-progress", false, "Disable the fetch progress bar")
}
