package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andkozlov/starload/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `	     _             _                 _
	 ___| |_ __ _ _ __| | ___   __ _  __| |
	/ __| __/ _` + "`" + ` | '__| |/ _ \ / _` + "`" + ` |/ _` + "`" + ` |
	\__ \ || (_| | |  | | (_) | (_| | (_| |
	|___/\__\__,_|_|  |_|\___/ \__,_|\__,_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "starload",
	Short: "Migrates Star Wars planets and characters into an Odoo database.",
	Long: LOGO + `starload reads planets and characters from the SWAPI, fetches character
portraits, and loads everything into Odoo over XML-RPC without ever creating
duplicate records.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.starload.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().StringP("logfile", "", "", "Also write the run log to this file")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".starload")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.starload.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("odoo.url", "")
	viper.SetDefault("odoo.db", "")
	viper.SetDefault("odoo.username", "")
	viper.SetDefault("odoo.password", "")
	viper.SetDefault("odoo.planets_model", "")
	viper.SetDefault("odoo.characters_model", "")
	viper.SetDefault("swapi.planet_url", "https://swapi.dev/api/planets/")
	viper.SetDefault("swapi.character_url", "https://swapi.dev/api/people/")
	viper.SetDefault("swapi.image_url", "https://starwars-visualguide.com/assets/img/characters/")
	viper.SetDefault("ledger.path", "")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)

	if logFile, _ := rootCmd.PersistentFlags().GetString("logfile"); logFile != "" {
		if err := utils.SetLogFile(logFile); err != nil {
			fmt.Printf("Error opening log file: %s\n", err)
			os.Exit(1)
		}
	}
}
