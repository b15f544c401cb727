package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/xscribe/internal/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration settings",
	Long:  `Manage configuration settings for xscribe.`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init [DATABASE_URL]",
	Short: "Initialize configuration file",
	Long:  `Create a new configuration file with database, X API and whisper settings.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var databaseURL string
		if len(args) > 0 {
			databaseURL = args[0]
		}

		if err := config.InitConfig(databaseURL); err != nil {
			return err
		}

		configPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		cmd.Printf("Created configuration file: %s\n", configPath)
		cmd.Println("Please edit the database_url and X API credentials in this file.")

		return nil
	},
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the configuration file path and the effective settings. Secrets are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		cmd.Printf("Configuration file: %s\n\n", configPath)

		cfg, err := config.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		cmd.Printf("DATABASE_URL:          %s\n", cfg.DatabaseURL)
		cmd.Printf("Server address:        %s\n", cfg.Server.Addr)
		cmd.Printf("X bearer token:        %s\n", mask(cfg.X.BearerToken))
		cmd.Printf("X user access token:   %s\n", mask(cfg.X.UserAccessToken))
		cmd.Printf("X API base URL:        %s\n", cfg.X.APIBaseURL)
		cmd.Printf("Metadata cache:        %d entries, ttl %s\n", cfg.X.CacheSize, cfg.X.CacheTTL)
		cmd.Printf("ffmpeg:                %s\n", cfg.Media.FFmpegPath)
		cmd.Printf("Whisper backend:       %s (model %s)\n", cfg.Whisper.Backend, cfg.Whisper.Model)
		cmd.Printf("Whisper server URL:    %s\n", cfg.Whisper.ServerURL)
		cmd.Printf("Transcription timeout: %s\n", cfg.Pipeline.TranscriptionTimeout)
		cmd.Printf("Total timeout:         %s\n", cfg.Pipeline.TotalTimeout)

		return nil
	},
}

// mask hides all but the last four characters of a secret
func mask(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
