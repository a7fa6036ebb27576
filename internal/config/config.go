package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Port                          string `mapstructure:"PORT"`
	DatabasePath                  string `mapstructure:"DATABASE_PATH"`
	JWTSecret                     string `mapstructure:"JWT_SECRET"`
	JiraBaseURL                   string `mapstructure:"JIRA_BASE_URL"`
	JiraEmail                     string `mapstructure:"JIRA_EMAIL"`
	JiraAPIToken                  string `mapstructure:"JIRA_API_TOKEN"`
	GithubAPIToken                string `mapstructure:"GITHUB_API_TOKEN"`
	GithubOrganization            string `mapstructure:"GITHUB_ORGANIZATION"`
	DiscordBotToken               string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
	SyncLookbackDays              int    `mapstructure:"SYNC_LOOKBACK_DAYS"`
	SyncRepoLimit                 int    `mapstructure:"SYNC_REPO_LIMIT"`
}

func LoadConfig() *Config {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DATABASE_PATH", "devpulse.db")
	viper.SetDefault("SYNC_LOOKBACK_DAYS", 30)
	viper.SetDefault("SYNC_REPO_LIMIT", 5)

	viper.BindEnv("JWT_SECRET")
	viper.BindEnv("JIRA_BASE_URL")
	viper.BindEnv("JIRA_EMAIL")
	viper.BindEnv("JIRA_API_TOKEN")
	viper.BindEnv("GITHUB_API_TOKEN")
	viper.BindEnv("GITHUB_ORGANIZATION")
	viper.BindEnv("DISCORD_BOT_TOKEN")
	viper.BindEnv("DISCORD_NOTIFICATIONS_CHANNEL_ID")
	viper.BindEnv("SYNC_LOOKBACK_DAYS")
	viper.BindEnv("SYNC_REPO_LIMIT")

	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	return &config
}
