package config

import (
	"github.com/spf13/viper"
)

// The service runs with its connection and credential settings provided as
// environment variables on the pod/function; AWS config and queue URLs are
// handled the same way.

type Config struct {
	DBHost                string `mapstructure:"DB_HOST"`
	DBPort                string `mapstructure:"DB_PORT"`
	DBUser                string `mapstructure:"DB_USER"`
	DBPassword            string `mapstructure:"DB_PASSWORD"`
	DBName                string `mapstructure:"DB_NAME"`
	ServerPort            string `mapstructure:"SERVER_PORT"`
	AWSRegion             string `mapstructure:"AWS_REGION"`
	AWSEndpoint           string `mapstructure:"AWS_ENDPOINT"`
	SyncSQSQueueURL       string `mapstructure:"SYNC_SQS_QUEUE_URL"`
	SettlementSQSQueueURL string `mapstructure:"SETTLEMENT_SQS_QUEUE_URL"`
	PayrollAPIURL         string `mapstructure:"PAYROLL_API_URL"`
	PayrollAPIToken       string `mapstructure:"PAYROLL_API_TOKEN"`
	PayrollTenantID       string `mapstructure:"PAYROLL_TENANT_ID"`
	SchedulerAPIURL       string `mapstructure:"SCHEDULER_API_URL"`
	AlertSender           string `mapstructure:"ALERT_SENDER"`
	AlertRecipient        string `mapstructure:"ALERT_RECIPIENT"`
	IsLocalDev            bool   `mapstructure:"IS_LOCAL_DEV"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("DB_HOST", "db")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "timesheet_sync_db")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	viper.SetDefault("SYNC_SQS_QUEUE_URL", "http://localstack:4566/000000000000/timesheet-sync-queue")
	viper.SetDefault("SETTLEMENT_SQS_QUEUE_URL", "http://localstack:4566/000000000000/settlement-queue")
	viper.SetDefault("PAYROLL_API_URL", "http://localhost:8081")
	viper.SetDefault("PAYROLL_API_TOKEN", "test-token")
	viper.SetDefault("PAYROLL_TENANT_ID", "0000")
	viper.SetDefault("SCHEDULER_API_URL", "http://localhost:8082")
	viper.SetDefault("ALERT_SENDER", "sync-alerts@timesheet-sync.local")
	viper.SetDefault("ALERT_RECIPIENT", "ops@timesheet-sync.local")
	viper.SetDefault("IS_LOCAL_DEV", false)

	// Read in environment variables that match the keys.
	viper.AutomaticEnv()

	err = viper.Unmarshal(&config)
	return
}
