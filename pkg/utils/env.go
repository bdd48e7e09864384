package utils

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadConfig bootstraps configuration sources: a .env file when present,
// then process environment variables via viper.
func LoadConfig(path string) {
	if err := godotenv.Load(path + "/.env"); err == nil {
		logrus.Debug("[CONFIG] Loaded .env file")
	}

	viper.SetConfigFile(path + "/.env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		logrus.Debugf("[CONFIG] No readable .env file, relying on environment: %v", err)
	}
}
