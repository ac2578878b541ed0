package config

import (
	"fmt"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; the first one that parses wins.
// godotenv never overrides variables already present in the process
// environment, which keeps CI-injected secrets authoritative.
var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads environment variables from .env/.env.local files.
func loadEnvFile() error {
	for _, envPath := range envFiles {
		if err := godotenv.Load(envPath); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no .env file found")
}
