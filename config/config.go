// scholarship-system/config/config.go
package config

import (
	"os"
)

// JwtKey is the HMAC secret used to sign and verify auth tokens.
// Populated by LoadConfig from the JWT_SECRET environment variable.
var JwtKey []byte

// StudentAPIURL is the base URL of the external student-records API.
// Empty when the API is not configured; callers must degrade gracefully.
var StudentAPIURL string

// LoadConfig reads non-connection settings from the environment.
func LoadConfig() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-do-not-use-in-production"
	}
	JwtKey = []byte(secret)

	StudentAPIURL = os.Getenv("STUDENT_API_URL")
}
