package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/your-org/storefront-checkout/internal/pkg/auth"
)

// Signs a short-lived access token with JWT_SECRET for calling the gateway
// locally without the store API's login flow.
func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: go run scripts/generate_token.go <user-id> <email> [ttl]")
	}

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if len(secret) < 32 {
		log.Fatal("JWT_SECRET must be set and at least 32 characters long")
	}

	userID, err := strconv.ParseUint(os.Args[1], 10, 32)
	if err != nil || userID == 0 {
		log.Fatalf("invalid user id %q", os.Args[1])
	}

	ttl := time.Hour
	if len(os.Args) > 3 {
		if ttl, err = time.ParseDuration(os.Args[3]); err != nil {
			log.Fatalf("invalid ttl: %v", err)
		}
	}

	token, err := auth.NewJWTManager(secret, "dev").GenerateAccessToken(uint(userID), os.Args[2], ttl)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(token)
}
