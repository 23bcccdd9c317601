// devtoken prints a bearer token for local testing of the HTTP API.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Freeeeeet/tutoring_toolbox/internal/auth"
)

func main() {
	userID := flag.Int64("user", 0, "user id to put into the token subject")
	roles := flag.String("roles", "student", "comma-separated roles, e.g. admin or student")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load(".env")

	if *userID <= 0 {
		log.Fatal("-user is required")
	}

	authn, err := auth.NewAuthenticator(os.Getenv("AUTH_SECRET"))
	if err != nil {
		log.Fatalf("AUTH_SECRET: %v", err)
	}

	token, err := authn.GenerateToken(*userID, strings.Split(*roles, ","), *ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
