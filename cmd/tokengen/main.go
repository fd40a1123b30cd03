package main

import (
	"flag"
	"fmt"
	"os"

	"ridelifecycle/internal/config"
	"ridelifecycle/internal/utils"

	"github.com/google/uuid"
)

func main() {
	userID := flag.String("user", "", "user id to issue a token for")
	verify := flag.String("verify", "", "token to verify instead of issuing one")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	secret := cfg.Security.JWTSecret

	if *verify != "" {
		claims, err := utils.ValidateToken(*verify, secret)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Token validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("User ID:    %s\n", claims.UserID)
		fmt.Printf("Issuer:     %s\n", claims.Issuer)
		fmt.Printf("Expires At: %s\n", claims.ExpiresAt.Time)
		return
	}

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "Error: -user flag is required")
		fmt.Fprintln(os.Stderr, "Usage: tokengen -user=<USER_ID> | -verify=<TOKEN>")
		os.Exit(1)
	}

	id, err := uuid.Parse(*userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid user id: %v\n", err)
		os.Exit(1)
	}

	token, err := utils.GenerateToken(id, secret, cfg.Security.JWTIssuer, cfg.Security.JWTAccessTokenTTL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
