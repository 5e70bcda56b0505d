package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"text-stock-tracker/internal/config"
	"text-stock-tracker/internal/service"
)

// Emite o revoca tokens de cliente para /api/messages.
//
//	issue_token -client dashboard
//	issue_token -revoke <token>
func main() {
	clientID := flag.String("client", "", "client id to embed in the token")
	revoke := flag.String("revoke", "", "token to revoke (requires REDIS_ADDR)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	var store service.TokenRevocationStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer client.Close()
		store = service.NewRedisTokenRevocationStore(client)
	}
	jwtSvc := service.NewJWTServiceWithStore(cfg.JWTSecret, time.Duration(cfg.JWTTTLMinutes)*time.Minute, store)

	if *revoke != "" {
		if store == nil {
			// Sin Redis la revocación no sobrevive a este proceso.
			log.Fatal("REDIS_ADDR is required to revoke tokens")
		}
		if err := jwtSvc.Revoke(*revoke); err != nil {
			log.Fatalf("revoke: %v", err)
		}
		fmt.Println("revoked")
		return
	}

	if *clientID == "" {
		flag.Usage()
		os.Exit(2)
	}
	token, err := jwtSvc.IssueClientToken(*clientID)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Println(token)
}
