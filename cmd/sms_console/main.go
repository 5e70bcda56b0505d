package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"text-stock-tracker/internal/config"
	"text-stock-tracker/internal/db"
	"text-stock-tracker/internal/domain"
	"text-stock-tracker/internal/marketdata"
	"text-stock-tracker/internal/repository"
	"text-stock-tracker/internal/service"
)

// Simula una conversación SMS desde la terminal.
//
//	sms_console -from +15551234567 [-offline]
//
// Comandos propios: "/from <numero>" cambia de remitente, "/quit" sale.
func main() {
	from := flag.String("from", "+15550000000", "sender phone number")
	offline := flag.Bool("offline", false, "use canned market data instead of the real API")
	flag.Parse()

	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	var (
		users   repository.UserRepository
		lookups repository.LookupRepository
	)
	pool, err := db.NewPool(ctx, cfg)
	switch {
	case errors.Is(err, db.ErrNoDatabaseURL):
		mem := repository.NewMemoryStore()
		users, lookups = mem.Users(), mem.Lookups()
	case err != nil:
		log.Fatal(err)
	default:
		defer pool.Close()
		users = repository.NewPgUserRepository(pool)
		lookups = repository.NewPgLookupRepository(pool)
	}

	var gateway marketdata.Gateway
	if *offline {
		gateway = cannedGateway()
	} else {
		gateway = marketdata.NewCachingGateway(
			marketdata.NewHTTPClient(cfg.MarketDataBaseURL, cfg.MarketDataTimeout, cfg.MarketDataRPS, logger),
			marketdata.NewLRUCache(256, cfg.LookupCacheTTL),
			cfg.QuoteCacheTTL,
			cfg.LookupCacheTTL,
		)
	}

	store := service.NewConversationStore(logger, users, lookups, service.NewMemorySenderLocker())
	router := service.NewConversationRouter(logger, store, gateway, nil, nil, cfg.RecallWindow)

	sender := strings.TrimSpace(*from)
	fmt.Printf("Texting as %s. Type 'commands' for help, /quit to exit.\n", sender)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "/quit":
			return
		case strings.HasPrefix(line, "/from "):
			sender = strings.TrimSpace(strings.TrimPrefix(line, "/from "))
			fmt.Printf("Now texting as %s\n", sender)
			continue
		}
		fmt.Println(router.HandleMessage(ctx, sender, line))
	}
}

func cannedGateway() *marketdata.MockGateway {
	f := func(v float64) *float64 { return &v }
	return &marketdata.MockGateway{
		Matches: map[string][]domain.CompanyMatch{
			"Wal Mart": {{Name: "Walmart Inc", Exchange: "NYSE", Symbol: "WMT"}},
			"apple":    {{Name: "Apple Inc", Exchange: "NASDAQ", Symbol: "AAPL"}},
		},
		Quotes: map[string]domain.Quote{
			"AAPL": {Symbol: "AAPL", Name: "Apple Inc", LastPrice: f(150), Change: f(1.2), MarketCap: f(2.4e12), Open: f(149), High: f(151), Low: f(148.5)},
			"WMT":  {Symbol: "WMT", Name: "Walmart Inc", LastPrice: f(60.1), Change: f(-0.3)},
		},
	}
}
