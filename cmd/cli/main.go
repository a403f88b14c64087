package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cabolabs/cabo-shop/pkg/adapters/repository/sqlite"
	"github.com/cabolabs/cabo-shop/pkg/config"
	"github.com/cabolabs/cabo-shop/pkg/core/domain"
	"github.com/cabolabs/cabo-shop/pkg/core/services"
)

// Small operator CLI: seed the catalog, sanity-check the discount map and
// mint/inspect attribution cookies without spinning up the server.
func main() {
	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)
	seedFile := seedCmd.String("file", "", "YAML catalog file to seed")

	checkCmd := flag.NewFlagSet("checkmap", flag.ExitOnError)
	checkFile := checkCmd.String("file", "", "file holding the discount map JSON (default: CABO_DISCOUNT_MAP env)")

	mintCmd := flag.NewFlagSet("mint", flag.ExitOnError)
	mintToken := mintCmd.String("token", "", "referral token")
	mintLID := mintCmd.String("lid", "", "link id")
	mintLanding := mintCmd.String("landing", "", "landing product slug")

	inspectCmd := flag.NewFlagSet("inspect", flag.ExitOnError)
	inspectValue := inspectCmd.String("value", "", "cabo_attrib cookie value to verify and decode")

	if len(os.Args) < 2 {
		fmt.Println("expected 'seed', 'checkmap', 'mint' or 'inspect' subcommands")
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "seed":
		seedCmd.Parse(os.Args[2:])
		if *seedFile == "" {
			seedCmd.PrintDefaults()
			os.Exit(1)
		}
		doSeed(cfg, *seedFile)
	case "checkmap":
		checkCmd.Parse(os.Args[2:])
		doCheckMap(cfg, *checkFile)
	case "mint":
		mintCmd.Parse(os.Args[2:])
		doMint(cfg, *mintToken, *mintLID, *mintLanding)
	case "inspect":
		inspectCmd.Parse(os.Args[2:])
		doInspect(cfg, *inspectValue)
	default:
		fmt.Println("expected 'seed', 'checkmap', 'mint' or 'inspect' subcommands")
		os.Exit(1)
	}
}

func doSeed(cfg *config.Config, path string) {
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to db: %v", err)
	}
	catalog := services.NewCatalogService(repo)
	n, err := catalog.SeedFromFile(context.Background(), path)
	if err != nil {
		log.Fatalf("Seed failed: %v", err)
	}
	fmt.Printf("Seeded %d products\n", n)
}

func doCheckMap(cfg *config.Config, path string) {
	raw := cfg.DiscountMapRaw
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", path, err)
		}
		raw = string(data)
	}

	dmap := services.LoadDiscountMap(raw)
	if dmap.Len() == 0 {
		fmt.Println("Discount map is empty or unparseable (the server would run without discounts)")
		return
	}
	for _, slug := range dmap.Slugs() {
		entry, _ := dmap.Entry(slug)
		desc := "no discount"
		if entry.Discount != nil {
			desc = fmt.Sprintf("%s %.2f", entry.Discount.Kind, entry.Discount.Value)
		}
		fmt.Printf("%-30s code=%-10s %s\n", slug, entry.ExternalCode, desc)
	}
}

func doMint(cfg *config.Config, token, lid, landing string) {
	if token == "" {
		log.Fatal("-token is required")
	}
	svc := services.NewAttributionService(cfg.SigningSecret, domain.ParseScope(cfg.AttribScope), cfg.AttribTTLDays, cfg.RequireConsent)
	a := svc.Mint(token, lid, landing, true, nil, time.Now())
	value, err := svc.Encode(a)
	if err != nil {
		log.Fatalf("Encode failed: %v", err)
	}
	fmt.Println(value)
}

func doInspect(cfg *config.Config, value string) {
	if value == "" {
		log.Fatal("-value is required")
	}
	svc := services.NewAttributionService(cfg.SigningSecret, domain.ParseScope(cfg.AttribScope), cfg.AttribTTLDays, cfg.RequireConsent)
	a := svc.Decode(value)
	if a == nil {
		log.Fatal("signature invalid or payload malformed")
	}
	out, _ := json.MarshalIndent(a, "", "  ")
	fmt.Println(string(out))
}
