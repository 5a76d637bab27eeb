// Command main recomputes post engagement counters from the likes and shares
// tables. Run it out-of-band when counter drift is suspected; the request
// path never recomputes.
package main

import (
	"context"
	"flag"
	"log"

	"bazaarhub/internal/cache"
	"bazaarhub/internal/config"
	"bazaarhub/internal/database"
	"bazaarhub/internal/middleware"
	"bazaarhub/internal/reconcile"
)

func main() {
	syncCache := flag.Bool("sync-cache", true, "Overwrite cached counters for corrected posts")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var counters *cache.Counters
	if *syncCache {
		counters = cache.NewCounters(cfg.RedisURL, middleware.Logger)
		defer counters.Close()
	}

	report, err := reconcile.Run(context.Background(), db, counters)
	if err != nil {
		log.Fatalf("Reconciliation failed: %v", err)
	}

	log.Printf("Scanned %d posts, corrected %d counters", report.PostsScanned, len(report.Corrections))
	for _, c := range report.Corrections {
		log.Printf("post %d: %s %d -> %d", c.PostID, c.Column, c.OldVal, c.TrueVal)
	}
}
