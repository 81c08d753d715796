package main

import (
	"log"

	"TradeSentinel/internal/cli"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := cli.Execute(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
}
