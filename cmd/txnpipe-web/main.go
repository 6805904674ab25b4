package main

import (
	"flag"
	"log"
	"os"

	"txnpipe/internal/webui"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	addr := flag.String("addr", defaultAddr(), "listen address")
	job := flag.String("job", "txnpipe-web", "job name used in logs and metrics")
	workers := flag.Int("workers", 0, "row validation workers (0 = sequential)")
	flag.Parse()

	srv := webui.NewServer(webui.Config{
		Addr:    *addr,
		Version: version,
		Job:     *job,
		Workers: *workers,
	})
	log.Printf("webui: listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("webui: %v", err)
	}
}

func defaultAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}
