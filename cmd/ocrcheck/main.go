package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/park285/cheese-scoresheet/internal/ocrclient"
	"github.com/park285/cheese-scoresheet/pkg/scoresheetdto"
)

func main() {
	baseURL := os.Getenv("OCR_BASE_URL")
	apiKey := os.Getenv("OCR_API_KEY")

	if baseURL == "" {
		log.Fatal("OCR_BASE_URL is required")
	}

	headers := func() map[string]string {
		m := map[string]string{}
		if apiKey != "" {
			m["X-Api-Key"] = apiKey
		}
		return m
	}

	client := ocrclient.NewClient(baseURL,
		ocrclient.WithHeaderProvider(headers),
		ocrclient.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h, err := client.Health(ctx)
	if err != nil {
		log.Printf("/healthz error: %v", err)
	} else {
		log.Printf("/healthz ok: status=%s version=%s", h.Status, h.Version)
	}

	if len(os.Args) < 2 {
		log.Println("no image given; skipping extraction check")
		return
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("read image: %v", err)
	}
	ectx, ecancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer ecancel()
	tokens, err := client.Extract(ectx, scoresheetdto.PageImage{Data: data, ContentType: "image/jpeg"})
	if err != nil {
		log.Printf("extract error: %v", err)
		return
	}
	log.Printf("extract %s: start=%d white=%v black=%v reason=%q", tokens.Kind, tokens.FirstMoveNumber(), tokens.White, tokens.Black, tokens.Reason)
}
