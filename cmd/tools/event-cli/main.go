package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/annel0/adventure-world/internal/eventbus"
	"github.com/annel0/adventure-world/internal/world"
)

const (
	defaultServerAddr = "http://localhost:8088"
	defaultNatsURL    = "nats://localhost:4222"
	timeFormat        = "2006-01-02T15:04:05Z"
)

func main() {
	var (
		serverAddr = flag.String("server", defaultServerAddr, "world inspector address")
		natsURL    = flag.String("nats", defaultNatsURL, "NATS URL for -cmd follow")
		stream     = flag.String("stream", "WORLD", "JetStream stream name")
		command    = flag.String("cmd", "tail", "Command: tail, follow, stats")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		since      = flag.String("since", "", "Only events newer than duration (e.g., 1h, 30m) or RFC3339 time")
		limit      = flag.Int("limit", 100, "Maximum number of events")
	)
	flag.Parse()

	types := parseStringList(*eventTypes)

	switch *command {
	case "tail":
		events, err := fetchEvents(*serverAddr, *limit, types)
		if err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}
		events, err = filterSince(events, *since, time.Now())
		if err != nil {
			log.Fatalf("❌ Invalid since: %v", err)
		}
		// журнал отдаёт новые первыми
		for i := len(events) - 1; i >= 0; i-- {
			printEvent(&events[i])
		}
		fmt.Printf("\n📊 Total events: %d\n", len(events))

	case "follow":
		if err := followEvents(*natsURL, *stream, types); err != nil {
			log.Fatalf("❌ Follow failed: %v", err)
		}

	case "stats":
		events, err := fetchEvents(*serverAddr, *limit, types)
		if err != nil {
			log.Fatalf("❌ Stats failed: %v", err)
		}
		events, err = filterSince(events, *since, time.Now())
		if err != nil {
			log.Fatalf("❌ Invalid since: %v", err)
		}
		showStats(events)

	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, follow, stats")
		os.Exit(1)
	}
}

type eventsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Events []eventbus.Envelope `json:"events"`
		Total  int                 `json:"total"`
	} `json:"data"`
}

// fetchEvents читает журнал событий через инспектор мира
func fetchEvents(server string, limit int, types []string) ([]eventbus.Envelope, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	for _, t := range types {
		q.Add("type", t)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(strings.TrimRight(server, "/") + "/api/world/events?" + q.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body eventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %v", err)
	}
	if resp.StatusCode != http.StatusOK || !body.Success {
		return nil, fmt.Errorf("server responded %d: %s", resp.StatusCode, body.Message)
	}
	return body.Data.Events, nil
}

// followEvents выводит события из JetStream до Ctrl+C
func followEvents(natsURL, stream string, types []string) error {
	bus, err := eventbus.NewJetStreamBus(natsURL, stream, 0)
	if err != nil {
		return err
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sub, err := bus.Subscribe(ctx, eventbus.Filter{Types: types}, func(_ context.Context, ev *eventbus.Envelope) {
		printEvent(ev)
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	fmt.Printf("🎬 Following %s on %s\n", stream, natsURL)
	<-ctx.Done()
	return nil
}

// showStats выводит число событий по типам
func showStats(events []eventbus.Envelope) {
	fmt.Println("📊 Event statistics")

	counts := make(map[string]int)
	for _, ev := range events {
		counts[ev.EventType]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(events) > 0 {
		fmt.Printf("Period: %s - %s\n",
			events[len(events)-1].Timestamp.Format(timeFormat), events[0].Timestamp.Format(timeFormat))
	}
	fmt.Printf("Total events: %d\n", len(events))
	fmt.Println("\nBy event type:")
	for _, k := range keys {
		fmt.Printf("  %s: %d events\n", k, counts[k])
	}
}

// printEvent выводит событие в читаемом формате
func printEvent(ev *eventbus.Envelope) {
	fmt.Printf("[%s] %s [%s] %s\n",
		ev.Timestamp.Format("15:04:05"),
		ev.Source,
		ev.EventType,
		ev.ID)

	var payload world.WorldEvent
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return
	}
	switch ev.EventType {
	case world.EventWorldExpanded:
		fmt.Printf("  Size: %.0f -> %.0f Chunks: %d\n", payload.PreviousSize, payload.Size, payload.Chunks)
	case world.EventWorldRegenerated:
		fmt.Printf("  Seed: %d -> %d\n", payload.PreviousSeed, payload.Seed)
	default:
		fmt.Printf("  Seed: %d Size: %.0f Objects: %d\n", payload.Seed, payload.Size, payload.Objects)
	}
}

// filterSince оставляет события новее границы since
func filterSince(events []eventbus.Envelope, since string, now time.Time) ([]eventbus.Envelope, error) {
	if since == "" {
		return events, nil
	}
	from, err := parseSinceTime(since, now)
	if err != nil {
		return nil, err
	}

	out := events[:0]
	for _, ev := range events {
		if !ev.Timestamp.Before(from) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parseSinceTime парсит относительное время типа "1h", "30m"
func parseSinceTime(since string, from time.Time) (time.Time, error) {
	if since == "" {
		return from, nil
	}

	duration, err := time.ParseDuration(since)
	if err != nil {
		// Пробуем парсить как абсолютное время
		return time.Parse(time.RFC3339, since)
	}

	return from.Add(-duration), nil
}
