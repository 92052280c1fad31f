// Command fixreplay publishes recorded location fixes to the fix stream at a
// fixed interval, standing in for a device's positioning subsystem.
//
// Usage:
//
//	fixreplay [-interval 5s] [-source replay] [-loop] fixes.jsonl
//
// Each input line is a JSON object with latitude, longitude and optional
// accuracy, altitude and bearing.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	natsadapter "github.com/samirrijal/coords/internal/adapters/nats"
	"github.com/samirrijal/coords/internal/core/domain"
	"github.com/samirrijal/coords/internal/pkg/config"
	"github.com/samirrijal/coords/internal/pkg/logging"
)

func main() {
	interval := flag.Duration("interval", 5*time.Second, "delay between fixes")
	source := flag.String("source", "replay", "subject token identifying this fix source")
	loop := flag.Bool("loop", false, "restart from the first fix after the last one")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: fixreplay [flags] fixes.jsonl")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load("coords-fixreplay")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatalf("open fixes: %v", err)
	}
	fixes, err := readFixes(f)
	f.Close()
	if err != nil {
		log.Fatalf("read fixes: %v", err)
	}
	if len(fixes) == 0 {
		log.Fatalf("no fixes in %s", flag.Arg(0))
	}

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL, cfg.NATS.FixSubject, cfg.NATS.ReadoutSubject)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("replaying fixes", "count", len(fixes), "interval", interval.String(), "subject", cfg.NATS.FixSubject+"."+*source)
	if err := replay(ctx, fixes, *interval, *loop, func(ctx context.Context, fix domain.RawFix) error {
		return pub.PublishFix(ctx, *source, fix)
	}); err != nil && ctx.Err() == nil {
		log.Fatalf("replay: %v", err)
	}
	slog.Info("replay finished")
}

// readFixes parses one JSON fix per line. Blank lines and lines starting
// with '#' are skipped. Coordinates are validated up front.
func readFixes(r io.Reader) ([]domain.RawFix, error) {
	var fixes []domain.RawFix
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var fix domain.RawFix
		if err := json.Unmarshal([]byte(text), &fix); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if _, err := domain.NewGeodeticPoint(fix); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		fixes = append(fixes, fix)
	}
	return fixes, scanner.Err()
}

// replay publishes fixes one per interval, the first immediately. Each fix
// is stamped with the time it is sent.
func replay(ctx context.Context, fixes []domain.RawFix, interval time.Duration, loop bool, publish func(context.Context, domain.RawFix) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		if i == len(fixes) {
			i = 0
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		fix := fixes[i]
		fix.Time = time.Now().UTC()
		if err := publish(ctx, fix); err != nil {
			return err
		}
		slog.Debug("fix published", "index", i, "latitude", fix.Latitude, "longitude", fix.Longitude)
		if i == len(fixes)-1 && !loop {
			return nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
