package reader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Scanner is the part of Client the read loop needs.
type Scanner interface {
	Scan(ctx context.Context, mode, key string) (*Result, error)
}

type Reader struct {
	client   Scanner
	mode     string
	debounce time.Duration
	now      func() time.Time

	lastKey string
	lastAt  time.Time
}

// NewReader posts every key read in mode ("login" or "logout"). The same
// key read again within debounce is ignored, since readers repeat a card
// that stays on the pad.
func NewReader(client Scanner, mode string, debounce time.Duration) (*Reader, error) {
	if mode != "login" && mode != "logout" {
		return nil, fmt.Errorf("reader mode must be login or logout, got %q", mode)
	}
	return &Reader{client: client, mode: mode, debounce: debounce, now: time.Now}, nil
}

// Run reads one key per line from in until EOF or ctx is done and calls
// report with every outcome.
func (r *Reader) Run(ctx context.Context, in io.Reader, report func(key string, res *Result, err error)) error {
	lines := bufio.NewScanner(in)
	for lines.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		key := strings.TrimSpace(lines.Text())
		if key == "" || r.repeated(key) {
			continue
		}

		res, err := r.client.Scan(ctx, r.mode, key)
		if err != nil {
			log.Errorf("scan %s failed: %v", key, err)
		}
		report(key, res, err)
	}
	return lines.Err()
}

func (r *Reader) repeated(key string) bool {
	now := r.now()
	if key == r.lastKey && now.Sub(r.lastAt) < r.debounce {
		return true
	}
	r.lastKey, r.lastAt = key, now
	return false
}

// Format renders a result for the gate operator's terminal.
func Format(key string, res *Result, err error) string {
	if err != nil {
		return fmt.Sprintf("%s  ERROR  %v", key, err)
	}
	line := fmt.Sprintf("%s  %s  %s", key, strings.ToUpper(res.Status), res.Message)
	if p := res.Person; p != nil {
		line += fmt.Sprintf("  %s (%s, %s, %s)", p.Name, p.Team, p.Division, p.University)
	}
	return line
}
