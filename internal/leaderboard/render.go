package leaderboard

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/paceman"
)

// ErrMalformed marks leaderboard content that cannot be parsed back into entries
var ErrMalformed = errors.New("malformed leaderboard message")

// Header is the first line of every rendered leaderboard
const Header = "# Leaderboard"

const columnSep = "\t\t"

// Entry is one runner's best completion time
type Entry struct {
	Name   string
	Millis int64
}

// Render produces the full leaderboard message. Entries are sorted ascending by time.
func Render(entries []Entry) string {
	sorted := append([]Entry(nil), entries...)
	sortEntries(sorted)

	var sb strings.Builder
	sb.WriteString(Header)
	for _, e := range sorted {
		sb.WriteString("\n")
		sb.WriteString(e.Name)
		sb.WriteString(columnSep)
		sb.WriteString(paceman.FormatClock(e.Millis))
	}
	return sb.String()
}

// Parse reads entries back out of a rendered leaderboard
func Parse(content string) ([]Entry, error) {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != Header {
		return nil, fmt.Errorf("%w: missing header", ErrMalformed)
	}

	var entries []Entry
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}

		name, clock, ok := strings.Cut(line, columnSep)
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrMalformed, line)
		}

		millis, err := parseClock(strings.TrimSpace(clock))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMalformed, line, err)
		}
		entries = append(entries, Entry{Name: name, Millis: millis})
	}

	return entries, nil
}

// Merge inserts or improves a runner's entry. An existing entry never gets worse.
func Merge(entries []Entry, name string, millis int64) []Entry {
	merged := append([]Entry(nil), entries...)

	found := false
	for i := range merged {
		if strings.EqualFold(merged[i].Name, name) {
			found = true
			if millis < merged[i].Millis {
				merged[i].Millis = millis
			}
		}
	}
	if !found {
		merged = append(merged, Entry{Name: name, Millis: millis})
	}

	sortEntries(merged)
	return merged
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Millis != entries[j].Millis {
			return entries[i].Millis < entries[j].Millis
		}
		return entries[i].Name < entries[j].Name
	})
}

func parseClock(s string) (int64, error) {
	mins, secs, ok := strings.Cut(s, ":")
	if !ok || len(secs) != 2 {
		return 0, fmt.Errorf("expected m:ss, got %q", s)
	}
	m, err := strconv.Atoi(mins)
	if err != nil || m < 0 {
		return 0, fmt.Errorf("bad minutes %q", mins)
	}
	sec, err := strconv.Atoi(secs)
	if err != nil || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("bad seconds %q", secs)
	}
	return int64(m*60+sec) * 1000, nil
}
