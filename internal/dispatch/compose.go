package dispatch

import (
	"fmt"
	"strings"

	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/guild"
	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/paceman"
	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/split"
)

// ResetMarker is appended to the first line of a notification whose run was reset
const ResetMarker = " (Reset)"

// Substitutes underscores in names so markdown doesn't italicize them
const underscoreSubstitute = "‗"

const twitchBaseURL = "https://twitch.tv/"

var itemLabels = []struct {
	kind  paceman.ItemKind
	label string
}{
	{paceman.ItemEnderPearl, "Pearls"},
	{paceman.ItemBlazeRod, "Rods"},
}

func escapeName(name string) string {
	return strings.ReplaceAll(name, "_", underscoreSubstitute)
}

// runnerLine renders the live link or the offline label
func runnerLine(rec *paceman.Record) string {
	name := escapeName(rec.RunnerDisplayName)
	if rec.Runner.IsLive() {
		return fmt.Sprintf("[%s](<%s%s>)", name, twitchBaseURL, rec.Runner.LiveStreamHandle)
	}
	return "Offline - " + name
}

func itemLine(counts map[paceman.ItemKind]int) string {
	var parts []string
	for _, item := range itemLabels {
		if n, ok := counts[item.kind]; ok {
			parts = append(parts, fmt.Sprintf("%s: %d", item.label, n))
		}
	}
	return strings.Join(parts, " | ")
}

func heading(ev split.Event) string {
	return fmt.Sprintf("## %s - %s", paceman.FormatClock(ev.Milestone.InGameTimeMillis), ev.Description())
}

// composeCheckpoint builds the checkpoint notification
func composeCheckpoint(rec *paceman.Record, ev split.Event, roles []guild.RoleThreshold) string {
	lines := []string{heading(ev), "", runnerLine(rec)}

	if items := itemLine(rec.ItemCounts); items != "" {
		lines = append(lines, items)
	}

	mentions := make([]string, 0, len(roles))
	for _, r := range roles {
		mentions = append(mentions, fmt.Sprintf("<@&%s>", r.RoleID))
	}
	lines = append(lines, strings.Join(mentions, " "))

	return strings.Join(lines, "\n")
}

// composeCompletion builds the completion notification
func composeCompletion(rec *paceman.Record, ev split.Event) string {
	return strings.Join([]string{heading(ev), "", runnerLine(rec)}, "\n")
}

// markReset appends the reset marker to the first line of a notification
func markReset(content string) string {
	first, rest, hasRest := strings.Cut(content, "\n")
	if strings.HasSuffix(first, ResetMarker) {
		return content
	}
	first += ResetMarker
	if !hasRest {
		return first
	}
	return first + "\n" + rest
}
