package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fetchworks/lostandfound/game/records"
)

func TestPrintLeaderboard(t *testing.T) {
	var sb strings.Builder
	printLeaderboard(&sb, 0, []records.Record{
		{Name: "Rex", Score: 12, PlayTime: 90 * time.Second},
		{Name: "Fido", Score: 7, PlayTime: 2 * time.Minute},
	})

	out := sb.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Rex")
	assert.Contains(t, out, "Fido")

	// Rex comes before Fido, one rank apart.
	assert.Less(t, strings.Index(out, "Rex"), strings.Index(out, "Fido"))
}

func TestPrintLeaderboardEmpty(t *testing.T) {
	var sb strings.Builder
	printLeaderboard(&sb, 0, nil)
	assert.Equal(t, "No retired players yet.\n", sb.String())
}

func TestPrintLeaderboardOffset(t *testing.T) {
	var sb strings.Builder
	printLeaderboard(&sb, 10, []records.Record{
		{Name: "Lassie", Score: 3, PlayTime: time.Minute},
	})
	assert.Contains(t, sb.String(), "11")
}
