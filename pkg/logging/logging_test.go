package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	cases := []struct {
		level   string
		verbose bool
		want    zerolog.Level
	}{
		{"", false, zerolog.WarnLevel},
		{"INFO", false, zerolog.InfoLevel},
		{"bogus", false, zerolog.WarnLevel},
		{"error", true, zerolog.DebugLevel},
	}
	for _, c := range cases {
		log := New(&bytes.Buffer{}, c.level, c.verbose)
		assert.Equal(t, c.want, log.GetLevel(), c.level)
	}
}

func TestWritesConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", false)

	log.Debug().Msg("hidden")
	log.Info().Str("kind", "evm").Msg("wallet connected")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "wallet connected")
	assert.Contains(t, out, "kind=evm")
}
