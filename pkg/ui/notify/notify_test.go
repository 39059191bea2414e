package notify_test

import (
	"strings"
	"testing"

	"github.com/fleetdb/topoctl/pkg/ui/notify"
	"github.com/fleetdb/topoctl/pkg/ui/timer"
	fcolor "github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func init() {
	// Keep assertions free of ANSI escape sequences.
	fcolor.NoColor = true
}

func TestWriteMessageStylesByType(t *testing.T) {
	var out strings.Builder

	notify.Errorf(&out, "boom %d", 42)
	notify.Successf(&out, "done")
	notify.Activityf(&out, "working")
	notify.Warningf(&out, "careful")
	notify.Infof(&out, "fyi")

	assert.Contains(t, out.String(), "✗ boom 42\n")
	assert.Contains(t, out.String(), "✔ done\n")
	assert.Contains(t, out.String(), "► working\n")
	assert.Contains(t, out.String(), "⚠ careful\n")
	assert.Contains(t, out.String(), "ℹ fyi\n")
}

func TestTitlefUsesEmoji(t *testing.T) {
	var out strings.Builder

	notify.Titlef(&out, "🚀", "launching %s", "rs0")

	assert.Equal(t, "🚀 launching rs0\n", out.String())
}

func TestSuccessWithTimerPrintsTimingBlock(t *testing.T) {
	var out strings.Builder

	tmr := timer.New()
	tmr.Start()

	notify.SuccessWithTimerf(&out, tmr, "cluster up")

	assert.Contains(t, out.String(), "✔ cluster up\n")
	assert.Contains(t, out.String(), "⏲ current:")
	assert.Contains(t, out.String(), "total:")
}

func TestWriteMessageIndentsMultilineContent(t *testing.T) {
	var out strings.Builder

	notify.WriteMessage(notify.Message{
		Type:    notify.ErrorType,
		Content: "first\nsecond",
		Writer:  &out,
	})

	assert.Equal(t, "✗ first\n  second\n", out.String())
}
