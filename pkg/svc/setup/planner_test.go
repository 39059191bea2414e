package setup_test

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/fleetdb/topoctl/pkg/svc/setup"
	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	exitCode := m.Run()

	_, err := snaps.Clean(m, snaps.CleanOpts{Sort: true})
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to clean snapshots: " + err.Error() + "\n")

		os.Exit(1)
	}

	os.Exit(exitCode)
}

func renderAll(commands [][]string) []string {
	rendered := make([]string, 0, len(commands))
	for _, command := range commands {
		rendered = append(rendered, setup.Render(command))
	}

	return rendered
}

func TestPlanCommandsFullCleanWithJournalMount(t *testing.T) {
	t.Parallel()

	commands := setup.PlanCommands(setup.Flags{
		CleanDBDir:      true,
		CleanLogs:       true,
		UseJournalMount: true,
		Router:          true,
		DBDir:           "some dir with spaces",
		JournalDir:      "$journal_dir",
		LogDir:          "/ log/di r//",
	})

	require.Equal(t, []string{
		`rm -rf "/ log/di r//*.log"`,
		`rm -rf "/ log/di r//core.*"`,
		`mkdir -p "/ log/di r//"`,
		`mkdir -p "some dir with spaces/diagnostic.data"`,
		`rm -rf "/ log/di r//diagnostic.data"`,
		`mv "some dir with spaces/diagnostic.data" "/ log/di r//"`,
		`rm -rf "some dir with spaces"`,
		`rm -rf "$journal_dir"`,
		`mkdir -p "some dir with spaces"`,
		`mv "/ log/di r//diagnostic.data" "some dir with spaces"`,
		`mkdir -p "$journal_dir"`,
		`ln -s "$journal_dir" "some dir with spaces/journal"`,
	}, renderAll(commands))
}

func TestPlanCommandsNoCleaning(t *testing.T) {
	t.Parallel()

	commands := setup.PlanCommands(setup.Flags{
		Router: true,
		DBDir:  "/data/db",
		LogDir: "/data/logs",
	})

	require.Equal(t, []string{`mkdir -p "/data/logs"`}, renderAll(commands))
}

func TestPlanCommandsAllFlagCombinations(t *testing.T) {
	t.Parallel()

	for i := range 16 {
		flags := setup.Flags{
			CleanDBDir:      i&1 != 0,
			CleanLogs:       i&2 != 0,
			UseJournalMount: i&4 != 0,
			Router:          i&8 != 0,
			DBDir:           "/data/db",
			LogDir:          "/data/logs",
			JournalDir:      "/journal",
		}

		name := fmt.Sprintf(
			"cleanDbDir=%t cleanLogs=%t journalMount=%t router=%t",
			flags.CleanDBDir, flags.CleanLogs, flags.UseJournalMount, flags.Router,
		)

		t.Run(name, func(t *testing.T) {
			t.Parallel()

			commands := setup.PlanCommands(flags)

			// The log directory is always (re)created.
			assert.Contains(t, commands, []string{"mkdir", "-p", "/data/logs"})

			for _, command := range commands {
				program := strings.Join(command[:len(command)-1], " ")
				assert.Contains(t,
					[]string{"rm -rf", "mkdir -p", "mv /data/db/diagnostic.data",
						"mv /data/logs/diagnostic.data", "ln -s /journal"},
					program,
					"only idempotent-safe commands may be planned",
				)
			}

			if !flags.CleanDBDir {
				for _, command := range commands {
					assert.NotEqual(t, []string{"rm", "-rf", "/data/db"}, command)
				}
			}

			snaps.MatchSnapshot(t, strings.Join(renderAll(commands), "\n"))
		})
	}
}

func TestPlanCommandsSkipsDataDirWhenUnset(t *testing.T) {
	t.Parallel()

	commands := setup.PlanCommands(setup.Flags{
		CleanDBDir: true,
		CleanLogs:  true,
		LogDir:     "/data/logs",
	})

	require.Equal(t, []string{
		`rm -rf "/data/logs/*.log"`,
		`rm -rf "/data/logs/core.*"`,
		`rm -rf "/diagnostic.data/*"`,
		`mkdir -p "/data/logs"`,
	}, renderAll(commands))
}

func TestRenderQuotesOperandsOnly(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		`tail -n "100" "/var/log/mongod.log"`,
		setup.Render([]string{"tail", "-n", "100", "/var/log/mongod.log"}),
	)
	assert.Empty(t, setup.Render(nil))
}
