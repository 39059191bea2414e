package setup

import "strings"

// Flags selects which preparation steps PlanCommands emits for one node.
type Flags struct {
	// CleanDBDir destroys and recreates the data directory, preserving
	// diagnostic data by staging it in the log directory.
	CleanDBDir bool
	// CleanLogs removes old log files and core dumps.
	CleanLogs bool
	// UseJournalMount places the journal on a separately mounted directory
	// symlinked from <DBDir>/journal.
	UseJournalMount bool
	// Router marks router processes, which have no diagnostic data to clean.
	Router bool

	DBDir      string
	LogDir     string
	JournalDir string
}

// PlanCommands returns the ordered preparation commands for the given flags.
// Every command is individually safe to re-run on an already-clean filesystem.
// The data-directory steps are skipped entirely when DBDir is unset or
// CleanDBDir is false.
func PlanCommands(flags Flags) [][]string {
	var commands [][]string

	if flags.CleanLogs {
		commands = append(commands,
			[]string{"rm", "-rf", join(flags.LogDir, "*.log")},
			[]string{"rm", "-rf", join(flags.LogDir, "core.*")},
		)

		if !flags.Router {
			// Safe when the directory does not exist yet.
			commands = append(commands,
				[]string{"rm", "-rf", join(join(flags.DBDir, "diagnostic.data"), "*")},
			)
		}
	}

	commands = append(commands, []string{"mkdir", "-p", flags.LogDir})

	if flags.DBDir == "" || !flags.CleanDBDir {
		return commands
	}

	dbDiagnostics := join(flags.DBDir, "diagnostic.data")
	stagedDiagnostics := join(flags.LogDir, "diagnostic.data")

	// Stage diagnostic data outside the directory about to be destroyed,
	// then move it back once the directory is recreated.
	commands = append(commands,
		[]string{"mkdir", "-p", dbDiagnostics},
		[]string{"rm", "-rf", stagedDiagnostics},
		[]string{"mv", dbDiagnostics, flags.LogDir},
		[]string{"rm", "-rf", flags.DBDir},
	)

	if flags.UseJournalMount {
		commands = append(commands, []string{"rm", "-rf", flags.JournalDir})
	}

	commands = append(commands,
		[]string{"mkdir", "-p", flags.DBDir},
		[]string{"mv", stagedDiagnostics, flags.DBDir},
	)

	if flags.UseJournalMount {
		commands = append(commands,
			[]string{"mkdir", "-p", flags.JournalDir},
			[]string{"ln", "-s", flags.JournalDir, join(flags.DBDir, "journal")},
		)
	}

	return commands
}

// join appends a name to a directory without cleaning the result; resolved
// descriptors may carry deliberately odd paths and the commands must show
// them verbatim.
func join(dir, name string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}

	return dir + "/" + name
}
