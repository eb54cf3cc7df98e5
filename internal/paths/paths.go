// Package paths centralizes file and directory names used across the project.
// All data directory file names are defined here as the single source of truth.
package paths

import "path/filepath"

// ///////////////////////////////////////////////
// Constants
// ///////////////////////////////////////////////

// Data directory file names.
const (
	PIDFile      = "lottery.pid"
	ConfigFile   = "config.toml"
	LogFile      = "lottery.log"
	EventLogFile = "lottery_log.txt"
	BackupFile   = "backup_users.txt"
)

const (
	BinaryName = "lottery"
	DataDirRel = ".lottery" // relative to $HOME
)

// ///////////////////////////////////////////////
// DataDir
// ///////////////////////////////////////////////

// DataDir provides path construction methods rooted at a data directory.
type DataDir struct {
	Root string
}

// PID returns the full path to the PID file.
func (d DataDir) PID() string { return filepath.Join(d.Root, PIDFile) }

// Config returns the full path to the config file.
func (d DataDir) Config() string { return filepath.Join(d.Root, ConfigFile) }

// Log returns the full path to the diagnostic log file.
func (d DataDir) Log() string { return filepath.Join(d.Root, LogFile) }

// EventLog returns the full path to the lottery event log, the append-only
// record of registrations, interruptions and winners.
func (d DataDir) EventLog() string { return filepath.Join(d.Root, EventLogFile) }

// Backup returns the full path to the participant backup file.
func (d DataDir) Backup() string { return filepath.Join(d.Root, BackupFile) }
