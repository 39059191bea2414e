// Package fsutil provides local filesystem path helpers for the command
// line, such as expanding ~ in key and descriptor paths.
package fsutil
