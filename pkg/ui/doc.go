// Package ui prints the command's terminal output: colored status lines,
// per-pass progress and desktop notifications.
//
// Everything goes to stderr unless redirected with SetOutput, leaving stdout
// for the title listing. SetQuiet hides all but errors; SetNoColor strips
// ANSI codes.
//
// PassTracker satisfies library.Observer and prints one line per pass:
//
//	[PASS 3/21] [██░░░░░░░░░░░░░░░░░░] +12 new | 57 unique
//
// The interactive alternative behind --tui lives in package tui.
package ui
