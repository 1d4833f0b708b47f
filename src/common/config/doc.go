// Package config resolves the run options: the ODPT access key, the
// operator list and the validated CLI settings.
//
// Key lookup takes its starting directory and search depth as arguments
// and keeps no package state.
package config
