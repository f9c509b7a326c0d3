// Package logging provides structured logging for oauthkit with unified
// log handling and level filtering.
//
// The package is built on Go's standard slog package. Log entries carry a
// subsystem identifier so that output can be filtered by component:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//	logging.Info("Config", "Loaded configuration from %s", path)
//	logging.Error("Session", err, "Failed to persist session")
//
// Components that want a *slog.Logger directly (such as oauth.Profile)
// can use Logger().
//
// Token values must never be passed to any logging function.
package logging
