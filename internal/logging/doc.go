// Package logger provides leveled console logging for sshvault commands.
//
// # Verbosity Levels
//
// Logging behavior is controlled by two flags (or the SSHVAULT_VERBOSE and
// SSHVAULT_DEBUG environment variables):
//
//   - --verbose: Shows info and warning messages
//   - --debug: Shows all messages including debug details and errors
//
// Without flags, only user-facing and critical warnings are shown.
//
// # Log Methods
//
//	Logger.Infof()          // Shown with --verbose or --debug
//	Logger.Debugf()         // Shown only with --debug
//	Logger.Warnf()          // Shown with --verbose or --debug
//	Logger.WarnfAlways()    // Always shown (critical warnings)
//	Logger.WarnfUser()      // User-facing warnings (not debug info)
//	Logger.Errorf()         // Shown with --debug
//	Logger.ErrorfAndReturn() // Errorf, then returns the message as an error
//
// The root command builds the logger in PersistentPreRunE and the
// subcommands share it.
package logger
