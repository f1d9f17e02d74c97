// Package ui provides semantic text formatting for CLI output.
//
// Formatters render with colors when the terminal supports them. When
// NO_COLOR is set or colors are unavailable, text decorations are used
// instead:
//
//	ui.Code.Sprint("sshvault init")         // `sshvault init`
//	ui.Path.Sprint("~/.ssh/ansibleuser")    // ~/.ssh/ansibleuser
//	ui.Stage.Sprint("re-encrypt")           // [re-encrypt]
//	ui.Highlight.Sprint("SHA256:abc")       // 'SHA256:abc'
//	ui.Muted.Sprint("reused")               // (reused)
package ui
