// Package errors provides typed error values for sshvault.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching.
//
// # Error Categories
//
//   - Input errors: ErrIO, ErrEmptyInput, ErrAlreadyExists
//   - Document errors: ErrParse, ErrSerialization
//   - Tool errors: ErrExternalTool, ErrToolExitStatus
//   - Lifecycle errors: ErrDestinationExists, ErrDestinationMissing, ErrReencryptFailed
//
// # Stage Errors
//
// The workflows package wraps every failure in a *StageError naming the
// lifecycle stage and the path involved:
//
//	var stageErr *errors.StageError
//	if stderrors.As(err, &stageErr) {
//	    fmt.Println(stageErr.Stage, stageErr.Path)
//	}
//
// # Filesystem Errors
//
// IO() joins ErrIO onto an *fs.PathError so both errors.Is(err, ErrIO) and
// errors.Is(err, fs.ErrNotExist) hold:
//
//	data, err := os.ReadFile(path)
//	if err != nil {
//	    return kerrors.IO(err)
//	}
package errors
