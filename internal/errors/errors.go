package errors

import (
	"errors"
	"fmt"
)

// Filesystem and input errors.
var (
	// ErrIO indicates a filesystem read, write or permission failure.
	ErrIO = errors.New("i/o failure")

	// ErrEmptyInput indicates a passphrase file exists but holds no lines.
	ErrEmptyInput = errors.New("passphrase file is empty")

	// ErrAlreadyExists indicates a guarded file already exists and the policy is to fail.
	ErrAlreadyExists = errors.New("file already exists")
)

// Document errors indicate the vars document could not be encoded or decoded.
var (
	// ErrParse indicates the vars document is malformed.
	ErrParse = errors.New("malformed vars document")

	// ErrSerialization indicates a key pair could not be encoded.
	ErrSerialization = errors.New("failed to serialize key pair")
)

// External tool errors.
var (
	// ErrExternalTool indicates ssh-keygen or ansible-vault could not be spawned or waited on.
	ErrExternalTool = errors.New("external tool failed")

	// ErrToolExitStatus indicates an external tool ran but exited non-zero.
	ErrToolExitStatus = errors.New("external tool exited with non-zero status")
)

// Lifecycle errors are returned by the orchestration workflows.
var (
	// ErrDestinationExists indicates provisioning was asked for but the vars file already exists.
	ErrDestinationExists = errors.New("destination vars file already exists")

	// ErrDestinationMissing indicates restore was asked for but there is no vars file.
	ErrDestinationMissing = errors.New("destination vars file does not exist")

	// ErrReencryptFailed indicates the vars file could not be re-encrypted after a restore.
	// The file may be sitting on disk in plaintext.
	ErrReencryptFailed = errors.New("failed to re-encrypt vars file, it may be left in plaintext")

	// ErrInvalidPolicy indicates an unknown policy name in flags or configuration.
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrInvalidDateFormat indicates a log filter date is not YYYY-MM-DD.
	ErrInvalidDateFormat = errors.New("invalid date format")
)

// Stage names a step of the provisioning or restore lifecycle.
type Stage string

const (
	StageResolvePassphrase Stage = "resolve-passphrase"
	StagePersistPassphrase Stage = "persist-passphrase"
	StageCheckDestination  Stage = "check-destination"
	StageGenerateKeys      Stage = "generate-keys"
	StageWriteDocument     Stage = "write-document"
	StageEncrypt           Stage = "encrypt"
	StageDecrypt           Stage = "decrypt"
	StageMaterialize       Stage = "materialize"
	StageReencrypt         Stage = "re-encrypt"
)

// StageError reports which lifecycle stage failed, on which path, and why.
type StageError struct {
	Stage Stage
	Path  string
	Err   error
}

func (e *StageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Stage, e.Path, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with the stage and path it occurred at.
func NewStageError(stage Stage, path string, err error) *StageError {
	return &StageError{Stage: stage, Path: path, Err: err}
}

// IO tags err as ErrIO while keeping the original error in the chain.
func IO(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrIO, err)
}
