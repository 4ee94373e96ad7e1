package domain

import (
	"errors"
	"strings"

	"go.trai.ch/zerr"
)

var (
	// ErrInvalidRepoName is returned when a repository identifier is not of the form owner/name.
	ErrInvalidRepoName = zerr.New("invalid repository name, expected <owner>/<name>")

	// ErrManifestNotFound is returned when the remote reports that no manifest exists.
	ErrManifestNotFound = zerr.New("manifest not found")

	// ErrManifestDecode is returned when a manifest payload cannot be decoded.
	ErrManifestDecode = zerr.New("failed to decode manifest")

	// ErrTransport is returned when the remote could not be reached or answered with an unexpected error.
	ErrTransport = zerr.New("failed to fetch manifest")

	// ErrStorage is returned when the cache store cannot be read or written.
	ErrStorage = zerr.New("cache storage failure")

	// ErrNoRepositories is returned when validation is requested for an empty set of repositories.
	ErrNoRepositories = zerr.New("no repositories specified")

	// ErrNotImplemented is returned by configuration sources that are declared but not supported.
	ErrNotImplemented = zerr.New("configuration source not implemented")

	// ErrValidationFailed is returned when fewer repositories resolved than were requested.
	ErrValidationFailed = zerr.New("one or more repositories failed validation")

	// ErrDownloadFailed is returned when a declared file cannot be downloaded.
	ErrDownloadFailed = zerr.New("trouble while fetching file")

	// ErrPathOutsideTarget is returned when a declared file would be written outside the target directory.
	ErrPathOutsideTarget = zerr.New("file path escapes target directory")

	// ErrWriteFailed is returned when a downloaded file cannot be written to disk.
	ErrWriteFailed = zerr.New("failed to write file")

	// ErrLocalManifestMissing is returned when the working directory has no manifest file.
	ErrLocalManifestMissing = zerr.New("a `.zel` file does not exist in this directory")

	// ErrLocalManifestParse is returned when the local manifest file is malformed.
	ErrLocalManifestParse = zerr.New("failed to parse local `.zel` file")

	// ErrNoLocalDependencies is returned when the local manifest declares no dependencies.
	ErrNoLocalDependencies = zerr.New("no local dependencies defined")

	// ErrSettingsRead is returned when the settings file exists but cannot be read.
	ErrSettingsRead = zerr.New("failed to read settings file")

	// ErrSettingsParse is returned when the settings file is not valid YAML.
	ErrSettingsParse = zerr.New("failed to parse settings file")

	// ErrSettingsWrite is returned when the settings file cannot be written.
	ErrSettingsWrite = zerr.New("failed to write settings file")

	// ErrInvalidOption is returned when a configuration value is out of range or unknown.
	ErrInvalidOption = zerr.New("invalid option")
)

// RepoError describes a failure tied to a single repository identifier.
// Both Kind and Cause participate in errors.Is and errors.As.
type RepoError struct {
	Repo     string
	Kind     error
	Location string
	Cause    error
}

// NewRepoError returns a RepoError of the given kind for repo.
func NewRepoError(kind error, repo string, cause error) *RepoError {
	return &RepoError{Repo: repo, Kind: kind, Cause: cause}
}

// Error implements the error interface.
func (e *RepoError) Error() string {
	var b strings.Builder
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("repository error")
	}
	if e.Repo != "" {
		b.WriteString(": ")
		b.WriteString(e.Repo)
	}
	if e.Location != "" {
		b.WriteString(" (")
		b.WriteString(e.Location)
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes the error kind and the underlying cause.
func (e *RepoError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// ValidationError is the terminal failure of a validation run. It carries every
// repository that could not be resolved.
type ValidationError struct {
	Invalid []ResolutionRecord
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Invalid))
	for _, rec := range e.Invalid {
		names = append(names, rec.RepoName)
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(names, ", ")
}

// Unwrap returns ErrValidationFailed.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// InvalidRepos extracts the invalid repository names from a validation failure.
// It returns nil when err does not carry a ValidationError.
func InvalidRepos(err error) []string {
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		return nil
	}
	names := make([]string, 0, len(vErr.Invalid))
	for _, rec := range vErr.Invalid {
		names = append(names, rec.RepoName)
	}
	return names
}
