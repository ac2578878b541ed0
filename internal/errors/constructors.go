package errors

import "fmt"

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *RelBuilderError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *RelBuilderError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

func SecretMissing(name string) *RelBuilderError {
	return New(CategorySecret, SeverityFatal, "referenced secret is not set in the environment").
		WithContext("secret", name)
}

// Step execution errors

func StepFailed(step string, exitCode int, cause error) *RelBuilderError {
	return Wrap(cause, CategoryExec, SeverityFatal, fmt.Sprintf("step exited with code %d", exitCode)).
		WithContext("step", step).
		WithContext("exit_code", exitCode)
}

func WorkspaceError(operation string, cause error) *RelBuilderError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "workspace operation failed").
		WithContext("operation", operation)
}

// Git errors

func GitCloneError(repo string, cause error) *RelBuilderError {
	return Wrap(cause, CategoryGit, SeverityFatal, "repository clone failed").
		WithContext("repository", repo)
}

func GitCheckoutError(ref string, cause error) *RelBuilderError {
	return Wrap(cause, CategoryGit, SeverityFatal, "checkout failed").
		WithContext("ref", ref)
}

// Drift check errors

func DocsDrift(changed []string, remediation string) *RelBuilderError {
	return New(CategoryDrift, SeverityFatal, remediation).
		WithContext("changed_files", changed)
}

// Artifact errors

func ArtifactBundleError(bundle string, cause error) *RelBuilderError {
	return Wrap(cause, CategoryArtifact, SeverityFatal, "artifact bundle failed").
		WithContext("bundle", bundle)
}

func PublishError(bundle string, cause error) *RelBuilderError {
	return Wrap(cause, CategoryPublish, SeverityError, "artifact publish failed").
		WithContext("bundle", bundle)
}

// Daemon errors

func DaemonError(message string) *RelBuilderError {
	return New(CategoryDaemon, SeverityError, message)
}
