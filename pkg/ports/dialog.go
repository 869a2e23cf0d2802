package ports

// ConfigDialog abstracts the step configuration dialog.
type ConfigDialog interface {
	// SetIdentifierOccursCount installs the host's uniqueness check.
	SetIdentifierOccursCount(fn func(identifier string) int)

	// SetConfig loads the configuration into the dialog.
	SetConfig(cfg map[string]any)

	// GetConfig returns the configuration as edited in the dialog.
	GetConfig() map[string]any

	// Validate reports whether the current configuration is acceptable.
	Validate() bool

	// Exec shows the dialog modally and reports whether it was accepted.
	Exec() bool
}
