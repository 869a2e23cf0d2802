package ports

// FileSystem is the storage port for debug artifacts and config text. Paths
// use the host separator.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces the file at path with data. Missing parent
	// directories are created.
	WriteFile(path string, data []byte) error

	MkdirAll(path string) error
}
