package snapshot

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithDir sets the directory snapshots are written to.
func WithDir(dir string) Option {
	return func(s *FileStore) {
		if dir != "" {
			s.dir = dir
		}
	}
}
