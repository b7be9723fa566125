package credential

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"moltyverse/pkg/logging"
)

// DefaultStorageDir is the default directory, relative to the home directory,
// for the credential files.
const DefaultStorageDir = ".config/moltyverse/credentials"

// FileStore keeps each credential part in its own file.
//
// SECURITY: the directory is created 0700 and files are written 0600.
// Token values are never logged.
type FileStore struct {
	mu  sync.Mutex
	dir string

	// write persists one key; replaced in tests to inject failures.
	write func(key string, data []byte) error
}

// NewFileStore creates a file-backed store rooted at dir. An empty dir uses
// DefaultStorageDir under the user's home directory.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, DefaultStorageDir)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create credential directory: %w", err)
	}

	s := &FileStore{dir: dir}
	s.write = s.writeFile
	return s, nil
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Get reads the three parts; a partial set reads as absent.
func (s *FileStore) Get(ctx context.Context) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.readAll()
	if err != nil {
		return nil, err
	}
	return decode(values), nil
}

// Set replaces the stored credential. The old user is removed first, then the
// tokens and the new user are written, so an interrupted Set never pairs new
// tokens with the previous user. If any write fails, the previous values are
// put back.
func (s *FileStore) Set(ctx context.Context, c *Credential) error {
	if err := Validate(c); err != nil {
		return err
	}
	values, err := encode(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous, err := s.readAll()
	if err != nil {
		return err
	}

	if err := s.removeFile(KeyUser); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	for _, key := range Keys {
		if err := s.write(key, values[key]); err != nil {
			s.restore(previous, Keys)
			logging.Warn("Credential", "Credential write failed at %s, previous values restored", key)
			return fmt.Errorf("failed to persist credential: %w", err)
		}
	}

	logging.Debug("Credential", "Stored credential for user %s", c.User.ID)
	return nil
}

// Clear removes all parts. The user file goes first so an interrupted clear
// leaves a partial (and therefore absent) credential.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(Keys) - 1; i >= 0; i-- {
		if err := s.removeFile(Keys[i]); err != nil {
			return fmt.Errorf("failed to remove %s: %w", Keys[i], err)
		}
	}
	return nil
}

// Watch reports changes made to the credential files by other processes.
// The returned channel is closed when ctx is done.
func (s *FileStore) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	known := make(map[string]bool, len(Keys))
	for _, key := range Keys {
		known[s.path(key)] = true
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !known[filepath.Clean(event.Name)] {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn("Credential", "Credential watcher error: %v", err)
			}
		}
	}()

	return changes, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key)
}

func (s *FileStore) readAll() (map[string][]byte, error) {
	values := make(map[string][]byte, len(Keys))
	for _, key := range Keys {
		// #nosec G304 -- path is built from a fixed key, not user input
		data, err := os.ReadFile(s.path(key))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		values[key] = data
	}
	return values, nil
}

// writeFile writes via a temp file and rename so a single key is never torn.
func (s *FileStore) writeFile(key string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+key+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path(key))
}

func (s *FileStore) removeFile(key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// restore puts back previous values for the given keys, removing keys that
// did not exist before.
func (s *FileStore) restore(previous map[string][]byte, keys []string) {
	for _, key := range keys {
		var err error
		if data, ok := previous[key]; ok {
			err = s.writeFile(key, data)
		} else {
			err = s.removeFile(key)
		}
		if err != nil {
			logging.Error("Credential", err, "Failed to restore %s", key)
		}
	}
}
