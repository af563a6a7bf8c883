// Package localstore is a store.Backend that keeps each collection as a JSON
// array in its own file under a data directory. It suits single-process
// deployments and offline use where no database server is available.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/englishhub/englishhub/internal/model"
	"github.com/englishhub/englishhub/internal/store"
)

// Collection keys. Each maps to <key>.json in the data directory.
const (
	AdminsKey  = "englishLearningAdmins"
	ContentKey = "englishLearningContent"
)

const backendName = "local"

// adminRecord is the on-disk form of model.Admin, whose hash is hidden from
// JSON everywhere else.
type adminRecord struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store is a file-backed store.Backend. All operations hold one mutex, so a
// read-modify-write of a collection is atomic within the process.
type Store struct {
	dir string

	mu     sync.Mutex
	closed bool
}

var _ store.Backend = (*Store)(nil)

// Register adds the local backend to r.
func Register(r *store.Registry) {
	r.RegisterDriver(backendName, New)
}

// New returns a Store rooted at opts.DataDir. Nothing is created on disk
// until Migrate runs.
func New(opts store.Options) (store.Backend, error) {
	if opts.DataDir == "" {
		return nil, errors.New("local: data_dir is required")
	}
	return &Store{dir: opts.DataDir}, nil
}

// Name returns "local".
func (s *Store) Name() string { return backendName }

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Migrate creates the data directory and any missing collection file.
// Existing files are left as they are.
func (s *Store) Migrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return store.Unavailable(backendName, "migrate", err)
	}
	for _, key := range []string{AdminsKey, ContentKey} {
		_, err := os.Stat(s.path(key))
		if err == nil {
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return store.Unavailable(backendName, "migrate", err)
		}
		if err := writeJSON(s.path(key), []struct{}{}); err != nil {
			return store.Unavailable(backendName, "migrate", err)
		}
	}
	return nil
}

// Ping reports whether the data directory is accessible.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	// A directory that does not exist yet is fine; Migrate will create it.
	if _, err := os.Stat(s.dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return store.Unavailable(backendName, "ping", err)
	}
	return nil
}

// Tables lists the collection keys whose files exist.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	names := []string{}
	for _, key := range []string{AdminsKey, ContentKey} {
		_, err := os.Stat(s.path(key))
		switch {
		case err == nil:
			names = append(names, key)
		case !errors.Is(err, fs.ErrNotExist):
			return nil, store.Unavailable(backendName, "list tables", err)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close marks the store closed. Later calls fail with store.ErrUnavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// check must be called with mu held.
func (s *Store) check(ctx context.Context) error {
	if s.closed {
		return store.Unavailable(backendName, "check", errors.New("store is closed"))
	}
	if err := ctx.Err(); err != nil {
		return store.Unavailable(backendName, "check", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Admin
// ---------------------------------------------------------------------------

func (s *Store) loadAdmins() ([]adminRecord, error) {
	var admins []adminRecord
	if err := readJSON(s.path(AdminsKey), &admins); err != nil {
		return nil, store.Unavailable(backendName, "load admins", err)
	}
	return admins, nil
}

// GetAdmin returns the admin with the exact username.
func (s *Store) GetAdmin(ctx context.Context, username string) (*model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	admins, err := s.loadAdmins()
	if err != nil {
		return nil, err
	}
	for _, a := range admins {
		if a.Username == username {
			return &model.Admin{ID: a.ID, Username: a.Username, PasswordHash: a.PasswordHash, CreatedAt: a.CreatedAt}, nil
		}
	}
	return nil, store.NotFound("admin", username)
}

// CreateAdminIfAbsent appends admin unless its username is already present.
func (s *Store) CreateAdminIfAbsent(ctx context.Context, admin *model.Admin) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return false, err
	}

	admins, err := s.loadAdmins()
	if err != nil {
		return false, err
	}
	for _, a := range admins {
		if a.Username == admin.Username {
			return false, nil
		}
	}

	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}
	admins = append(admins, adminRecord{
		ID:           admin.ID,
		Username:     admin.Username,
		PasswordHash: admin.PasswordHash,
		CreatedAt:    admin.CreatedAt,
	})
	if err := writeJSON(s.path(AdminsKey), admins); err != nil {
		return false, store.Unavailable(backendName, "create admin", err)
	}
	return true, nil
}

// UpdateAdminPassword replaces the hash stored for username.
func (s *Store) UpdateAdminPassword(ctx context.Context, username, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}

	admins, err := s.loadAdmins()
	if err != nil {
		return err
	}
	for i := range admins {
		if admins[i].Username != username {
			continue
		}
		admins[i].PasswordHash = passwordHash
		if err := writeJSON(s.path(AdminsKey), admins); err != nil {
			return store.Unavailable(backendName, "update admin password", err)
		}
		return nil
	}
	return store.NotFound("admin", username)
}

// ---------------------------------------------------------------------------
// Content
// ---------------------------------------------------------------------------

func (s *Store) loadContent() ([]model.Content, error) {
	var items []model.Content
	if err := readJSON(s.path(ContentKey), &items); err != nil {
		return nil, store.Unavailable(backendName, "load content", err)
	}
	return items, nil
}

// newestFirst sorts items by CreatedAt descending. Items are appended on
// insert, so ties put the later entry in the file first.
func newestFirst(items []model.Content) []model.Content {
	slices.Reverse(items)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items
}

// ListContent returns every item, newest first.
func (s *Store) ListContent(ctx context.Context) ([]model.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	items, err := s.loadContent()
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Content{}
	}
	return newestFirst(items), nil
}

// ListContentByCategory returns the items in category, newest first.
func (s *Store) ListContentByCategory(ctx context.Context, category model.Category) ([]model.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	items, err := s.loadContent()
	if err != nil {
		return nil, err
	}
	filtered := []model.Content{}
	for _, it := range items {
		if it.Category == category {
			filtered = append(filtered, it)
		}
	}
	return newestFirst(filtered), nil
}

// GetContent returns the item with id.
func (s *Store) GetContent(ctx context.Context, id string) (*model.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	items, err := s.loadContent()
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, store.NotFound("content", id)
}

// InsertContent appends item to the collection.
func (s *Store) InsertContent(ctx context.Context, item *model.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}

	items, err := s.loadContent()
	if err != nil {
		return err
	}
	items = append(items, *item)
	if err := writeJSON(s.path(ContentKey), items); err != nil {
		return store.Unavailable(backendName, "insert content", err)
	}
	return nil
}

// DeleteContent removes the item with id. The file is not rewritten when
// nothing matches.
func (s *Store) DeleteContent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}

	items, err := s.loadContent()
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return nil
	}
	if err := writeJSON(s.path(ContentKey), kept); err != nil {
		return store.Unavailable(backendName, "delete content", err)
	}
	return nil
}

// DeleteAllContent replaces the collection with an empty array.
func (s *Store) DeleteAllContent(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}

	if err := writeJSON(s.path(ContentKey), []model.Content{}); err != nil {
		return store.Unavailable(backendName, "delete all content", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// File helpers
// ---------------------------------------------------------------------------

// readJSON decodes path into v. A missing file decodes as an empty
// collection.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON replaces path with the encoding of v. The data goes to a
// temporary file in the same directory first and is renamed into place.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
