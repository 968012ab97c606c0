package store

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/persistence"
	"github.com/desertthunder/bookshelf/internal/shared"
)

// Options configures a [Store].
type Options struct {
	Logger *log.Logger
}

// Store is the single owner of the tracker state.
type Store struct {
	mu      sync.RWMutex
	state   models.State
	gateway persistence.Gateway
	syncer  *Syncer
	logger  *log.Logger
}

// New creates a store with the default state. A nil gateway keeps the state in memory only.
func New(gateway persistence.Gateway, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Store{
		state:   models.DefaultState(),
		gateway: gateway,
		logger:  logger,
	}
	if gateway != nil {
		s.syncer = NewSyncer(gateway, logger)
	}
	return s
}

// Load replaces the state with the stored document.
//
// A missing document or a load failure keeps the defaults; failures are logged, never returned.
func (s *Store) Load(ctx context.Context) models.State {
	if s.gateway == nil {
		return s.Snapshot()
	}

	doc, err := s.gateway.Load(ctx)
	switch {
	case err != nil:
		s.logger.Warn("failed to load saved state, using defaults", "backend", s.gateway.Name(), "err", err)
		return s.Snapshot()
	case doc == nil:
		s.logger.Info("no saved state found, using defaults", "backend", s.gateway.Name())
		return s.Snapshot()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = doc.State()
	s.logger.Debug("loaded state", "backend", s.gateway.Name(), "library", len(s.state.Library), "wishlist", len(s.state.Wishlist))
	return s.state.Clone()
}

// Flush waits until all effective mutations have been handed to the gateway.
func (s *Store) Flush(ctx context.Context) error {
	if s.syncer == nil {
		return nil
	}
	return s.syncer.Flush(ctx)
}

// Close flushes and stops background saving.
func (s *Store) Close(ctx context.Context) error {
	if s.syncer == nil {
		return nil
	}
	return s.syncer.Close(ctx)
}

// LastSaveError returns the error of the most recent save attempt.
func (s *Store) LastSaveError() error {
	if s.syncer == nil {
		return nil
	}
	return s.syncer.LastError()
}

// mutate applies fn under the write lock and schedules a save when fn reports a change.
//
// The snapshot is enqueued before the lock is released so save versions follow mutation order.
func (s *Store) mutate(op string, fn func(st *models.State) bool) models.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !fn(&s.state) {
		return s.state.Clone()
	}

	snap := s.state.Clone()
	if s.syncer != nil {
		s.syncer.Enqueue(snap.Document())
	}
	s.logger.Debug("state changed", "op", op)
	return snap
}

func indexOf(books []models.Book, id string) int {
	return slices.IndexFunc(books, func(b models.Book) bool { return b.ID == id })
}

func prepend(books []models.Book, b models.Book) []models.Book {
	return append([]models.Book{b.Clone()}, books...)
}

// AddToLibrary inserts book at the front of the library unless its id is already there.
func (s *Store) AddToLibrary(book models.Book) models.State {
	return s.mutate("add_to_library", func(st *models.State) bool {
		if shared.IsBlank(book.ID) || indexOf(st.Library, book.ID) >= 0 {
			return false
		}
		st.Library = prepend(st.Library, book)
		return true
	})
}

// RemoveFromLibrary removes the library entry with id.
func (s *Store) RemoveFromLibrary(id string) models.State {
	return s.mutate("remove_from_library", func(st *models.State) bool {
		i := indexOf(st.Library, id)
		if i < 0 {
			return false
		}
		st.Library = slices.Delete(st.Library, i, i+1)
		return true
	})
}

// UpdateBook merges the supplied fields into the library entry with id, keeping its position.
func (s *Store) UpdateBook(id string, update models.BookUpdate) models.State {
	return s.mutate("update_book", func(st *models.State) bool {
		i := indexOf(st.Library, id)
		if i < 0 || update.IsEmpty() {
			return false
		}
		st.Library[i] = update.Apply(st.Library[i])
		return true
	})
}

// AddToWishlist inserts book at the front of the wishlist unless its id is in the wishlist or the library.
func (s *Store) AddToWishlist(book models.Book) models.State {
	return s.mutate("add_to_wishlist", func(st *models.State) bool {
		if shared.IsBlank(book.ID) || indexOf(st.Wishlist, book.ID) >= 0 || indexOf(st.Library, book.ID) >= 0 {
			return false
		}
		st.Wishlist = prepend(st.Wishlist, book)
		return true
	})
}

// RemoveFromWishlist removes the wishlist entry with id.
func (s *Store) RemoveFromWishlist(id string) models.State {
	return s.mutate("remove_from_wishlist", func(st *models.State) bool {
		i := indexOf(st.Wishlist, id)
		if i < 0 {
			return false
		}
		st.Wishlist = slices.Delete(st.Wishlist, i, i+1)
		return true
	})
}

// MoveToLibrary removes the wishlist entry with id, merges update over it and
// inserts the result at the front of the library. Tags carry over unless supplied.
// An existing library entry with the same id is replaced.
func (s *Store) MoveToLibrary(id string, update models.BookUpdate) models.State {
	return s.mutate("move_to_library", func(st *models.State) bool {
		i := indexOf(st.Wishlist, id)
		if i < 0 {
			return false
		}
		merged := update.Apply(st.Wishlist[i])
		st.Wishlist = slices.Delete(st.Wishlist, i, i+1)

		if j := indexOf(st.Library, id); j >= 0 {
			st.Library = slices.Delete(st.Library, j, j+1)
		}
		st.Library = prepend(st.Library, merged)
		return true
	})
}

// addUnique appends v to set unless it is blank or present.
func addUnique(set *[]string, v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || slices.Contains(*set, v) {
		return false
	}
	*set = append(*set, v)
	return true
}

// removeValue deletes every occurrence of v from set.
func removeValue(set *[]string, v string) bool {
	v = strings.TrimSpace(v)
	before := len(*set)
	*set = slices.DeleteFunc(*set, func(x string) bool { return x == v })
	return len(*set) != before
}

// AddTag adds tag to the tag pool.
func (s *Store) AddTag(tag string) models.State {
	return s.mutate("add_tag", func(st *models.State) bool { return addUnique(&st.Tags, tag) })
}

// RemoveTag removes tag from the tag pool. Books keep the tag.
func (s *Store) RemoveTag(tag string) models.State {
	return s.mutate("remove_tag", func(st *models.State) bool { return removeValue(&st.Tags, tag) })
}

// FollowAuthor adds name to the followed authors.
func (s *Store) FollowAuthor(name string) models.State {
	return s.mutate("follow_author", func(st *models.State) bool { return addUnique(&st.Following, name) })
}

// UnfollowAuthor removes name from the followed authors. The author's profile is kept.
func (s *Store) UnfollowAuthor(name string) models.State {
	return s.mutate("unfollow_author", func(st *models.State) bool { return removeValue(&st.Following, name) })
}

// AddTopic adds topic to the followed topics.
func (s *Store) AddTopic(topic string) models.State {
	return s.mutate("add_topic", func(st *models.State) bool { return addUnique(&st.Topics, topic) })
}

// RemoveTopic removes topic from the followed topics.
func (s *Store) RemoveTopic(topic string) models.State {
	return s.mutate("remove_topic", func(st *models.State) bool { return removeValue(&st.Topics, topic) })
}

// UpdateAuthorProfile creates or updates the profile of name with the supplied fields.
func (s *Store) UpdateAuthorProfile(name string, update models.ProfileUpdate) models.State {
	name = strings.TrimSpace(name)
	return s.mutate("update_author_profile", func(st *models.State) bool {
		if name == "" {
			return false
		}
		current, exists := st.AuthorProfiles[name]
		next := update.Apply(current)
		if exists && next == current {
			return false
		}
		st.AuthorProfiles[name] = next
		return true
	})
}

// ImportData replaces library, wishlist, tags, following and topics with doc.
// Absent collections fall back to defaults; author profiles are left untouched.
func (s *Store) ImportData(doc *models.Document) models.State {
	return s.mutate("import_data", func(st *models.State) bool {
		if doc == nil {
			return false
		}
		imported := doc.State()
		st.Library = imported.Library
		st.Wishlist = imported.Wishlist
		st.Tags = imported.Tags
		st.Following = imported.Following
		st.Topics = imported.Topics
		return true
	})
}

// Reset restores every collection, including author profiles, to its default.
func (s *Store) Reset() models.State {
	return s.mutate("reset", func(st *models.State) bool {
		*st = models.DefaultState()
		return true
	})
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() models.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Location tells which collection holds a book.
type Location int

const (
	Nowhere Location = iota
	InLibrary
	InWishlist
)

func (l Location) String() string {
	switch l {
	case InLibrary:
		return "library"
	case InWishlist:
		return "wishlist"
	default:
		return "none"
	}
}

// Book looks id up in the library, then the wishlist.
func (s *Store) Book(id string) (models.Book, Location) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := indexOf(s.state.Library, id); i >= 0 {
		return s.state.Library[i].Clone(), InLibrary
	}
	if i := indexOf(s.state.Wishlist, id); i >= 0 {
		return s.state.Wishlist[i].Clone(), InWishlist
	}
	return models.Book{}, Nowhere
}

// LibraryTitles returns the titles of every library book, used to exclude owned books from recommendations.
func (s *Store) LibraryTitles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	titles := make([]string, len(s.state.Library))
	for i, b := range s.state.Library {
		titles[i] = b.Title()
	}
	return titles
}

// Profile returns the profile stored for name.
func (s *Store) Profile(name string) (models.AuthorProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.AuthorProfiles[strings.TrimSpace(name)]
	return p, ok
}
