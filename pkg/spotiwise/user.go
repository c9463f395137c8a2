package spotiwise

import (
	"fmt"
	"sync"

	"github.com/mitchellh/hashstructure/v2"
)

// User is a Spotify user profile. Users are shared across the object
// graph through a UserRegistry.
type User struct {
	Object
	ID           string            `json:"id"`
	DisplayName  string            `json:"display_name"`
	Images       []Image           `json:"images"`
	Followers    Followers         `json:"followers"`
	ExternalURLs map[string]string `json:"external_urls"`
}

var userKeys = []string{"display_name"}

// userKey is the composite identity of a User.
type userKey struct {
	ID          string
	DisplayName string
	Type        string
	URI         string
}

func (u *User) key() userKey {
	return userKey{ID: u.ID, DisplayName: u.DisplayName, Type: u.Type, URI: u.URI}
}

func (u *User) Kind() Kind { return KindUser }

// Equal compares id, display name, type and uri.
func (u *User) Equal(o *User) bool {
	if u == nil || o == nil {
		return u == o
	}
	return u.key() == o.key()
}

// Hash returns a stable hash of the composite identity key.
func (u *User) Hash() uint64 {
	h, err := hashstructure.Hash(u.key(), hashstructure.FormatV2, nil)
	if err != nil {
		// userKey holds only strings; hashing cannot fail.
		panic(fmt.Sprintf("spotiwise: hash user: %v", err))
	}
	return h
}

// String returns the display name.
func (u *User) String() string { return u.DisplayName }

func (u *User) kindName() string       { return "User" }
func (u *User) displayKeys() []string { return userKeys }

func (u *User) displayValue(key string) interface{} {
	switch key {
	case "display_name":
		return u.DisplayName
	}
	return nil
}

// placeholderName is used when a profile carries no display name.
func placeholderName(id string) string {
	return "__" + id + "__"
}

// UserRegistry deduplicates users by id for the lifetime of a session.
// The first User registered for an id is returned for every later lookup;
// field values passed afterwards are ignored. There is no eviction, so a
// long-running process should scope a registry to a unit of work.
type UserRegistry struct {
	mu    sync.Mutex
	users map[string]*User
}

// NewUserRegistry returns an empty registry.
func NewUserRegistry() *UserRegistry {
	return &UserRegistry{users: make(map[string]*User)}
}

// GetOrCreate returns the User registered under u.ID, registering a copy of
// u if the id is new. A missing display name is replaced by a placeholder.
func (r *UserRegistry) GetOrCreate(u User) (*User, error) {
	if u.ID == "" {
		return nil, ErrMissingID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.users[u.ID]; ok {
		return existing, nil
	}
	if u.DisplayName == "" {
		u.DisplayName = placeholderName(u.ID)
	}
	user := &u
	r.users[u.ID] = user
	return user, nil
}

// Lookup returns the registered user for id, if any.
func (r *UserRegistry) Lookup(id string) (*User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	return u, ok
}

// Len returns the number of registered users.
func (r *UserRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}
