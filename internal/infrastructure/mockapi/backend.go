// Package mockapi is an in-memory stand-in for the inventory REST backend.
// It keeps users, sites, categories, spare parts and stock transactions in
// process memory and applies the backend's rules to them: JWT logins,
// own-site visibility, unique part names per site, stock movements that
// adjust quantities and auto-create parts by name.
//
// The HTTP surface lives in internal/infrastructure/http/v1.
package mockapi

import (
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"spareparts/internal/core/id"
	"spareparts/internal/domain/inventory"
)

// Defaults applied by the backend when a value is not supplied.
const (
	DefaultPageSize        = 20
	DefaultModel           = "UNKNOWN"
	DefaultAlarmQty        = 5
	DefaultProcurementDays = 7
	DefaultLocation        = "unspecified"
	UncategorizedName      = "Uncategorized"
	MediaPrefix            = "/media/spare_parts/"
)

// Options tunes a Backend.
type Options struct {
	// ResultsStyle serves paginated lists in the framework-default
	// {count, next, previous, results} form, without the envelope.
	ResultsStyle bool
	// BcryptCost is used for password hashes; bcrypt.DefaultCost when zero.
	BcryptCost int
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

// User is a backend account.
type User struct {
	ID              id.ID
	Username        string
	Email           string
	PasswordHash    string
	SiteID          id.ID // "" when the user has no site
	IsActive        bool
	CanEditOwnSite  bool
	CanViewAllSites bool
	CanManageUsers  bool
}

// Backend is the in-memory backend state. All methods are safe for
// concurrent use.
type Backend struct {
	opts Options

	mu           sync.RWMutex
	users        map[id.ID]*User
	sites        []inventory.Site
	categories   []inventory.Category
	parts        map[id.ID]*inventory.SparePart
	transactions []inventory.Transaction
	images       map[string][]byte
	seq          map[string]int64
}

// New creates an empty Backend.
func New(opts Options) *Backend {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Backend{
		opts:   opts,
		users:  make(map[id.ID]*User),
		parts:  make(map[id.ID]*inventory.SparePart),
		images: make(map[string][]byte),
		seq:    make(map[string]int64),
	}
}

// Options returns the options the backend was created with.
func (b *Backend) Options() Options {
	return b.opts
}

// nextID must be called with mu held.
func (b *Backend) nextID(kind string) id.ID {
	b.seq[kind]++
	return id.FromInt(b.seq[kind])
}

func (b *Backend) timestamp() string {
	return b.opts.Now().UTC().Format(time.RFC3339)
}

// AddUser registers an account with a bcrypt-hashed password.
func (b *Backend) AddUser(u User, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.opts.BcryptCost)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	u.ID = b.nextID("user")
	u.PasswordHash = string(hash)
	b.users[u.ID] = &u
	cp := u
	return &cp, nil
}

// AddSite registers a site.
func (b *Backend) AddSite(name, code string) inventory.Site {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := inventory.Site{ID: b.nextID("site"), Name: name, Code: code}
	b.sites = append(b.sites, s)
	sort.Slice(b.sites, func(i, j int) bool { return b.sites[i].Code < b.sites[j].Code })
	return s
}

// Sites returns every site ordered by code.
func (b *Backend) Sites() []inventory.Site {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]inventory.Site{}, b.sites...)
}

// site must be called with mu held.
func (b *Backend) site(siteID id.ID) (inventory.Site, bool) {
	for _, s := range b.sites {
		if s.ID == siteID {
			return s, true
		}
	}
	return inventory.Site{}, false
}

// category must be called with mu held.
func (b *Backend) category(categoryID id.ID) (inventory.Category, bool) {
	for _, c := range b.categories {
		if c.ID == categoryID {
			return c, true
		}
	}
	return inventory.Category{}, false
}
