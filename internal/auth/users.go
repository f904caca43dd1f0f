package auth

import (
	"errors"
	"strings"
	"sync"

	"ms-busbooking/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
)

// DemoUser owns the seeded booking history.
var DemoUser = models.User{
	ID:         "user001",
	Name:       "John Doe",
	Email:      "john.doe@example.com",
	ProfilePic: "https://images.pexels.com/photos/2379005/pexels-photo-2379005.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=2",
}

// Directory is the mock user store behind login. Any non-empty email and
// password pair signs in unless the email was registered, in which case the
// password must match its bcrypt hash. The user id is derived from the email
// so it is stable across restarts.
type Directory struct {
	mu        sync.RWMutex
	users     map[string]models.User
	passwords map[string][]byte
	cost      int
}

func NewDirectory() *Directory {
	return &Directory{
		users:     map[string]models.User{DemoUser.ID: DemoUser},
		passwords: make(map[string][]byte),
		cost:      bcrypt.DefaultCost,
	}
}

func userIDFor(email string) string {
	if strings.EqualFold(email, DemoUser.Email) {
		return DemoUser.ID
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(email))).String()
}

func (d *Directory) Login(email, password string) (models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.User{}, ErrInvalidCredentials
	}
	id := userIDFor(email)

	d.mu.RLock()
	hash, registered := d.passwords[id]
	d.mu.RUnlock()
	if registered && bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return d.ensure(id, "", email), nil
}

func (d *Directory) Register(name, email, password string) (models.User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return models.User{}, ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return models.User{}, err
	}

	id := userIDFor(email)
	d.mu.Lock()
	if _, taken := d.passwords[id]; taken {
		d.mu.Unlock()
		return models.User{}, ErrEmailTaken
	}
	d.passwords[id] = hash
	d.mu.Unlock()
	return d.ensure(id, name, email), nil
}

func (d *Directory) ensure(id, name, email string) models.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[id]; ok {
		return u
	}
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	u := models.User{ID: id, Name: name, Email: email}
	d.users[id] = u
	return u
}

func (d *Directory) Profile(id string) (models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return u, nil
}

// UpdateProfile applies the non-empty fields of update. The id cannot change.
func (d *Directory) UpdateProfile(id string, update models.User) (models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	if update.Name != "" {
		u.Name = update.Name
	}
	if update.Email != "" {
		u.Email = update.Email
	}
	if update.Phone != "" {
		u.Phone = update.Phone
	}
	if update.ProfilePic != "" {
		u.ProfilePic = update.ProfilePic
	}
	d.users[id] = u
	return u, nil
}
