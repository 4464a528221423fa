package devserver

import (
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/wecare/internal/client/models"
)

var (
	errUserExists         = errors.New("username already registered")
	errInvalidCredentials = errors.New("incorrect username or password")
)

type user struct {
	profile models.Profile
	hash    []byte
}

// userStore keeps accounts in memory for the lifetime of the process.
type userStore struct {
	mu     sync.RWMutex
	nextID int64
	byName map[string]*user
	byID   map[int64]*user
	cost   int
}

func newUserStore(cost int) *userStore {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &userStore{
		byName: map[string]*user{},
		byID:   map[int64]*user{},
		cost:   cost,
	}
}

func (s *userStore) register(p models.Profile, password string) (models.Profile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.Profile{}, err
	}

	key := strings.ToLower(p.Username)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[key]; ok {
		return models.Profile{}, errUserExists
	}

	s.nextID++
	p.ID = s.nextID
	u := &user{profile: p, hash: hash}
	s.byName[key] = u
	s.byID[p.ID] = u
	return p, nil
}

func (s *userStore) authenticate(username, password string) (models.Profile, error) {
	s.mu.RLock()
	u, ok := s.byName[strings.ToLower(username)]
	s.mu.RUnlock()
	if !ok {
		return models.Profile{}, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(password)); err != nil {
		return models.Profile{}, errInvalidCredentials
	}
	return u.profile, nil
}

func (s *userStore) get(id int64) (models.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return models.Profile{}, false
	}
	return u.profile, true
}
