package main

import (
	"crypto/subtle"
	"database/sql"
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/apibillme/cache"
	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db        *sql.DB
	log       *log.Logger
	userCache cache.Cache
}

const userTable string = `
  CREATE TABLE IF NOT EXISTS users (
      user TEXT NOT NULL PRIMARY KEY,
      hash TEXT NOT NULL,
      level INT NOT NULL
  )
`

const dbFile string = "data/catpage.db"

func NewStore(cfg *Config) (*Store, error) {
	logger := log.New(os.Stderr, "(store) ", log.LstdFlags)

	filename := dbFile
	if cfg.Database != "" {
		filename = cfg.Database
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", "file:"+filename)
	if err != nil {
		return nil, err
	}
	if _, err = db.Exec(userTable); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:        db,
		log:       logger,
		userCache: cache.New(256, cache.WithTTL(1*time.Hour)),
	}, nil
}

func (store *Store) Close() error {
	return store.db.Close()
}

func (store *Store) AddUser(user string, pass string, level int) error {
	if user == "" || pass == "" {
		return errors.New("user and password must not be empty")
	}
	hash, err := argon2id.CreateHash(pass, argon2id.DefaultParams)
	if err != nil {
		return err
	}
	_, err = store.db.Exec("INSERT OR REPLACE INTO users (user, hash, level) VALUES (?,?,?)",
		user,
		hash,
		level,
	)
	return err
}

// cachedLogin remembers a verified password together with the hash it was
// checked against, so a replaced hash invalidates it in every process.
type cachedLogin struct {
	hash string
	pass string
}

func (store *Store) TestUser(user string, pass string) bool {
	row := store.db.QueryRow("SELECT hash FROM users WHERE user = ?", user)
	var hash string
	if err := row.Scan(&hash); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			store.log.Println(err.Error())
		}
		return false
	}
	if v, ok := store.userCache.Get(user); ok {
		login, ok := v.(cachedLogin)
		if ok && login.hash == hash && 1 == subtle.ConstantTimeCompare([]byte(login.pass), []byte(pass)) {
			return true
		}
	}
	match, err := argon2id.ComparePasswordAndHash(pass, hash)
	if err != nil {
		store.log.Println("Error comparing password hashes", err.Error())
		return false
	}
	if match {
		store.userCache.Set(user, cachedLogin{hash: hash, pass: pass})
	}
	return match
}
