package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type Config struct {
	Server struct {
		Addr string `json:"addr"`
	} `json:"server"`
	CatApi struct {
		Url     string `json:"url"`
		Key     string `json:"key"`
		Timeout int    `json:"timeout"`
	} `json:"thecatapi.com"`
	Pages struct {
		Capacity int `json:"capacity"`
		TTL      int `json:"ttl"`
	} `json:"pages"`
	RateLimit struct {
		PerSecond float64 `json:"perSecond"`
		Burst     int     `json:"burst"`
	} `json:"rateLimit"`
	Auth struct {
		Enabled bool `json:"enabled"`
	} `json:"auth"`
	Database string `json:"database"`
	Debug    struct {
		PrettyJson bool `json:"prettyJson"`
	}
}

const defaultAddr string = ":8081"

func processError(err error) {
	fmt.Println(err.Error())
	os.Exit(2)
}

func loadConfig(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	decoder := json.NewDecoder(f)
	switch err := decoder.Decode(cfg).(type) {
	case nil:
		return nil
	case *json.SyntaxError:
		f.Seek(0, io.SeekStart)
		pos := findPos(bufio.NewReader(f), int(err.Offset))
		return fmt.Errorf("unable to decode configuration file (Line: %d, Pos: %d): %w", pos.line, pos.pos, err)
	default:
		return fmt.Errorf("unable to decode configuration file: %w", err)
	}
}

type FilePos struct {
	line int
	pos  int
}

func findPos(file *bufio.Reader, offset int) FilePos {
	p := FilePos{line: 1, pos: offset}
	var lineLen int
	for line, err := file.ReadBytes('\n'); len(line) > 0 && err == nil; line, err = file.ReadBytes('\n') {
		if p.pos < len(line) {
			return p
		}
		lineLen += len(line)
		if line[len(line)-1] == '\n' {
			p.line += 1
			p.pos -= lineLen
			lineLen = 0
		}
	}
	return p
}

// probe fetches a single image and logs it. Operators run it on purpose;
// nothing fetches at startup.
func probe(api ImageFetcher) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	image, err := api.FetchImage(ctx)
	if err != nil {
		return err
	}
	log.Printf("(probe) %s: %s", api.Type(), image.Url)
	return nil
}

// readPassword takes the first line of r, so passwords stay out of argv.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("no password on stdin")
	}
	return password, nil
}

func main() {
	configPath := flag.String("config", "conf/config.json", "path to the JSON configuration file")
	runProbe := flag.Bool("probe", false, "fetch one image, log it and exit")
	addUser := flag.String("adduser", "", "create or replace a basic auth user, password read from stdin, and exit")
	flag.Parse()

	var cfg Config
	if err := loadConfig(*configPath, &cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			processError(err)
		}
		log.Println("No configuration at", *configPath, "- using defaults")
	}

	api := NewCatApi(&cfg)

	if *runProbe {
		if err := probe(api); err != nil {
			processError(err)
		}
		return
	}

	if *addUser != "" {
		store, err := NewStore(&cfg)
		if err != nil {
			processError(err)
		}
		defer store.Close()
		password, err := readPassword(os.Stdin)
		if err != nil {
			processError(err)
		}
		if err := store.AddUser(*addUser, password, 1); err != nil {
			processError(err)
		}
		log.Println("Stored user", *addUser)
		return
	}

	var store *Store
	if cfg.Auth.Enabled {
		s, err := NewStore(&cfg)
		if err != nil {
			processError(err)
		}
		defer s.Close()
		store = s
	}

	limiter := NewRateLimiter(&cfg)
	defer limiter.Close()
	server := NewServer(&cfg, api, NewPageRegistry(&cfg), store, limiter)

	addr := defaultAddr
	if cfg.Server.Addr != "" {
		addr = cfg.Server.Addr
	}
	log.Println("Starting Server on", addr)
	log.Fatal(http.ListenAndServe(addr, server.Routes()))
}
