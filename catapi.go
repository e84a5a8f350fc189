package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

const catApiUrl string = "https://api.thecatapi.com/v1/images/search"

type CatApi struct {
	Http    http.Client
	apiKey  string
	baseUrl string
	log     *log.Logger
}

func NewCatApi(cfg *Config) *CatApi {
	baseUrl := catApiUrl
	if cfg.CatApi.Url != "" {
		baseUrl = cfg.CatApi.Url
	}
	timeout := 10 * time.Second
	if cfg.CatApi.Timeout > 0 {
		timeout = time.Duration(cfg.CatApi.Timeout) * time.Second
	}
	return &CatApi{
		Http:    http.Client{Timeout: timeout},
		apiKey:  cfg.CatApi.Key,
		baseUrl: baseUrl,
		log:     log.New(os.Stderr, "(catapi) ", log.LstdFlags),
	}
}

func (api *CatApi) Type() string {
	return "thecatapi"
}

// FetchImage issues one GET against images/search and returns the first image.
// There is no retry; errors are *TransportError or *ShapeError.
func (api *CatApi) FetchImage(ctx context.Context) (ImageDescriptor, error) {
	start := time.Now()
	image, err := api.fetch(ctx)
	RecordFetch(api.Type(), fetchStatus(err), time.Since(start).Seconds())
	return image, err
}

func (api *CatApi) fetch(ctx context.Context) (ImageDescriptor, error) {
	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, api.baseUrl, nil)
	if err != nil {
		api.log.Println("Failed to create http request:", err)
		return ImageDescriptor{}, &TransportError{Op: "create request", Err: err}
	}
	if api.apiKey != "" {
		getReq.Header.Set("x-api-key", api.apiKey)
	}
	res, err := api.Http.Do(getReq)
	if err != nil {
		api.log.Println("Failed to fetch:", err)
		return ImageDescriptor{}, &TransportError{Op: "fetch", Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		api.log.Println("Failed to read response:", err)
		return ImageDescriptor{}, &TransportError{Op: "read response", Err: err}
	}
	image, err := DecodeImage(body)
	if err != nil {
		api.log.Printf("Rejected response (status %d): %v", res.StatusCode, err)
		return ImageDescriptor{}, err
	}
	return image, nil
}

func fetchStatus(err error) string {
	var shapeErr *ShapeError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &shapeErr):
		return shapeErr.Code
	default:
		return ErrCodeTransport
	}
}
