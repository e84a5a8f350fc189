package main

import "context"

type ImageDescriptor struct {
	Url string `json:"url"`
}

type ImageFetcher interface {
	FetchImage(ctx context.Context) (ImageDescriptor, error)
	Type() string
}
