package main

import "encoding/json"

// isImage reports whether value is a JSON object carrying a string "url".
func isImage(value any) bool {
	obj, ok := value.(map[string]any)
	if !ok || obj == nil {
		return false
	}
	url, ok := obj["url"]
	if !ok {
		return false
	}
	_, ok = url.(string)
	return ok
}

// DecodeImage validates an untrusted images/search body and returns its first image.
func DecodeImage(body []byte) (ImageDescriptor, error) {
	var images any
	if err := json.Unmarshal(body, &images); err != nil {
		return ImageDescriptor{}, &TransportError{Op: "decode response", Err: err}
	}
	list, ok := images.([]any)
	if !ok || len(list) == 0 {
		return ImageDescriptor{}, ErrNotArray
	}
	image := list[0]
	if !isImage(image) {
		return ImageDescriptor{}, ErrMalformedImage
	}
	return ImageDescriptor{Url: image.(map[string]any)["url"].(string)}, nil
}
