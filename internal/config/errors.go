package config

import "errors"

// ErrMissingEnv indicates required credentials were not provided.
var ErrMissingEnv = errors.New("missing required environment variables")

// ErrInvalidURL indicates the project URL is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid project URL")
