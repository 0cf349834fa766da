package services

import (
  "errors"
)

// ErrNotFound covers both a missing entity and an entity the caller does not
// own, so an unauthorized probe cannot learn whether the id exists.
var ErrNotFound = errors.New("not found")

// ErrValidation marks a rejected input before any persistence happens.
var ErrValidation = errors.New("validation failed")

// ErrUpstream marks a failed or unusable language-model response.
var ErrUpstream = errors.New("upstream model call failed")
