package normalization

import (
  "strings"
)

// ParseInputString trims surrounding whitespace and collapses any internal
// run of whitespace down to a single space.
func ParseInputString(in string) string {
  fields := strings.Fields(in)
  return strings.Join(fields, " ")
}

func ParseInputStringPtr(in *string) *string {
  if in == nil {
    return nil
  }
  out := ParseInputString(*in)
  return &out
}

// ParseEmail normalizes an email address for storage and lookup.
func ParseEmail(in string) string {
  return strings.ToLower(ParseInputString(in))
}
