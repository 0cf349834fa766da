package services

import (
  "testing"

  "github.com/stretchr/testify/assert"
)

func TestSanitizePhoneNumber(t *testing.T) {
  cases := []struct {
    name    string
    in      string
    want    string
    ok      bool
  }{
    {name: "plain digits", in: "5551234567", want: "5551234567", ok: true},
    {name: "e164", in: "+15551234567", want: "+15551234567", ok: true},
    {name: "formatted", in: "+1 (555) 123-4567", want: "+15551234567", ok: true},
    {name: "dotted", in: "555.123.4567", want: "5551234567", ok: true},
    {name: "plus not leading", in: "555+1234567", ok: false},
    {name: "letters", in: "555-CALL-NOW", ok: false},
    {name: "too short", in: "123456", ok: false},
    {name: "empty", in: "", ok: false},
  }

  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      got, ok := sanitizePhoneNumber(tc.in)
      assert.Equal(t, tc.ok, ok)
      if tc.ok {
        assert.Equal(t, tc.want, got)
      }
    })
  }
}
