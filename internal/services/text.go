package services

import (
  "context"
  "fmt"
  "os"
  "strings"
  "unicode"

  twilio "github.com/twilio/twilio-go"
  openapi "github.com/twilio/twilio-go/rest/api/v2010"

  "github.com/castly-org/castly-backend/internal/logger"
)

// TextService delivers character share links over SMS.
type TextService interface {
  SendText(ctx context.Context, toNumber string, body string) error
}

type textService struct {
  log         *logger.Logger
  client      *twilio.RestClient
  fromNumber  string
}

func NewTextService(log *logger.Logger) (TextService, error) {
  serviceLog := log.With("service", "TextService")
  accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
  authToken := os.Getenv("TWILIO_AUTH_TOKEN")
  fromNumber := os.Getenv("TWILIO_FROM_NUMBER")

  if accountSid == "" || authToken == "" || fromNumber == "" {
    return nil, fmt.Errorf("Missing Twilio env variables: TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_FROM_NUMBER")
  }

  client := twilio.NewRestClientWithParams(twilio.ClientParams{
    Username: accountSid,
    Password: authToken,
  })
  serviceLog.Info("TextService ready to send share texts :)", "fromNumber", fromNumber)

  return &textService{
    log:        serviceLog,
    client:     client,
    fromNumber: fromNumber,
  }, nil
}

func (ts *textService) SendText(ctx context.Context, toNumber string, body string) error {
  //1) Make sure the recipient number is dialable before touching Twilio
  recipient, ok := sanitizePhoneNumber(toNumber)
  if !ok {
    ts.log.Warn("Recipient number failed sanity check, Cannot proceed. Returning error.", "toNumber", toNumber)
    return fmt.Errorf("recipient phone number %q is not dialable", toNumber)
  }

  //2) Hand the share text to Twilio
  params := &openapi.CreateMessageParams{}
  params.SetTo(recipient)
  params.SetFrom(ts.fromNumber)
  params.SetBody(body)

  resp, err := ts.client.Api.CreateMessage(params)
  if err != nil {
    ts.log.Warn("Twilio rejected the share text, Cannot proceed. Returning error.", "toNumber", recipient, "error", err)
    return err
  }
  ts.log.Info("Share text sent :)", "toNumber", recipient, "sid", *resp.Sid, "status", *resp.Status)
  return nil
}

// sanitizePhoneNumber strips formatting punctuation and keeps an optional
// leading plus. Anything without at least seven digits is not dialable.
func sanitizePhoneNumber(raw string) (string, bool) {
  var sb strings.Builder
  digits := 0
  for i, r := range raw {
    switch {
    case r == '+' && i == 0:
      sb.WriteRune(r)
    case unicode.IsDigit(r):
      sb.WriteRune(r)
      digits++
    case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
      // formatting only, dropped
    default:
      return "", false
    }
  }
  if digits < 7 {
    return "", false
  }
  return sb.String(), true
}
