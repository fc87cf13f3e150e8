package authentication

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gopkg.in/gomail.v2"

	"github.com/AmyVerse/ayursutra-web-sub001/models"
)

const OTPLength = 6

// GenerateOTP returns a numeric code of the given length from crypto/rand.
func GenerateOTP(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// ChannelFor picks email when the identifier looks like an address, SMS otherwise.
func ChannelFor(identifier string) models.OTPChannel {
	if strings.Contains(identifier, "@") {
		return models.ChannelEmail
	}
	return models.ChannelSMS
}

type OTPSender interface {
	SendOTP(ctx context.Context, recipient, code string, ttl time.Duration) error
}

func otpMessage(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your AyurSutra verification code is %s. It expires in %d minutes.",
		code, int(ttl.Round(time.Minute)/time.Minute))
}

type EmailSender struct {
	from    string
	deliver func(*gomail.Message) error
}

func NewEmailSender(host string, port int, user, pass, from string) *EmailSender {
	dialer := gomail.NewDialer(host, port, user, pass)
	return &EmailSender{from: from, deliver: func(m *gomail.Message) error {
		return dialer.DialAndSend(m)
	}}
}

func (s *EmailSender) SendOTP(ctx context.Context, recipient, code string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", "AyurSutra verification code")
	m.SetBody("text/plain", otpMessage(code, ttl))
	if err := s.deliver(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type SMSSender struct {
	from   string
	client messageCreator
}

func NewSMSSender(accountSID, authToken, from string) *SMSSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &SMSSender{from: from, client: client.Api}
}

func (s *SMSSender) SendOTP(ctx context.Context, recipient, code string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(s.from)
	params.SetBody(otpMessage(code, ttl))
	if _, err := s.client.CreateMessage(params); err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	return nil
}
