package managers

import (
	"context"
	"fmt"
	"time"

	"diagram-hub/internal/config"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/matcornic/hermes/v2"
	log "github.com/sirupsen/logrus"
)

// MailMgr is an interface that outlines the contract for email management.
type MailMgr interface {
	SendOTPMail(email, name, otp string) error
}

// MailManager formats mails with Hermes and sends them through Mailgun.
// Outside production mails are only logged.
type MailManager struct {
	Hermes     *hermes.Hermes
	Mailgun    *mailgun.MailgunImpl
	from       string
	production bool
	otpTTL     time.Duration
}

// SendOTPMail sends the one-time password for a password reset.
func (mm *MailManager) SendOTPMail(email, name, otp string) error {
	if !mm.production {
		log.Info("Skipping OTP mail in development mode")
		return nil
	}

	mailBody := hermes.Email{
		Body: hermes.Body{
			Name: name,
			Intros: []string{
				"We received a request to reset the password of your Diagram Hub account.",
			},
			Actions: []hermes.Action{
				{
					Instructions: fmt.Sprintf("Enter the following code to choose a new password. It expires in %s.", mm.otpTTL),
					InviteCode:   otp,
				},
			},
			Outros: []string{
				"If you did not request a password reset, you can ignore this mail.",
			},
		},
	}

	emailBody, err := mm.Hermes.GenerateHTML(mailBody)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	message := mm.Mailgun.NewMessage(mm.from, "Your password reset code", "", email)
	message.SetHtml(emailBody)
	_, _, err = mm.Mailgun.Send(ctx, message)
	if err != nil {
		log.Warning("Error sending OTP mail: " + err.Error())
		return err
	}
	log.Debug("OTP mail sent to ", email)

	return nil
}

// NewMailManager initializes a MailManager with the configured Mailgun domain and Hermes theme.
func NewMailManager(cfg config.MailConfig, environment string, otpTTL time.Duration) MailMgr {
	log.Info("Initializing mail manager")

	production := environment == "production"
	if !production {
		log.Println("Running in development mode, email will not be sent to users")
	}

	mailgunInstance := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	mailgunInstance.SetAPIBase(mailgun.APIBaseEU)

	mm := &MailManager{
		Hermes: &hermes.Hermes{
			Theme:         new(hermes.Default),
			TextDirection: hermes.TDLeftToRight,
			Product: hermes.Product{
				Name:        "Diagram Hub",
				Link:        "https://diagram-hub.dev/",
				Copyright:   "© Diagram Hub",
				TroubleText: "If you’re having trouble with the button '{ACTION}', copy and paste the URL below into your web browser.",
			},
		},
		Mailgun:    mailgunInstance,
		from:       cfg.From,
		production: production,
		otpTTL:     otpTTL,
	}
	log.Info("Initialized mail manager")
	return mm
}
