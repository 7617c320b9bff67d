package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPSink sends outcome e-mails to the seller's address
type SMTPSink struct {
	dialer *gomail.Dialer
	from   string
	to     string
}

func NewSMTPSink(host string, port int, username, password, from, to string) *SMTPSink {
	return &SMTPSink{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		to:     to,
	}
}

func (s *SMTPSink) Notify(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to)

	switch ev.Outcome {
	case OutcomePublished:
		m.SetHeader("Subject", fmt.Sprintf("Annonce publiée sur %s : %s", ev.Platform, ev.Title))
		m.SetBody("text/html", fmt.Sprintf(
			"<p>Votre annonce <b>%s</b> est en ligne sur %s.</p><p><a href=%q>Voir l'annonce</a></p>",
			ev.Title, ev.Platform, ev.URL,
		))
	default:
		m.SetHeader("Subject", fmt.Sprintf("Échec de publication sur %s : %s", ev.Platform, ev.Title))
		m.SetBody("text/html", fmt.Sprintf(
			"<p>La publication de <b>%s</b> sur %s a échoué après %d tentative(s).</p><pre>%s</pre>",
			ev.Title, ev.Platform, ev.Attempts, ev.Detail,
		))
	}

	return s.dialer.DialAndSend(m)
}
