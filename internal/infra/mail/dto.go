package mail

import "gopkg.in/gomail.v2"

type LeadEmailData struct {
	CustomerName string
	Title        string
	Category     string
	StatusLabel  string
	LeadID       string
}

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailSender struct {
	Host        string
	Port        int
	User        string
	Password    string
	From        string
	NotifyInbox string
	dialer      Dialer
}
