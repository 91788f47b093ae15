// Package mail delivers account-confirmation email.  Handlers publish a
// small event to the message broker and an in-process consumer sends the
// actual SMTP message, keeping mail delivery off the request path.
package mail

// ConfirmationRequested is published whenever a confirmation mail should go
// out (signup or an explicit re-request).  It carries everything the
// consumer needs to compose the message without touching the database.
type ConfirmationRequested struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	Token       string `json:"token"`
	RequestedAt string `json:"requested_at"`
}
