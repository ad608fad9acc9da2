// Package mailer ships the notification collaborator: an SMTP sender for
// verification emails plus a Func adapter for custom delivery mechanisms.
package mailer
