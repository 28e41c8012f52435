// Package notifications defines the out-of-band messages the marketplace
// sends: invite mails to prospective staff and Slack pings for operators.
// Channel selection is data-driven; a notification whose channels are not
// configured simply goes nowhere.
package notifications

import (
	"fmt"

	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/config"
	"github.com/tradeyard/tradeyard/pkg/notification"
)

// slackConfigured reports whether an incoming webhook is set. Notifications
// drop their slack channel instead of producing a delivery error on every
// send when it is not.
func slackConfigured() bool {
	return config.Get("SLACK_WEBHOOK_URL", "") != ""
}

// ─── StaffInvited ─────────────────────────────────────────────────────────────

// StaffInvited is sent when a store invites an address to join its staff.
// The invitee gets the mail; operators get a Slack ping when configured.
type StaffInvited struct {
	Store models.Store
	Email string
	Role  string
}

func (n *StaffInvited) Via() []string {
	channels := []string{"mail"}
	if slackConfigured() {
		channels = append(channels, "slack")
	}
	return channels
}

func (n *StaffInvited) ToMail() notification.MailData {
	return notification.MailData{
		Subject: "You have been invited to " + n.Store.Name,
		Body: "<p>You have been invited to join <strong>" + n.Store.Name + "</strong> as " + n.Role +
			".</p><p>Sign in and redeem your invite token to accept.</p>",
	}
}

func (n *StaffInvited) ToSlack() notification.SlackData {
	return notification.SlackData{
		Text: fmt.Sprintf("Staff invite sent for %s: %s as %s", n.Store.Name, n.Email, n.Role),
	}
}

// ─── StrandedAssetsSwept ──────────────────────────────────────────────────────

// StrandedAssetsSwept tells operators the nightly sweep found objects on the
// storage disk that no record references. Slack only; without a webhook the
// sweep stays silent and the log line is all there is.
type StrandedAssetsSwept struct {
	Count int
}

func (n *StrandedAssetsSwept) Via() []string {
	if !slackConfigured() {
		return nil
	}
	return []string{"slack"}
}

func (n *StrandedAssetsSwept) ToSlack() notification.SlackData {
	return notification.SlackData{
		Text: "Asset sweep queued stranded objects for cleanup",
		Attachments: []notification.SlackAttachment{{
			Color: "warning",
			Text:  fmt.Sprintf("%d objects were referenced by no store, category or product", n.Count),
		}},
	}
}
