package funnel

import "fmt"

// Texts renders the SMS copy sent to leads. Brand, site, and support
// contact come from configuration so the copy is not hard-wired to one
// campaign.
type Texts struct {
	Brand        string
	SiteURL      string
	SupportEmail string
	Pledge       string
}

// Welcome is the first SMS, carrying the lead's referral link.
func (t Texts) Welcome(linkURL string) string {
	return fmt.Sprintf(
		"%s: Here's your unique referral link:\n%s\n\n1) Open link 2) Sign up 3) Deposit $5 4) Reply DONE here.\nMsg&data rates may apply. Reply HELP for help, STOP to opt out.",
		t.Brand, linkURL,
	)
}

// Help answers a HELP keyword.
func (t Texts) Help() string {
	return fmt.Sprintf(
		"%s help: We text your link, you sign up & deposit $5, then reply DONE and send a screenshot. Questions? %s. Reply STOP to opt out.",
		t.Brand, t.SupportEmail,
	)
}

// AskForScreenshot answers a DONE keyword from a known lead.
func (t Texts) AskForScreenshot() string {
	return "Great! Please reply with an MMS screenshot showing your $5 deposit so we can verify."
}

// NotFound answers a DONE keyword from an unknown number.
func (t Texts) NotFound() string {
	return fmt.Sprintf("We couldn't find your number in our system. Please resubmit the form at %s", t.SiteURL)
}

// Verified confirms a successful proof-of-deposit.
func (t Texts) Verified(payoutHandle string) string {
	return fmt.Sprintf(
		"Thanks! We received your screenshot and marked you VERIFIED. We'll send your $%s payout to %s soon.",
		t.Pledge, payoutHandle,
	)
}
