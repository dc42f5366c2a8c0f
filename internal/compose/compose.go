package compose

import (
	"context"
	"strings"

	"github.com/leadloft/outreach-backend/internal/model"
)

// Email is a composed outbound message. A zero Email (empty body) is a valid
// composer outcome meaning "nothing to send for this contact".
type Email struct {
	Subject string
	Body    string
}

func (e Email) Empty() bool {
	return strings.TrimSpace(e.Body) == ""
}

// Composer produces the email for one enrolled contact. Implementations must
// be side-effect-free from the executor's point of view.
type Composer interface {
	Compose(ctx context.Context, contactEmail string, campaign *model.Campaign) (Email, error)
}

// ContactSource is the slice of the contact store the template composer needs.
type ContactSource interface {
	GetByEmail(ctx context.Context, email string) (*model.Contact, error)
}

// TemplateComposer renders the campaign's base template with placeholder
// substitution from the contact record.
type TemplateComposer struct {
	Contacts ContactSource
}

func NewTemplateComposer(contacts ContactSource) *TemplateComposer {
	return &TemplateComposer{Contacts: contacts}
}

func (c *TemplateComposer) Compose(ctx context.Context, contactEmail string, campaign *model.Campaign) (Email, error) {
	contact, err := c.Contacts.GetByEmail(ctx, contactEmail)
	if err != nil {
		return Email{}, err
	}

	var firstName, lastName, company string
	if contact != nil {
		firstName = contact.FirstName
		lastName = contact.LastName
		company = contact.Company
	}

	body := render(campaign.BaseTemplate, contactEmail, firstName, lastName, company)
	subject := render(campaign.Subject, contactEmail, firstName, lastName, company)

	return Email{Subject: subject, Body: body}, nil
}

func render(template, email, firstName, lastName, company string) string {
	out := template
	out = replace(out, "{email}", email)
	out = replace(out, "{first_name}", firstName)
	out = replace(out, "{last_name}", lastName)
	out = replace(out, "{company}", company)
	return out
}

func replace(template, placeholder, value string) string {
	if value == "" {
		value = "<unknown>"
	}
	return strings.ReplaceAll(template, placeholder, value)
}

var _ Composer = (*TemplateComposer)(nil)
