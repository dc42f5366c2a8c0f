package compose

import (
	"context"
	"testing"

	"github.com/leadloft/outreach-backend/internal/model"
)

type fakeContacts struct {
	contacts map[string]*model.Contact
}

func (f *fakeContacts) GetByEmail(ctx context.Context, email string) (*model.Contact, error) {
	return f.contacts[email], nil
}

func TestCompose_RendersPlaceholders(t *testing.T) {
	contacts := &fakeContacts{contacts: map[string]*model.Contact{
		"alice@acme.test": {Email: "alice@acme.test", FirstName: "Alice", LastName: "Smith", Company: "Acme"},
	}}
	c := NewTemplateComposer(contacts)

	campaign := &model.Campaign{
		Subject:      "Quick question, {first_name}",
		BaseTemplate: "Hi {first_name} {last_name}, how are things at {company}?",
	}

	email, err := c.Compose(context.Background(), "alice@acme.test", campaign)
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}
	if email.Subject != "Quick question, Alice" {
		t.Errorf("unexpected subject: %q", email.Subject)
	}
	if email.Body != "Hi Alice Smith, how are things at Acme?" {
		t.Errorf("unexpected body: %q", email.Body)
	}
	if email.Empty() {
		t.Error("rendered email should not be empty")
	}
}

func TestCompose_UnknownContactFieldsFallBack(t *testing.T) {
	c := NewTemplateComposer(&fakeContacts{contacts: map[string]*model.Contact{}})

	campaign := &model.Campaign{
		Subject:      "Hello",
		BaseTemplate: "Hi {first_name} from {company}",
	}

	email, err := c.Compose(context.Background(), "nobody@test", campaign)
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}
	if email.Body != "Hi <unknown> from <unknown>" {
		t.Errorf("unexpected body: %q", email.Body)
	}
}

func TestCompose_EmptyTemplateIsEmptyEmail(t *testing.T) {
	c := NewTemplateComposer(&fakeContacts{contacts: map[string]*model.Contact{}})

	email, err := c.Compose(context.Background(), "a@b.test", &model.Campaign{BaseTemplate: "   "})
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}
	if !email.Empty() {
		t.Error("blank template should compose an empty email")
	}
}
