package client

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/audit"
)

type stubClock struct {
	now time.Time
}

func (c stubClock) Now() time.Time {
	return c.now
}

type fakeRepository struct {
	clients map[string]*Client
	order   []string
	seq     int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{clients: make(map[string]*Client)}
}

func (r *fakeRepository) Create(_ context.Context, c *Client) (*Client, error) {
	r.seq++
	stored := cloneClient(c)
	stored.ID = "client-" + strconv.Itoa(r.seq)
	r.clients[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	return cloneClient(stored), nil
}

func (r *fakeRepository) Update(_ context.Context, c *Client) (*Client, error) {
	if _, ok := r.clients[c.ID]; !ok {
		return nil, ErrClientNotFound
	}
	stored := cloneClient(c)
	r.clients[c.ID] = stored
	return cloneClient(stored), nil
}

func (r *fakeRepository) Delete(_ context.Context, id string) error {
	if _, ok := r.clients[id]; !ok {
		return ErrClientNotFound
	}
	delete(r.clients, id)
	return nil
}

func (r *fakeRepository) FindByID(_ context.Context, id string) (*Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	return cloneClient(c), nil
}

func (r *fakeRepository) FindByName(_ context.Context, name string) (*Client, error) {
	for _, c := range r.clients {
		if c.Name == name {
			return cloneClient(c), nil
		}
	}
	return nil, ErrClientNotFound
}

func (r *fakeRepository) List(_ context.Context, filter ListClientsFilter) ([]*Client, string, error) {
	var matched []*Client
	for _, id := range r.order {
		c, ok := r.clients[id]
		if !ok {
			continue
		}
		if filter.ActiveOnly && !c.Active {
			continue
		}
		matched = append(matched, cloneClient(c))
	}

	if filter.Offset >= len(matched) {
		return nil, "", nil
	}
	matched = matched[filter.Offset:]

	nextToken := ""
	if len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}
	return matched, nextToken, nil
}

func cloneClient(c *Client) *Client {
	clone := *c
	return &clone
}

type recordingAuditor struct {
	events []audit.Event
}

func (a *recordingAuditor) Record(_ context.Context, event audit.Event) {
	a.events = append(a.events, event)
}

func serviceFixture(t *testing.T) (*Service, *fakeRepository) {
	t.Helper()

	repo := newFakeRepository()
	clock := stubClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewService(repo, clock, nil, nil), repo
}

func createClientInput() CreateClientInput {
	return CreateClientInput{
		Name:          "St Mary's Care Home",
		ContactPerson: "Jordan Lee",
		Email:         "bookings@stmarys.example.com",
	}
}

func TestCreateClient(t *testing.T) {
	t.Parallel()

	svc, _ := serviceFixture(t)

	created, err := svc.CreateClient(context.Background(), createClientInput())
	if err != nil {
		t.Fatalf("CreateClient returned error: %v", err)
	}

	if created.Name != "St Mary's Care Home" {
		t.Errorf("unexpected name %q", created.Name)
	}
	if !created.Active {
		t.Error("expected active default")
	}
}

func TestCreateClient_DuplicateName(t *testing.T) {
	t.Parallel()

	svc, _ := serviceFixture(t)

	if _, err := svc.CreateClient(context.Background(), createClientInput()); err != nil {
		t.Fatalf("CreateClient returned error: %v", err)
	}

	if _, err := svc.CreateClient(context.Background(), createClientInput()); !errors.Is(err, ErrNameAlreadyExists) {
		t.Fatalf("expected ErrNameAlreadyExists, got %v", err)
	}
}

func TestCreateClient_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := serviceFixture(t)

	in := createClientInput()
	in.Name = "  "
	if _, err := svc.CreateClient(context.Background(), in); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}

	in = createClientInput()
	in.Email = "not-an-email"
	if _, err := svc.CreateClient(context.Background(), in); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestUpdateClient(t *testing.T) {
	t.Parallel()

	svc, _ := serviceFixture(t)

	created, err := svc.CreateClient(context.Background(), createClientInput())
	if err != nil {
		t.Fatalf("CreateClient returned error: %v", err)
	}

	contact := "  Sam Field  "
	inactive := false
	updated, err := svc.UpdateClient(context.Background(), UpdateClientInput{
		ID:            created.ID,
		ContactPerson: &contact,
		Active:        &inactive,
	})
	if err != nil {
		t.Fatalf("UpdateClient returned error: %v", err)
	}

	if updated.ContactPerson != "Sam Field" {
		t.Errorf("expected trimmed contact person, got %q", updated.ContactPerson)
	}
	if updated.Active {
		t.Error("expected inactive")
	}
	if updated.Name != created.Name {
		t.Errorf("name must be untouched, got %q", updated.Name)
	}
}

func TestClientWrites_EmitAuditEvents(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	auditor := &recordingAuditor{}
	svc := NewService(repo, stubClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}, nil, auditor)

	in := createClientInput()
	in.Actor = "user-7"
	created, err := svc.CreateClient(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateClient returned error: %v", err)
	}

	contact := "Sam Field"
	if _, err := svc.UpdateClient(context.Background(), UpdateClientInput{ID: created.ID, ContactPerson: &contact, Actor: "user-7"}); err != nil {
		t.Fatalf("UpdateClient returned error: %v", err)
	}

	if err := svc.DeleteClient(context.Background(), DeleteClientInput{ID: created.ID, Actor: "user-7"}); err != nil {
		t.Fatalf("DeleteClient returned error: %v", err)
	}

	if len(auditor.events) != 3 {
		t.Fatalf("expected 3 audit events, got %d", len(auditor.events))
	}

	actions := []string{auditor.events[0].Action, auditor.events[1].Action, auditor.events[2].Action}
	want := []string{"client.created", "client.updated", "client.deleted"}
	for i, action := range actions {
		if action != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], action)
		}
	}

	for _, event := range auditor.events {
		if event.Actor != "user-7" || event.EntityID != created.ID {
			t.Errorf("unexpected event %+v", event)
		}
	}

	if auditor.events[1].Before == nil || auditor.events[1].After == nil {
		t.Error("update event must carry before and after snapshots")
	}
	if auditor.events[2].After != nil {
		t.Error("delete event must not carry an after snapshot")
	}
}

func TestGetClient_NotFound(t *testing.T) {
	t.Parallel()

	svc, _ := serviceFixture(t)

	if _, err := svc.GetClient(context.Background(), GetClientInput{ID: "client-missing"}); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
}

func TestListClients_ActiveOnly(t *testing.T) {
	t.Parallel()

	svc, _ := serviceFixture(t)

	if _, err := svc.CreateClient(context.Background(), createClientInput()); err != nil {
		t.Fatalf("CreateClient returned error: %v", err)
	}

	inactive := false
	other := createClientInput()
	other.Name = "Riverside Clinic"
	other.Active = &inactive
	if _, err := svc.CreateClient(context.Background(), other); err != nil {
		t.Fatalf("CreateClient returned error: %v", err)
	}

	result, err := svc.ListClients(context.Background(), ListClientsInput{ActiveOnly: true})
	if err != nil {
		t.Fatalf("ListClients returned error: %v", err)
	}
	if len(result.Clients) != 1 || result.Clients[0].Name != "St Mary's Care Home" {
		t.Errorf("expected only the active client, got %d entries", len(result.Clients))
	}
}
