package service

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/debtbook/internal/ledger"
	"github.com/mmynk/debtbook/internal/models"
)

// ContactService implements the Connect ContactService.
type ContactService struct {
	ledger *ledger.Ledger
}

// NewContactService creates a new ContactService backed by l.
func NewContactService(l *ledger.Ledger) *ContactService {
	return &ContactService{ledger: l}
}

// Handler returns the path prefix and handler serving every ContactService
// procedure.
func (s *ContactService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux := http.NewServeMux()
	mux.Handle(ContactCreateProcedure, connect.NewUnaryHandler(ContactCreateProcedure, s.CreateContact, opts...))
	mux.Handle(ContactImportProcedure, connect.NewUnaryHandler(ContactImportProcedure, s.ImportContacts, opts...))
	mux.Handle(ContactGetProcedure, connect.NewUnaryHandler(ContactGetProcedure, s.GetContact, opts...))
	mux.Handle(ContactListProcedure, connect.NewUnaryHandler(ContactListProcedure, s.ListContacts, opts...))
	mux.Handle(ContactListSummariesProcedure, connect.NewUnaryHandler(ContactListSummariesProcedure, s.ListContactSummaries, opts...))
	mux.Handle(ContactUpdateProcedure, connect.NewUnaryHandler(ContactUpdateProcedure, s.UpdateContact, opts...))
	mux.Handle(ContactDeleteProcedure, connect.NewUnaryHandler(ContactDeleteProcedure, s.DeleteContact, opts...))
	return "/" + ContactServiceName + "/", mux
}

// CreateContact adds a contact, or returns the one already using the phone.
func (s *ContactService) CreateContact(ctx context.Context, req *connect.Request[CreateContactRequest]) (*connect.Response[ContactResponse], error) {
	if _, err := session(ctx); err != nil {
		return nil, err
	}
	slog.Info("CreateContact request received", "name", req.Msg.Name, "phone", req.Msg.Phone)

	contact, err := s.ledger.CreateContact(ctx, req.Msg.Name, req.Msg.Phone)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("Contact resolved", "contact_id", contact.ID)
	return connect.NewResponse(&ContactResponse{Contact: toContact(contact)}), nil
}

// ImportContacts resolves a batch of contacts by phone.
func (s *ContactService) ImportContacts(ctx context.Context, req *connect.Request[ImportContactsRequest]) (*connect.Response[ListContactsResponse], error) {
	if _, err := session(ctx); err != nil {
		return nil, err
	}
	slog.Info("ImportContacts request received", "count", len(req.Msg.Contacts))

	entries := make([]models.Contact, len(req.Msg.Contacts))
	for i, c := range req.Msg.Contacts {
		entries[i] = models.Contact{Name: c.Name, Phone: c.Phone}
	}
	contacts, err := s.ledger.ImportContacts(ctx, entries)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("Contacts imported", "count", len(contacts))
	return connect.NewResponse(&ListContactsResponse{Contacts: toContacts(contacts)}), nil
}

// GetContact retrieves a contact by ID.
func (s *ContactService) GetContact(ctx context.Context, req *connect.Request[ContactRequest]) (*connect.Response[ContactResponse], error) {
	if _, err := session(ctx); err != nil {
		return nil, err
	}

	contact, err := s.ledger.GetContact(ctx, req.Msg.ContactID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&ContactResponse{Contact: toContact(contact)}), nil
}

// ListContacts retrieves all contacts.
func (s *ContactService) ListContacts(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ListContactsResponse], error) {
	if _, err := session(ctx); err != nil {
		return nil, err
	}

	contacts, err := s.ledger.ListContacts(ctx)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Debug("ListContacts successful", "count", len(contacts))
	return connect.NewResponse(&ListContactsResponse{Contacts: toContacts(contacts)}), nil
}

// ListContactSummaries returns every contact with the caller's outstanding
// totals against it.
func (s *ContactService) ListContactSummaries(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ListContactSummariesResponse], error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}

	summaries, err := s.ledger.ContactSummaries(ctx, sess)
	if err != nil {
		return nil, connectError(err)
	}

	out := make([]*ContactSummary, len(summaries))
	for i, cs := range summaries {
		out[i] = &ContactSummary{
			Contact:          toContact(cs.Contact),
			TotalOwedToUser:  cs.TotalOwedToUser.String(),
			TotalUserOwes:    cs.TotalUserOwes.String(),
			NetBalance:       cs.NetBalance().String(),
			OutstandingCount: cs.OutstandingCount,
		}
	}
	return connect.NewResponse(&ListContactSummariesResponse{Summaries: out}), nil
}

// UpdateContact renames a contact or changes its phone.
func (s *ContactService) UpdateContact(ctx context.Context, req *connect.Request[UpdateContactRequest]) (*connect.Response[ContactResponse], error) {
	if _, err := session(ctx); err != nil {
		return nil, err
	}
	slog.Info("UpdateContact request received", "contact_id", req.Msg.ContactID)

	contact, err := s.ledger.UpdateContact(ctx, req.Msg.ContactID, ledger.ContactUpdate{
		Name:  req.Msg.Name,
		Phone: req.Msg.Phone,
	})
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("Contact updated", "contact_id", contact.ID)
	return connect.NewResponse(&ContactResponse{Contact: toContact(contact)}), nil
}

// DeleteContact removes a contact, and with cascade every debt against it.
func (s *ContactService) DeleteContact(ctx context.Context, req *connect.Request[DeleteContactRequest]) (*connect.Response[Empty], error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("DeleteContact request received", "contact_id", req.Msg.ContactID, "cascade", req.Msg.Cascade, "user_id", sess.UserID)

	if err := s.ledger.DeleteContact(ctx, sess, req.Msg.ContactID, req.Msg.Cascade); err != nil {
		return nil, connectError(err)
	}

	slog.Info("Contact deleted", "contact_id", req.Msg.ContactID)
	return connect.NewResponse(&Empty{}), nil
}

func toContacts(contacts []*models.Contact) []*Contact {
	out := make([]*Contact, len(contacts))
	for i, c := range contacts {
		out[i] = toContact(c)
	}
	return out
}
