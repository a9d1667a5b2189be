package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/fitcoach-backend/internal/apperror"
	"github.com/AnshRaj112/fitcoach-backend/internal/logging"
	"github.com/AnshRaj112/fitcoach-backend/internal/models"
	"github.com/AnshRaj112/fitcoach-backend/internal/realtime"
	"github.com/AnshRaj112/fitcoach-backend/internal/repositories"
)

const maxEventParticipants = 500

// EventService writes an event together with the matching entry in every
// participant's personal event list.
type EventService struct {
	coord      *Coordinator
	events     EventStore
	userEvents UserEventStore
	notify     notifier
	log        zerolog.Logger
}

func NewEventService(coord *Coordinator, events EventStore, userEvents UserEventStore, pub realtime.Publisher, log zerolog.Logger) *EventService {
	return &EventService{
		coord:      coord,
		events:     events,
		userEvents: userEvents,
		notify:     newNotifier(pub, log),
		log:        log,
	}
}

type EventInput struct {
	Title    string
	StartsAt time.Time
	EndsAt   time.Time
	Admins   []string
	Invitees []string
	Metadata models.EventMetadata
}

func validateMetadata(meta *models.EventMetadata) []apperror.FieldError {
	var fields []apperror.FieldError
	meta.Tags = normalizeTags(meta.Tags)
	for _, a := range meta.Alerts {
		if a.MinutesBefore < 0 {
			fields = append(fields, apperror.FieldError{Field: "metadata.alerts.minutes_before", Message: "Must not be negative"})
			break
		}
	}
	return fields
}

// participants resolves the admin and invitee lists. The creator is always an
// admin and an id named in both lists is kept as admin only.
func participants(creator primitive.ObjectID, adminIDs, inviteeIDs []string) ([]primitive.ObjectID, []primitive.ObjectID, error) {
	admins, err := repositories.ObjectIDs("admins", adminIDs)
	if err != nil {
		return nil, nil, err
	}
	invitees, err := repositories.ObjectIDs("invitees", inviteeIDs)
	if err != nil {
		return nil, nil, err
	}

	outAdmins := []primitive.ObjectID{creator}
	for _, id := range admins {
		if id != creator {
			outAdmins = append(outAdmins, id)
		}
	}
	outInvitees := make([]primitive.ObjectID, 0, len(invitees))
	for _, id := range invitees {
		if !models.ContainsID(outAdmins, id) {
			outInvitees = append(outInvitees, id)
		}
	}
	return outAdmins, outInvitees, nil
}

func (s *EventService) addRefStep(userID, eventID primitive.ObjectID, status models.EventStatus) Step {
	return Step{Name: "user_events:" + userID.Hex(), Run: func(ctx context.Context) error {
		matched, err := s.userEvents.AddEvent(ctx, userID, eventID, status)
		return must(matched, err, apperror.NotFound("user", userID.Hex()))
	}}
}

// Create inserts the event and one personal list entry per participant in a
// single transaction; if any entry fails nothing is written.
func (s *EventService) Create(ctx context.Context, creatorID string, in EventInput) (*models.EventResponse, error) {
	var fields []apperror.FieldError
	title := strings.TrimSpace(in.Title)
	if title == "" || len(title) > 120 {
		fields = append(fields, apperror.FieldError{Field: "title", Message: "Title must be 1-120 characters"})
	}
	if in.StartsAt.IsZero() || in.EndsAt.IsZero() || !in.StartsAt.Before(in.EndsAt) {
		fields = append(fields, apperror.FieldError{Field: "endsAt", Message: "Event must start before it ends"})
	}
	fields = append(fields, validateMetadata(&in.Metadata)...)
	if len(fields) > 0 {
		return nil, apperror.Validation(fields...)
	}

	creator, err := repositories.ObjectID("userId", creatorID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	admins, invitees, err := participants(creator, in.Admins, in.Invitees)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if len(admins)+len(invitees) > maxEventParticipants {
		return nil, apperror.Invalid("invitees", "Too many participants")
	}

	e := &models.Event{
		Title:     title,
		StartsAt:  in.StartsAt.UTC(),
		EndsAt:    in.EndsAt.UTC(),
		CreatedBy: creator,
		Admins:    admins,
		Invitees:  invitees,
		Metadata:  in.Metadata,
	}
	_, err = s.coord.Execute(ctx, "create_event",
		func(ctx context.Context) (primitive.ObjectID, error) {
			return s.events.Create(ctx, e)
		},
		func(id primitive.ObjectID) []Step {
			steps := make([]Step, 0, len(admins)+len(invitees))
			for _, a := range admins {
				steps = append(steps, s.addRefStep(a, id, models.EventAdmin))
			}
			for _, i := range invitees {
				steps = append(steps, s.addRefStep(i, id, models.EventPending))
			}
			return steps
		},
	)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.log).Info().
		Str("event_id", e.ID.Hex()).
		Int("admins", len(admins)).
		Int("invitees", len(invitees)).
		Msg("event created")
	s.notify.send(ctx, invitations(e.ID, creatorID, invitees)...)

	resp := e.ToResponse()
	resp.Status = models.EventAdmin
	return resp, nil
}

func invitations(eventID primitive.ObjectID, fromID string, invitees []primitive.ObjectID) []realtime.Notification {
	notes := make([]realtime.Notification, 0, len(invitees))
	for _, id := range invitees {
		notes = append(notes, realtime.Notification{
			Type:    realtime.EventInvited,
			UserID:  id.Hex(),
			Payload: map[string]string{"event_id": eventID.Hex(), "from_user_id": fromID},
		})
	}
	return notes
}

// Respond records an invitee's answer. Admins have no invitation to answer.
func (s *EventService) Respond(ctx context.Context, userID, eventID, status string) error {
	st := models.EventStatus(status)
	if !st.Response() {
		return apperror.Invalid("status", "Status must be Accepted, Declined or Tentative")
	}
	matched, err := s.userEvents.SetStatus(ctx, userID, eventID, st)
	if err := must(matched, err, apperror.NotFound("invitation", eventID)); err != nil {
		return apperror.Classify(err)
	}
	return nil
}

func (s *EventService) load(ctx context.Context, eventID string) (*models.Event, error) {
	e, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if e == nil {
		return nil, apperror.NotFound("event", eventID)
	}
	return e, nil
}

func (s *EventService) loadAsAdmin(ctx context.Context, eventID, callerID string) (*models.Event, error) {
	e, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !e.IsAdmin(userOID(callerID)) {
		return nil, apperror.Forbidden("only event admins can do this")
	}
	return e, nil
}

// Invite adds invitees to an existing event. Users already participating are skipped.
func (s *EventService) Invite(ctx context.Context, callerID, eventID string, userIDs []string) (*models.EventResponse, error) {
	ids, err := repositories.ObjectIDs("invitees", userIDs)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	e, err := s.loadAsAdmin(ctx, eventID, callerID)
	if err != nil {
		return nil, err
	}

	existing := e.Participants()
	fresh := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if !models.ContainsID(existing, id) {
			fresh = append(fresh, id)
		}
	}
	if len(fresh) == 0 {
		return e.ToResponse(), nil
	}
	if len(existing)+len(fresh) > maxEventParticipants {
		return nil, apperror.Invalid("invitees", "Too many participants")
	}

	steps := []Step{{Name: "event_invitees", Run: func(ctx context.Context) error {
		matched, err := s.events.AddInvitees(ctx, e.ID, fresh)
		return must(matched, err, apperror.NotFound("event", eventID))
	}}}
	for _, id := range fresh {
		steps = append(steps, s.addRefStep(id, e.ID, models.EventPending))
	}
	if err := s.coord.Run(ctx, "invite_event", steps...); err != nil {
		return nil, err
	}

	s.notify.send(ctx, invitations(e.ID, callerID, fresh)...)
	e.Invitees = append(e.Invitees, fresh...)
	return e.ToResponse(), nil
}

type EventUpdate struct {
	Title    *string
	StartsAt *time.Time
	EndsAt   *time.Time
	Metadata *models.EventMetadata
}

func (s *EventService) Update(ctx context.Context, callerID, eventID string, in EventUpdate, expectedVersion *int64) (*models.EventResponse, error) {
	patch := models.EventPatch{StartsAt: in.StartsAt, EndsAt: in.EndsAt, Metadata: in.Metadata}
	var fields []apperror.FieldError
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" || len(title) > 120 {
			fields = append(fields, apperror.FieldError{Field: "title", Message: "Title must be 1-120 characters"})
		}
		patch.Title = &title
	}
	if in.Metadata != nil {
		fields = append(fields, validateMetadata(in.Metadata)...)
	}
	if len(fields) > 0 {
		return nil, apperror.Validation(fields...)
	}
	if patch.Empty() {
		return nil, apperror.BadRequest("no fields to update")
	}

	e, err := s.loadAsAdmin(ctx, eventID, callerID)
	if err != nil {
		return nil, err
	}
	start, end := e.StartsAt, e.EndsAt
	if in.StartsAt != nil {
		start = *in.StartsAt
	}
	if in.EndsAt != nil {
		end = *in.EndsAt
	}
	if !start.Before(end) {
		return nil, apperror.Invalid("endsAt", "Event must start before it ends")
	}

	updated, err := s.events.Update(ctx, eventID, patch, expectedVersion)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if updated == nil {
		return nil, staleOrMissing("event", eventID, expectedVersion)
	}
	return updated.ToResponse(), nil
}

// Delete removes the event and its entry from every participant's list.
func (s *EventService) Delete(ctx context.Context, callerID, eventID string) error {
	e, err := s.loadAsAdmin(ctx, eventID, callerID)
	if err != nil {
		return err
	}
	// participants come from the deleted document, not the pre-check read
	var deleted *models.Event
	return s.coord.Run(ctx, "delete_event",
		Step{Name: "event_delete", Run: func(ctx context.Context) error {
			var err error
			deleted, err = s.events.Delete(ctx, e.ID)
			return must(deleted != nil, err, apperror.NotFound("event", eventID))
		}},
		Step{Name: "user_events_remove", Run: func(ctx context.Context) error {
			return s.userEvents.RemoveEvent(ctx, deleted.Participants(), e.ID)
		}},
	)
}

// Get returns the event to one of its participants.
func (s *EventService) Get(ctx context.Context, viewerID, eventID string) (*models.EventResponse, error) {
	e, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !models.ContainsID(e.Participants(), userOID(viewerID)) {
		return nil, apperror.Forbidden("you are not part of this event")
	}
	return e.ToResponse(), nil
}

// MyEvents lists the user's events with their own status, by start time.
func (s *EventService) MyEvents(ctx context.Context, userID string, from, to *time.Time) ([]*models.EventResponse, error) {
	if from != nil && to != nil && !from.Before(*to) {
		return nil, apperror.Invalid("to", "Range end must be after its start")
	}
	views, err := s.userEvents.ListEvents(ctx, userID, from, to)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	out := make([]*models.EventResponse, 0, len(views))
	for i := range views {
		out = append(out, views[i].ToResponse())
	}
	return out, nil
}
