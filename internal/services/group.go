package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/fitcoach-backend/internal/apperror"
	"github.com/AnshRaj112/fitcoach-backend/internal/logging"
	"github.com/AnshRaj112/fitcoach-backend/internal/models"
	"github.com/AnshRaj112/fitcoach-backend/internal/realtime"
	"github.com/AnshRaj112/fitcoach-backend/internal/repositories"
)

const (
	maxGroupTags      = 10
	maxGroupSearch    = 50
	defaultGroupLimit = 20
)

// GroupService keeps group membership lists and each user's group list in
// step. A user appears in at most one of owners, members and requests.
type GroupService struct {
	coord      *Coordinator
	groups     GroupStore
	userGroups UserGroupStore
	notify     notifier
	log        zerolog.Logger
}

func NewGroupService(coord *Coordinator, groups GroupStore, userGroups UserGroupStore, pub realtime.Publisher, log zerolog.Logger) *GroupService {
	return &GroupService{
		coord:      coord,
		groups:     groups,
		userGroups: userGroups,
		notify:     newNotifier(pub, log),
		log:        log,
	}
}

type GroupInput struct {
	Name        *string
	Description *string
	Tags        *[]string
	Visibility  *string
}

func (in GroupInput) validate(creating bool) (models.GroupPatch, error) {
	var patch models.GroupPatch
	var fields []apperror.FieldError

	if in.Name != nil || creating {
		name := ""
		if in.Name != nil {
			name = strings.TrimSpace(*in.Name)
		}
		if len(name) < 3 || len(name) > 60 {
			fields = append(fields, apperror.FieldError{Field: "name", Message: "Name must be 3-60 characters"})
		}
		patch.Name = &name
	}
	if in.Description != nil {
		if len(*in.Description) > 1000 {
			fields = append(fields, apperror.FieldError{Field: "description", Message: "Description must be at most 1000 characters"})
		}
		patch.Description = in.Description
	}
	if in.Tags != nil {
		tags := normalizeTags(*in.Tags)
		if len(tags) > maxGroupTags {
			fields = append(fields, apperror.FieldError{Field: "tags", Message: "At most 10 tags are allowed"})
		}
		patch.Tags = &tags
	}
	if in.Visibility != nil || creating {
		v := models.VisibilityPublic
		if in.Visibility != nil && *in.Visibility != "" {
			v = models.Visibility(strings.ToLower(*in.Visibility))
		}
		if !v.Valid() {
			fields = append(fields, apperror.FieldError{Field: "visibility", Message: "Visibility must be public or private"})
		}
		patch.Visibility = &v
	}
	if len(fields) > 0 {
		return patch, apperror.Validation(fields...)
	}
	return patch, nil
}

// normalizeTags lower-cases, trims and dedupes tags, keeping first-seen order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (s *GroupService) Create(ctx context.Context, ownerID string, in GroupInput) (*models.GroupResponse, error) {
	patch, err := in.validate(true)
	if err != nil {
		return nil, err
	}
	owner, err := repositories.ObjectID("userId", ownerID)
	if err != nil {
		return nil, apperror.Classify(err)
	}

	g := &models.Group{
		Name:       *patch.Name,
		Slug:       uniqueSlug(ctx, s.groups.SlugExists, *patch.Name),
		Visibility: *patch.Visibility,
		CreatedBy:  owner,
		Owners:     []primitive.ObjectID{owner},
	}
	if patch.Description != nil {
		g.Description = *patch.Description
	}
	if patch.Tags != nil {
		g.Tags = *patch.Tags
	}

	_, err = s.coord.Execute(ctx, "create_group",
		func(ctx context.Context) (primitive.ObjectID, error) {
			return s.groups.Create(ctx, g)
		},
		func(id primitive.ObjectID) []Step {
			return []Step{s.userGroupAdd(ownerID, id)}
		},
	)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx, s.log).Info().Str("group_id", g.ID.Hex()).Str("slug", g.Slug).Msg("group created")
	return g.ToResponse(owner), nil
}

func (s *GroupService) userGroupAdd(userID string, groupID primitive.ObjectID) Step {
	return Step{Name: "user_groups_add", Run: func(ctx context.Context) error {
		matched, err := s.userGroups.Add(ctx, userID, groupID)
		return must(matched, err, apperror.NotFound("user", userID))
	}}
}

func (s *GroupService) userGroupRemove(userID string, groupID primitive.ObjectID) Step {
	return Step{Name: "user_groups_remove", Run: func(ctx context.Context) error {
		matched, err := s.userGroups.Remove(ctx, userID, groupID)
		return must(matched, err, apperror.NotFound("user group", userID))
	}}
}

func (s *GroupService) listStep(name, groupID string, list models.GroupList, userID string, add bool, onMiss error) Step {
	return Step{Name: name, Run: func(ctx context.Context) error {
		var matched bool
		var err error
		if add {
			matched, err = s.groups.AddToList(ctx, groupID, list, userID)
		} else {
			matched, err = s.groups.RemoveFromList(ctx, groupID, list, userID)
		}
		return must(matched, err, onMiss)
	}}
}

func (s *GroupService) load(ctx context.Context, groupID string) (*models.Group, error) {
	g, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if g == nil {
		return nil, apperror.NotFound("group", groupID)
	}
	return g, nil
}

// loadAsOwner loads the group and requires callerID to own it.
func (s *GroupService) loadAsOwner(ctx context.Context, groupID, callerID string) (*models.Group, error) {
	g, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g.Role(userOID(callerID)) != models.RoleOwner {
		return nil, apperror.Forbidden("only group owners can do this")
	}
	return g, nil
}

// userOID converts an authenticated user id. Ids from tokens were issued by
// us, so a malformed one simply matches nothing.
func userOID(id string) primitive.ObjectID {
	oid, _ := primitive.ObjectIDFromHex(id)
	return oid
}

func alreadyInGroup(userID string, role models.GroupRole) error {
	msg := "already a member of this group"
	if role == models.RoleRequested {
		msg = "join request already pending"
	}
	return apperror.Conflict(msg).WithDetails(apperror.MembershipDetails{UserID: userID, Role: string(role)})
}

// Join adds the caller to a public group or files a request on a private one.
func (s *GroupService) Join(ctx context.Context, callerID, groupID string) (models.GroupRole, error) {
	g, err := s.load(ctx, groupID)
	if err != nil {
		return "", err
	}
	if role := g.Role(userOID(callerID)); role != models.RoleNone {
		return "", alreadyInGroup(callerID, role)
	}
	conflict := alreadyInGroup(callerID, models.RoleMember)

	if g.Visibility == models.VisibilityPrivate {
		err := s.coord.Run(ctx, "request_join_group",
			s.listStep("group_requests", groupID, models.GroupRequests, callerID, true, conflict),
		)
		if err != nil {
			return "", err
		}
		notes := make([]realtime.Notification, 0, len(g.Owners))
		for _, owner := range g.Owners {
			notes = append(notes, realtime.Notification{
				Type:    realtime.GroupJoinRequested,
				UserID:  owner.Hex(),
				Payload: map[string]string{"group_id": groupID, "from_user_id": callerID},
			})
		}
		s.notify.send(ctx, notes...)
		return models.RoleRequested, nil
	}

	err = s.coord.Run(ctx, "join_group",
		s.listStep("group_members", groupID, models.GroupMembers, callerID, true, conflict),
		s.userGroupAdd(callerID, g.ID),
	)
	if err != nil {
		return "", err
	}
	return models.RoleMember, nil
}

func (s *GroupService) AcceptRequest(ctx context.Context, callerID, groupID, userID string) error {
	g, err := s.loadAsOwner(ctx, groupID, callerID)
	if err != nil {
		return err
	}
	err = s.coord.Run(ctx, "accept_group_request",
		Step{Name: "group_accept", Run: func(ctx context.Context) error {
			matched, err := s.groups.MoveRequestToMembers(ctx, groupID, userID)
			return must(matched, err, apperror.NotFound("join request", userID))
		}},
		s.userGroupAdd(userID, g.ID),
	)
	if err != nil {
		return err
	}
	s.notify.send(ctx, realtime.Notification{
		Type:    realtime.GroupRequestAccepted,
		UserID:  userID,
		Payload: map[string]string{"group_id": groupID},
	})
	return nil
}

func (s *GroupService) DeclineRequest(ctx context.Context, callerID, groupID, userID string) error {
	if _, err := s.loadAsOwner(ctx, groupID, callerID); err != nil {
		return err
	}
	return s.coord.Run(ctx, "decline_group_request",
		s.listStep("group_requests", groupID, models.GroupRequests, userID, false, apperror.NotFound("join request", userID)),
	)
}

// Leave removes the caller's membership or withdraws a pending request.
// Owners cannot leave.
func (s *GroupService) Leave(ctx context.Context, callerID, groupID string) error {
	g, err := s.load(ctx, groupID)
	if err != nil {
		return err
	}
	switch g.Role(userOID(callerID)) {
	case models.RoleOwner:
		return apperror.BadRequest("owner cannot leave group")
	case models.RoleRequested:
		return s.coord.Run(ctx, "withdraw_group_request",
			s.listStep("group_requests", groupID, models.GroupRequests, callerID, false, apperror.NotFound("join request", callerID)),
		)
	case models.RoleNone:
		return apperror.NotFound("membership", callerID)
	}
	return s.coord.Run(ctx, "leave_group",
		s.listStep("group_members", groupID, models.GroupMembers, callerID, false, apperror.NotFound("membership", callerID)),
		s.userGroupRemove(callerID, g.ID),
	)
}

// RemoveMember lets an owner remove a member. Owners can never be removed.
func (s *GroupService) RemoveMember(ctx context.Context, callerID, groupID, userID string) error {
	targetID, err := repositories.ObjectID("userId", userID)
	if err != nil {
		return apperror.Classify(err)
	}
	g, err := s.load(ctx, groupID)
	if err != nil {
		return err
	}
	target := g.Role(targetID)
	if target == models.RoleOwner {
		return apperror.BadRequest("cannot remove a group owner").
			WithDetails(apperror.MembershipDetails{UserID: userID, Role: string(target)})
	}
	if g.Role(userOID(callerID)) != models.RoleOwner {
		return apperror.Forbidden("only group owners can remove members")
	}
	if target != models.RoleMember {
		return apperror.NotFound("membership", userID)
	}
	return s.coord.Run(ctx, "remove_group_member",
		s.listStep("group_members", groupID, models.GroupMembers, userID, false, apperror.NotFound("membership", userID)),
		s.userGroupRemove(userID, g.ID),
	)
}

// Update edits group fields. With expectedVersion set, a concurrent edit
// yields 409 instead of being overwritten.
func (s *GroupService) Update(ctx context.Context, callerID, groupID string, in GroupInput, expectedVersion *int64) (*models.GroupResponse, error) {
	patch, err := in.validate(false)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, apperror.BadRequest("no fields to update")
	}
	if _, err := s.loadAsOwner(ctx, groupID, callerID); err != nil {
		return nil, err
	}
	g, err := s.groups.Update(ctx, groupID, patch, expectedVersion)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if g == nil {
		return nil, staleOrMissing("group", groupID, expectedVersion)
	}
	return g.ToResponse(userOID(callerID)), nil
}

// staleOrMissing explains a versioned update that matched nothing.
func staleOrMissing(resource, id string, expectedVersion *int64) error {
	if expectedVersion != nil {
		return apperror.Conflict(resource+" was modified by someone else").
			WithDetails(apperror.VersionDetails{Expected: *expectedVersion})
	}
	return apperror.NotFound(resource, id)
}

// Delete removes the group and drops it from every owner's and member's list.
func (s *GroupService) Delete(ctx context.Context, callerID, groupID string) error {
	g, err := s.loadAsOwner(ctx, groupID, callerID)
	if err != nil {
		return err
	}
	// participants come from the deleted document, not the ownership check read
	var participants []primitive.ObjectID
	err = s.coord.Run(ctx, "delete_group",
		Step{Name: "group_delete", Run: func(ctx context.Context) error {
			deleted, err := s.groups.Delete(ctx, groupID)
			if err := must(deleted != nil, err, apperror.NotFound("group", groupID)); err != nil {
				return err
			}
			participants = append(append([]primitive.ObjectID{}, deleted.Owners...), deleted.Members...)
			return nil
		}},
		Step{Name: "user_groups_remove_all", Run: func(ctx context.Context) error {
			return s.userGroups.RemoveFromAll(ctx, participants, g.ID)
		}},
	)
	if err != nil {
		return err
	}
	logging.FromContext(ctx, s.log).Info().Str("group_id", groupID).Int("participants", len(participants)).Msg("group deleted")
	return nil
}

func (s *GroupService) Get(ctx context.Context, viewerID, groupID string) (*models.GroupResponse, error) {
	g, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return g.ToResponse(userOID(viewerID)), nil
}

func (s *GroupService) MyGroups(ctx context.Context, userID string) ([]*models.GroupResponse, error) {
	groups, err := s.userGroups.Groups(ctx, userID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	return groupResponses(groups, userOID(userID)), nil
}

func (s *GroupService) Search(ctx context.Context, viewerID, query, tag string, limit int) ([]*models.GroupResponse, error) {
	if limit <= 0 {
		limit = defaultGroupLimit
	}
	if limit > maxGroupSearch {
		limit = maxGroupSearch
	}
	groups, err := s.groups.Search(ctx, strings.TrimSpace(query), tag, int64(limit))
	if err != nil {
		return nil, apperror.Classify(err)
	}
	return groupResponses(groups, userOID(viewerID)), nil
}

func groupResponses(groups []models.Group, viewer primitive.ObjectID) []*models.GroupResponse {
	out := make([]*models.GroupResponse, 0, len(groups))
	for i := range groups {
		out = append(out, groups[i].ToResponse(viewer))
	}
	return out
}
