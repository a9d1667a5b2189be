package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AnshRaj112/fitcoach-backend/internal/models"
	"github.com/AnshRaj112/fitcoach-backend/internal/nutrition"
	"github.com/AnshRaj112/fitcoach-backend/internal/pagination"
	"github.com/AnshRaj112/fitcoach-backend/internal/realtime"
)

var errNotImplemented = errors.New("not implemented in memory store")

type idMap[T any] map[primitive.ObjectID]*T

func cloneMap[T any](m idMap[T], cp func(T) T) idMap[T] {
	out := make(idMap[T], len(m))
	for k, v := range m {
		c := cp(*v)
		out[k] = &c
	}
	return out
}

// memDB is an in-memory stand-in for the mongo collections. Documents that
// belong to a user are keyed by user id.
type memDB struct {
	users      idMap[models.User]
	groups     idMap[models.Group]
	userGroups idMap[models.UserGroups]
	events     idMap[models.Event]
	userEvents idMap[models.UserEvents]
	follows    idMap[models.Follow]
	profiles   idMap[models.Profile]
	programs   idMap[models.Program]
	weeks      idMap[models.Week]
	meals      idMap[models.MealTemplate]
	mealLogs   []models.MealLog

	commits, aborts int
}

func newMemDB() *memDB {
	return &memDB{
		users:      idMap[models.User]{},
		groups:     idMap[models.Group]{},
		userGroups: idMap[models.UserGroups]{},
		events:     idMap[models.Event]{},
		userEvents: idMap[models.UserEvents]{},
		follows:    idMap[models.Follow]{},
		profiles:   idMap[models.Profile]{},
		programs:   idMap[models.Program]{},
		weeks:      idMap[models.Week]{},
		meals:      idMap[models.MealTemplate]{},
	}
}

func (db *memDB) snapshot() *memDB {
	return &memDB{
		users: cloneMap(db.users, func(u models.User) models.User {
			u.RefreshTokens = slices.Clone(u.RefreshTokens)
			return u
		}),
		groups: cloneMap(db.groups, func(g models.Group) models.Group {
			g.Owners, g.Members, g.Requests = slices.Clone(g.Owners), slices.Clone(g.Members), slices.Clone(g.Requests)
			g.Tags = slices.Clone(g.Tags)
			return g
		}),
		userGroups: cloneMap(db.userGroups, func(u models.UserGroups) models.UserGroups {
			u.Groups = slices.Clone(u.Groups)
			return u
		}),
		events: cloneMap(db.events, func(e models.Event) models.Event {
			e.Admins, e.Invitees = slices.Clone(e.Admins), slices.Clone(e.Invitees)
			return e
		}),
		userEvents: cloneMap(db.userEvents, func(u models.UserEvents) models.UserEvents {
			u.Events = slices.Clone(u.Events)
			return u
		}),
		follows: cloneMap(db.follows, func(f models.Follow) models.Follow {
			f.Following, f.Followers, f.Requests = slices.Clone(f.Following), slices.Clone(f.Followers), slices.Clone(f.Requests)
			return f
		}),
		profiles: cloneMap(db.profiles, func(p models.Profile) models.Profile {
			p.Sections = slices.Clone(p.Sections)
			return p
		}),
		programs: cloneMap(db.programs, func(p models.Program) models.Program {
			p.WeekIDs = slices.Clone(p.WeekIDs)
			return p
		}),
		weeks: cloneMap(db.weeks, func(w models.Week) models.Week {
			w.Workouts = slices.Clone(w.Workouts)
			return w
		}),
		meals:    cloneMap(db.meals, func(m models.MealTemplate) models.MealTemplate { return m }),
		mealLogs: slices.Clone(db.mealLogs),
	}
}

func (db *memDB) restore(s *memDB) {
	db.users = s.users
	db.groups, db.userGroups = s.groups, s.userGroups
	db.events, db.userEvents = s.events, s.userEvents
	db.follows, db.profiles = s.follows, s.profiles
	db.programs, db.weeks = s.programs, s.weeks
	db.meals, db.mealLogs = s.meals, s.mealLogs
}

// InTransaction restores the pre-transaction state when fn fails.
func (db *memDB) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := db.snapshot()
	if err := fn(ctx); err != nil {
		db.restore(snap)
		db.aborts++
		return err
	}
	db.commits++
	return nil
}

// addUser creates the per-user documents registration would create.
func (db *memDB) addUser(visibility models.Visibility) primitive.ObjectID {
	id := primitive.NewObjectID()
	db.profiles[id] = &models.Profile{ID: primitive.NewObjectID(), UserID: id, Username: "u" + id.Hex()[18:], Visibility: visibility}
	db.follows[id] = (&models.Follow{ID: primitive.NewObjectID(), UserID: id}).Normalize()
	db.userGroups[id] = (&models.UserGroups{ID: primitive.NewObjectID(), UserID: id}).Normalize()
	db.userEvents[id] = (&models.UserEvents{ID: primitive.NewObjectID(), UserID: id}).Normalize()
	return id
}

func oid(hex string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(hex)
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	return slices.DeleteFunc(slices.Clone(ids), func(v primitive.ObjectID) bool { return v == id })
}

type memUsers struct{ db *memDB }

func duplicateKey(key string) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: "E11000 duplicate key error collection: fitcoach.users index: " + key + "_1 dup key: { " + key + ": \"x\" }",
	}}}
}

func (m memUsers) Create(_ context.Context, u *models.User) (primitive.ObjectID, error) {
	for _, other := range m.db.users {
		if strings.EqualFold(other.Username, u.Username) {
			return primitive.NilObjectID, duplicateKey("username")
		}
		if strings.EqualFold(other.Email, u.Email) {
			return primitive.NilObjectID, duplicateKey("email")
		}
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now()
	c := *u.Normalize()
	m.db.users[u.ID] = &c
	return u.ID, nil
}

func (m memUsers) get(id string) *models.User {
	uid, err := oid(id)
	if err != nil {
		return nil
	}
	return m.db.users[uid]
}

func (m memUsers) find(match func(*models.User) bool) *models.User {
	for _, u := range m.db.users {
		if match(u) {
			c := *u
			c.RefreshTokens = slices.Clone(u.RefreshTokens)
			return &c
		}
	}
	return nil
}

func (m memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	u := m.get(id)
	if u == nil {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (m memUsers) FindByLogin(_ context.Context, identifier string) (*models.User, error) {
	return m.find(func(u *models.User) bool {
		return strings.EqualFold(u.Username, identifier) || strings.EqualFold(u.Email, identifier)
	}), nil
}

func (m memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (m memUsers) FindByOAuth(_ context.Context, provider, subject string) (*models.User, error) {
	return m.find(func(u *models.User) bool {
		return u.OAuth != nil && u.OAuth.Provider == provider && u.OAuth.Subject == subject
	}), nil
}

func (m memUsers) FindByRefreshToken(_ context.Context, tokenHash string) (*models.User, error) {
	return m.find(func(u *models.User) bool {
		return slices.ContainsFunc(u.RefreshTokens, func(rt models.RefreshToken) bool { return rt.TokenHash == tokenHash })
	}), nil
}

func (m memUsers) LinkOAuth(_ context.Context, userID string, link models.OAuthLink) (bool, error) {
	u := m.get(userID)
	if u == nil || u.OAuth != nil {
		return false, nil
	}
	u.OAuth = &link
	return true, nil
}

func (m memUsers) PutRefreshToken(_ context.Context, userID string, rt models.RefreshToken) (bool, error) {
	u := m.get(userID)
	if u == nil {
		return false, nil
	}
	tokens := slices.DeleteFunc(slices.Clone(u.RefreshTokens), func(old models.RefreshToken) bool { return old.DeviceID == rt.DeviceID })
	u.RefreshTokens = append(tokens, rt)
	return true, nil
}

func (m memUsers) RemoveRefreshToken(_ context.Context, userID, deviceID string) (bool, error) {
	u := m.get(userID)
	if u == nil {
		return false, nil
	}
	n := len(u.RefreshTokens)
	u.RefreshTokens = slices.DeleteFunc(slices.Clone(u.RefreshTokens), func(rt models.RefreshToken) bool { return rt.DeviceID == deviceID })
	return len(u.RefreshTokens) < n, nil
}

func (m memUsers) SetDeviceToken(_ context.Context, userID, token string) (bool, error) {
	u := m.get(userID)
	if u == nil {
		return false, nil
	}
	u.DeviceToken = token
	return true, nil
}

func (m memUsers) SetActive(_ context.Context, userID string, active bool) (bool, error) {
	u := m.get(userID)
	if u == nil {
		return false, nil
	}
	u.IsActive = active
	if !active {
		u.RefreshTokens = []models.RefreshToken{}
	}
	return true, nil
}

type memGroups struct{ db *memDB }

func (m memGroups) Create(_ context.Context, g *models.Group) (primitive.ObjectID, error) {
	for _, other := range m.db.groups {
		if other.Slug == g.Slug {
			return primitive.NilObjectID, errors.New("duplicate slug")
		}
	}
	g.ID = primitive.NewObjectID()
	g.Version = 1
	g.Normalize()
	c := *g
	m.db.groups[g.ID] = &c
	return g.ID, nil
}

func (m memGroups) FindByID(_ context.Context, id string) (*models.Group, error) {
	gid, err := oid(id)
	if err != nil {
		return nil, err
	}
	g, ok := m.db.groups[gid]
	if !ok {
		return nil, nil
	}
	c := *g
	return &c, nil
}

func (m memGroups) SlugExists(_ context.Context, slug string) (bool, error) {
	for _, g := range m.db.groups {
		if g.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m memGroups) list(g *models.Group, list models.GroupList) *[]primitive.ObjectID {
	switch list {
	case models.GroupOwners:
		return &g.Owners
	case models.GroupMembers:
		return &g.Members
	}
	return &g.Requests
}

func (m memGroups) AddToList(_ context.Context, groupID string, list models.GroupList, userID string) (bool, error) {
	gid, _ := oid(groupID)
	uid, _ := oid(userID)
	g, ok := m.db.groups[gid]
	if !ok || g.Role(uid) != models.RoleNone {
		return false, nil
	}
	l := m.list(g, list)
	*l = append(slices.Clone(*l), uid)
	return true, nil
}

func (m memGroups) RemoveFromList(_ context.Context, groupID string, list models.GroupList, userID string) (bool, error) {
	gid, _ := oid(groupID)
	uid, _ := oid(userID)
	g, ok := m.db.groups[gid]
	if !ok {
		return false, nil
	}
	l := m.list(g, list)
	if !models.ContainsID(*l, uid) {
		return false, nil
	}
	*l = removeID(*l, uid)
	return true, nil
}

func (m memGroups) MoveRequestToMembers(_ context.Context, groupID, userID string) (bool, error) {
	gid, _ := oid(groupID)
	uid, _ := oid(userID)
	g, ok := m.db.groups[gid]
	if !ok || !models.ContainsID(g.Requests, uid) {
		return false, nil
	}
	g.Requests = removeID(g.Requests, uid)
	g.Members = append(slices.Clone(g.Members), uid)
	return true, nil
}

func (m memGroups) Update(_ context.Context, groupID string, patch models.GroupPatch, expectedVersion *int64) (*models.Group, error) {
	gid, _ := oid(groupID)
	g, ok := m.db.groups[gid]
	if !ok || (expectedVersion != nil && g.Version != *expectedVersion) {
		return nil, nil
	}
	if patch.Name != nil {
		g.Name = *patch.Name
	}
	if patch.Description != nil {
		g.Description = *patch.Description
	}
	g.Version++
	c := *g
	return &c, nil
}

func (m memGroups) Delete(_ context.Context, groupID string) (*models.Group, error) {
	gid, _ := oid(groupID)
	g, ok := m.db.groups[gid]
	if !ok {
		return nil, nil
	}
	delete(m.db.groups, gid)
	c := *g
	return &c, nil
}

func (m memGroups) Search(context.Context, string, string, int64) ([]models.Group, error) {
	return nil, errNotImplemented
}

type memUserGroups struct {
	db     *memDB
	failOn primitive.ObjectID
}

func (m memUserGroups) Create(_ context.Context, ug *models.UserGroups) (primitive.ObjectID, error) {
	ug.ID = primitive.NewObjectID()
	c := *ug.Normalize()
	m.db.userGroups[ug.UserID] = &c
	return ug.ID, nil
}

func (m memUserGroups) FindByUserID(_ context.Context, userID string) (*models.UserGroups, error) {
	uid, _ := oid(userID)
	ug, ok := m.db.userGroups[uid]
	if !ok {
		return nil, nil
	}
	c := *ug
	return &c, nil
}

func (m memUserGroups) Add(_ context.Context, userID string, groupID primitive.ObjectID) (bool, error) {
	uid, _ := oid(userID)
	if uid == m.failOn {
		return false, errors.New("connection reset")
	}
	ug, ok := m.db.userGroups[uid]
	if !ok {
		return false, nil
	}
	if !models.ContainsID(ug.Groups, groupID) {
		ug.Groups = append(slices.Clone(ug.Groups), groupID)
	}
	return true, nil
}

func (m memUserGroups) Remove(_ context.Context, userID string, groupID primitive.ObjectID) (bool, error) {
	uid, _ := oid(userID)
	ug, ok := m.db.userGroups[uid]
	if !ok {
		return false, nil
	}
	ug.Groups = removeID(ug.Groups, groupID)
	return true, nil
}

func (m memUserGroups) RemoveFromAll(_ context.Context, userIDs []primitive.ObjectID, groupID primitive.ObjectID) error {
	for _, id := range userIDs {
		if ug, ok := m.db.userGroups[id]; ok {
			ug.Groups = removeID(ug.Groups, groupID)
		}
	}
	return nil
}

func (m memUserGroups) Groups(context.Context, string) ([]models.Group, error) {
	return nil, errNotImplemented
}

type memEvents struct{ db *memDB }

func (m memEvents) Create(_ context.Context, e *models.Event) (primitive.ObjectID, error) {
	e.ID = primitive.NewObjectID()
	e.Version = 1
	e.Normalize()
	c := *e
	m.db.events[e.ID] = &c
	return e.ID, nil
}

func (m memEvents) FindByID(_ context.Context, id string) (*models.Event, error) {
	eid, err := oid(id)
	if err != nil {
		return nil, err
	}
	e, ok := m.db.events[eid]
	if !ok {
		return nil, nil
	}
	c := *e
	return &c, nil
}

func (m memEvents) AddInvitees(_ context.Context, eventID primitive.ObjectID, invitees []primitive.ObjectID) (bool, error) {
	e, ok := m.db.events[eventID]
	if !ok {
		return false, nil
	}
	e.Invitees = append(slices.Clone(e.Invitees), invitees...)
	return true, nil
}

func (m memEvents) Update(context.Context, string, models.EventPatch, *int64) (*models.Event, error) {
	return nil, errNotImplemented
}

func (m memEvents) Delete(_ context.Context, eventID primitive.ObjectID) (*models.Event, error) {
	e, ok := m.db.events[eventID]
	if !ok {
		return nil, nil
	}
	delete(m.db.events, eventID)
	c := *e
	return &c, nil
}

type memUserEvents struct {
	db         *memDB
	failOn     primitive.ObjectID
	failCreate bool
}

func (m memUserEvents) Create(_ context.Context, ue *models.UserEvents) (primitive.ObjectID, error) {
	if m.failCreate {
		return primitive.NilObjectID, errors.New("connection reset")
	}
	ue.ID = primitive.NewObjectID()
	c := *ue.Normalize()
	m.db.userEvents[ue.UserID] = &c
	return ue.ID, nil
}

func (m memUserEvents) FindByUserID(_ context.Context, userID string) (*models.UserEvents, error) {
	uid, _ := oid(userID)
	ue, ok := m.db.userEvents[uid]
	if !ok {
		return nil, nil
	}
	c := *ue
	return &c, nil
}

func (m memUserEvents) AddEvent(_ context.Context, userID, eventID primitive.ObjectID, status models.EventStatus) (bool, error) {
	if userID == m.failOn {
		return false, errors.New("connection reset")
	}
	ue, ok := m.db.userEvents[userID]
	if !ok {
		return false, nil
	}
	for _, ref := range ue.Events {
		if ref.EventID == eventID {
			return false, nil
		}
	}
	ue.Events = append(slices.Clone(ue.Events), models.EventRef{EventID: eventID, Status: status, UpdatedAt: time.Now()})
	return true, nil
}

func (m memUserEvents) SetStatus(_ context.Context, userID, eventID string, status models.EventStatus) (bool, error) {
	uid, _ := oid(userID)
	eid, _ := oid(eventID)
	ue, ok := m.db.userEvents[uid]
	if !ok {
		return false, nil
	}
	for i, ref := range ue.Events {
		if ref.EventID == eid && ref.Status != models.EventAdmin {
			ue.Events = slices.Clone(ue.Events)
			ue.Events[i].Status = status
			return true, nil
		}
	}
	return false, nil
}

func (m memUserEvents) RemoveEvent(_ context.Context, userIDs []primitive.ObjectID, eventID primitive.ObjectID) error {
	for _, id := range userIDs {
		if ue, ok := m.db.userEvents[id]; ok {
			ue.Events = slices.DeleteFunc(slices.Clone(ue.Events), func(r models.EventRef) bool { return r.EventID == eventID })
		}
	}
	return nil
}

func (m memUserEvents) ListEvents(context.Context, string, *time.Time, *time.Time) ([]models.UserEventView, error) {
	return nil, errNotImplemented
}

func (m memUserEvents) status(userID, eventID primitive.ObjectID) (models.EventStatus, bool) {
	ue, ok := m.db.userEvents[userID]
	if !ok {
		return "", false
	}
	for _, ref := range ue.Events {
		if ref.EventID == eventID {
			return ref.Status, true
		}
	}
	return "", false
}

type memFollows struct{ db *memDB }

func (m memFollows) Create(_ context.Context, f *models.Follow) (primitive.ObjectID, error) {
	f.ID = primitive.NewObjectID()
	c := *f.Normalize()
	m.db.follows[f.UserID] = &c
	return f.ID, nil
}

func (m memFollows) FindByUserID(_ context.Context, userID string) (*models.Follow, error) {
	uid, _ := oid(userID)
	f, ok := m.db.follows[uid]
	if !ok {
		return nil, nil
	}
	c := *f
	return &c, nil
}

func (m memFollows) list(f *models.Follow, list models.FollowList) *[]primitive.ObjectID {
	switch list {
	case models.FollowingList:
		return &f.Following
	case models.FollowersList:
		return &f.Followers
	}
	return &f.Requests
}

func (m memFollows) Add(_ context.Context, userID string, list models.FollowList, otherID string) (bool, error) {
	uid, _ := oid(userID)
	other, _ := oid(otherID)
	f, ok := m.db.follows[uid]
	if !ok {
		return false, nil
	}
	l := m.list(f, list)
	if models.ContainsID(*l, other) {
		return false, nil
	}
	switch list {
	case models.FollowersList:
		if models.ContainsID(f.Requests, other) {
			return false, nil
		}
	case models.RequestsList:
		if models.ContainsID(f.Followers, other) {
			return false, nil
		}
	}
	*l = append(slices.Clone(*l), other)
	return true, nil
}

func (m memFollows) Remove(_ context.Context, userID string, list models.FollowList, otherID string) (bool, error) {
	uid, _ := oid(userID)
	other, _ := oid(otherID)
	f, ok := m.db.follows[uid]
	if !ok {
		return false, nil
	}
	l := m.list(f, list)
	if !models.ContainsID(*l, other) {
		return false, nil
	}
	*l = removeID(*l, other)
	return true, nil
}

func (m memFollows) ListProfiles(context.Context, string, models.FollowList, pagination.Page) ([]models.Profile, error) {
	return nil, errNotImplemented
}

type memProfiles struct{ db *memDB }

func (m memProfiles) Create(_ context.Context, p *models.Profile) (primitive.ObjectID, error) {
	p.ID = primitive.NewObjectID()
	if p.Visibility == "" {
		p.Visibility = models.VisibilityPublic
	}
	c := *p.Normalize()
	m.db.profiles[p.UserID] = &c
	return p.ID, nil
}

func (m memProfiles) FindByUserID(_ context.Context, userID string) (*models.Profile, error) {
	uid, _ := oid(userID)
	p, ok := m.db.profiles[uid]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (m memProfiles) Update(context.Context, string, models.ProfilePatch) (*models.Profile, error) {
	return nil, errNotImplemented
}

func (m memProfiles) SetAvatar(context.Context, string, string) (bool, error) {
	return false, errNotImplemented
}

func (m memProfiles) AddSection(_ context.Context, userID string, s models.CustomSection) (bool, error) {
	uid, _ := oid(userID)
	p, ok := m.db.profiles[uid]
	if !ok {
		return false, nil
	}
	for _, existing := range p.Sections {
		if existing.Title == s.Title {
			return false, nil
		}
	}
	p.Sections = append(slices.Clone(p.Sections), s)
	return true, nil
}

func (m memProfiles) ReplaceSection(_ context.Context, userID, title string, s models.CustomSection) (bool, error) {
	uid, _ := oid(userID)
	p, ok := m.db.profiles[uid]
	if !ok {
		return false, nil
	}
	idx := -1
	for i, existing := range p.Sections {
		if existing.Title == title {
			idx = i
		} else if existing.Title == s.Title {
			return false, nil
		}
	}
	if idx < 0 {
		return false, nil
	}
	p.Sections = slices.Clone(p.Sections)
	p.Sections[idx] = s
	return true, nil
}

func (m memProfiles) RemoveSection(_ context.Context, userID, title string) (bool, error) {
	uid, _ := oid(userID)
	p, ok := m.db.profiles[uid]
	if !ok {
		return false, nil
	}
	n := len(p.Sections)
	p.Sections = slices.DeleteFunc(slices.Clone(p.Sections), func(s models.CustomSection) bool { return s.Title == title })
	return len(p.Sections) < n, nil
}

func (m memProfiles) Search(context.Context, string, pagination.Page) ([]models.Profile, error) {
	return nil, errNotImplemented
}

type memPrograms struct{ db *memDB }

func (m memPrograms) Create(_ context.Context, p *models.Program) (primitive.ObjectID, error) {
	p.ID = primitive.NewObjectID()
	p.Normalize()
	c := *p
	m.db.programs[p.ID] = &c
	return p.ID, nil
}

func (m memPrograms) FindByID(_ context.Context, id string) (*models.Program, error) {
	pid, err := oid(id)
	if err != nil {
		return nil, err
	}
	p, ok := m.db.programs[pid]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (m memPrograms) ListByOwner(context.Context, string) ([]models.Program, error) {
	return nil, errNotImplemented
}

func (m memPrograms) Update(context.Context, string, models.ProgramPatch) (*models.Program, error) {
	return nil, errNotImplemented
}

func (m memPrograms) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	if _, ok := m.db.programs[id]; !ok {
		return false, nil
	}
	delete(m.db.programs, id)
	return true, nil
}

func (m memPrograms) PushWeek(_ context.Context, programID, weekID primitive.ObjectID) (bool, error) {
	p, ok := m.db.programs[programID]
	if !ok {
		return false, nil
	}
	p.WeekIDs = append(slices.Clone(p.WeekIDs), weekID)
	return true, nil
}

func (m memPrograms) PullWeek(_ context.Context, programID, weekID primitive.ObjectID) (bool, error) {
	p, ok := m.db.programs[programID]
	if !ok {
		return false, nil
	}
	p.WeekIDs = removeID(p.WeekIDs, weekID)
	return true, nil
}

func (m memPrograms) Tree(context.Context, string) (*models.ProgramTree, error) {
	return nil, errNotImplemented
}

type memWeeks struct{ db *memDB }

// errDuplicateWeek mimics the driver's duplicate key error for (program_id, week_number).
var errDuplicateWeek = mongo.WriteException{WriteErrors: []mongo.WriteError{{
	Code:    11000,
	Message: "E11000 duplicate key error collection: fitcoach.weeks index: program_id_1_week_number_1 dup key: { program_id: ObjectId('0'), week_number: 1 }",
}}}

func (m memWeeks) Create(_ context.Context, w *models.Week) (primitive.ObjectID, error) {
	for _, other := range m.db.weeks {
		if other.ProgramID == w.ProgramID && other.WeekNumber == w.WeekNumber {
			return primitive.NilObjectID, errDuplicateWeek
		}
	}
	w.ID = primitive.NewObjectID()
	w.Version = 1
	c := *w
	m.db.weeks[w.ID] = &c
	return w.ID, nil
}

func (m memWeeks) FindByID(_ context.Context, id string) (*models.Week, error) {
	wid, err := oid(id)
	if err != nil {
		return nil, err
	}
	w, ok := m.db.weeks[wid]
	if !ok {
		return nil, nil
	}
	c := *w
	return &c, nil
}

func (m memWeeks) ReplaceWorkouts(_ context.Context, id string, workouts []models.Workout, expectedVersion *int64) (*models.Week, error) {
	wid, _ := oid(id)
	w, ok := m.db.weeks[wid]
	if !ok || (expectedVersion != nil && w.Version != *expectedVersion) {
		return nil, nil
	}
	w.Workouts = workouts
	w.Version++
	c := *w
	return &c, nil
}

func (m memWeeks) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	if _, ok := m.db.weeks[id]; !ok {
		return false, nil
	}
	delete(m.db.weeks, id)
	return true, nil
}

func (m memWeeks) DeleteByProgram(_ context.Context, programID primitive.ObjectID) (int64, error) {
	var n int64
	for id, w := range m.db.weeks {
		if w.ProgramID == programID {
			delete(m.db.weeks, id)
			n++
		}
	}
	return n, nil
}

type memNotes struct{}

func (memNotes) Create(context.Context, *models.Note) (primitive.ObjectID, error) {
	return primitive.NewObjectID(), nil
}

func (memNotes) ListByProgram(context.Context, string, pagination.Page) ([]models.Note, error) {
	return []models.Note{}, nil
}

func (memNotes) Delete(context.Context, string, string) (bool, error) { return false, nil }

func (memNotes) DeleteByProgram(context.Context, primitive.ObjectID) error { return nil }

type memMeals struct{ db *memDB }

func (m memMeals) Create(_ context.Context, t *models.MealTemplate) (primitive.ObjectID, error) {
	t.ID = primitive.NewObjectID()
	t.Version = 1
	t.Totals = nutrition.MealTotals(t.Ingredients)
	c := *t
	m.db.meals[t.ID] = &c
	return t.ID, nil
}

func (m memMeals) FindByID(_ context.Context, id string) (*models.MealTemplate, error) {
	mid, err := oid(id)
	if err != nil {
		return nil, err
	}
	t, ok := m.db.meals[mid]
	if !ok {
		return nil, nil
	}
	c := *t
	c.Ingredients = slices.Clone(t.Ingredients)
	return &c, nil
}

func (m memMeals) Update(_ context.Context, id, name string, ingredients []nutrition.Ingredient, expectedVersion *int64) (*models.MealTemplate, error) {
	mid, _ := oid(id)
	t, ok := m.db.meals[mid]
	if !ok || (expectedVersion != nil && t.Version != *expectedVersion) {
		return nil, nil
	}
	t.Name, t.Ingredients = name, ingredients
	t.Totals = nutrition.MealTotals(ingredients)
	t.Version++
	c := *t
	return &c, nil
}

func (m memMeals) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	if _, ok := m.db.meals[id]; !ok {
		return false, nil
	}
	delete(m.db.meals, id)
	return true, nil
}

func (m memMeals) DeleteByProgram(context.Context, primitive.ObjectID) error { return nil }

func (m memMeals) ListByOwner(context.Context, string, string) ([]models.MealTemplate, error) {
	return nil, errNotImplemented
}

type memMealLogs struct{ db *memDB }

func (m memMealLogs) Create(_ context.Context, l *models.MealLog) (primitive.ObjectID, error) {
	l.ID = primitive.NewObjectID()
	m.db.mealLogs = append(m.db.mealLogs, *l)
	return l.ID, nil
}

func (m memMealLogs) ListRange(_ context.Context, userID string, from, to time.Time) ([]models.MealLog, error) {
	uid, _ := oid(userID)
	var out []models.MealLog
	for _, l := range m.db.mealLogs {
		if l.UserID == uid && !l.EatenAt.Before(from) && l.EatenAt.Before(to) {
			out = append(out, l)
		}
	}
	return out, nil
}

// recordingBus captures published notifications.
type recordingBus struct {
	sent []realtime.Notification
}

func (b *recordingBus) Publish(_ context.Context, n realtime.Notification) error {
	b.sent = append(b.sent, n)
	return nil
}

func testLogger() zerolog.Logger { return zerolog.Nop() }

func newCoordinator(db *memDB) *Coordinator {
	return NewCoordinator(db, testLogger())
}
