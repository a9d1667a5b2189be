package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/AnshRaj112/fitcoach-backend/internal/apperror"
	"github.com/AnshRaj112/fitcoach-backend/internal/cache"
	"github.com/AnshRaj112/fitcoach-backend/internal/logging"
	"github.com/AnshRaj112/fitcoach-backend/internal/models"
	"github.com/AnshRaj112/fitcoach-backend/internal/nutrition"
	"github.com/AnshRaj112/fitcoach-backend/internal/pagination"
)

const (
	maxSectionTitle = 60
	maxSectionItems = 50
	maxBioLength    = 500
)

type ProfileCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

type ProfileService struct {
	profiles   ProfileStore
	follows    FollowStore
	userGroups UserGroupStore
	cache      ProfileCache
	media      Uploader
	log        zerolog.Logger
}

// NewProfileService builds the service. media may be nil when uploads are not configured.
func NewProfileService(profiles ProfileStore, follows FollowStore, userGroups UserGroupStore, c ProfileCache, media Uploader, log zerolog.Logger) *ProfileService {
	if c == nil {
		c = (*cache.Cache)(nil)
	}
	return &ProfileService{
		profiles:   profiles,
		follows:    follows,
		userGroups: userGroups,
		cache:      c,
		media:      media,
		log:        log,
	}
}

func profileKey(userID string) string { return cache.Key("profile", userID) }

// Get returns userID's profile as viewerID sees it.
func (s *ProfileService) Get(ctx context.Context, viewerID, userID string) (*models.ProfileResponse, error) {
	resp, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if viewerID == userID {
		return resp, nil
	}
	return resp.Public(), nil
}

// load reads through the cache. Cache failures only cost a database read.
func (s *ProfileService) load(ctx context.Context, userID string) (*models.ProfileResponse, error) {
	log := logging.FromContext(ctx, s.log)

	var cached models.ProfileResponse
	hit, err := s.cache.Get(ctx, profileKey(userID), &cached)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("profile cache read failed")
	}
	if hit {
		return &cached, nil
	}

	p, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if p == nil {
		return nil, apperror.NotFound("profile", userID)
	}
	resp := p.ToResponse()
	if err := s.cache.Set(ctx, profileKey(userID), resp); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("profile cache write failed")
	}
	return resp, nil
}

func (s *ProfileService) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, profileKey(userID)); err != nil {
		logging.FromContext(ctx, s.log).Warn().Err(err).Str("user_id", userID).Msg("profile cache invalidation failed")
	}
}

type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
	Visibility  *string
	Biometrics  *nutrition.Biometrics
}

func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileUpdate) (*models.ProfileResponse, error) {
	patch := models.ProfilePatch{Biometrics: in.Biometrics}
	var fields []apperror.FieldError

	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		if len(name) > 50 {
			fields = append(fields, apperror.FieldError{Field: "displayName", Message: "Display name must be at most 50 characters"})
		}
		patch.DisplayName = &name
	}
	if in.Bio != nil {
		if len(*in.Bio) > maxBioLength {
			fields = append(fields, apperror.FieldError{Field: "bio", Message: "Bio must be at most 500 characters"})
		}
		patch.Bio = in.Bio
	}
	if in.Visibility != nil {
		v := models.Visibility(strings.ToLower(*in.Visibility))
		if !v.Valid() {
			fields = append(fields, apperror.FieldError{Field: "visibility", Message: "Visibility must be public or private"})
		}
		patch.Visibility = &v
	}
	if in.Biometrics != nil {
		if err := in.Biometrics.Validate(); err != nil {
			fields = append(fields, biometricsField(err))
		}
	}
	if len(fields) > 0 {
		return nil, apperror.Validation(fields...)
	}
	if patch.Empty() {
		return nil, apperror.BadRequest("no fields to update")
	}

	p, err := s.profiles.Update(ctx, userID, patch)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if p == nil {
		return nil, apperror.NotFound("profile", userID)
	}
	s.invalidate(ctx, userID)
	return p.ToResponse(), nil
}

func biometricsField(err error) apperror.FieldError {
	var ve *nutrition.ValidationError
	if errors.As(err, &ve) {
		return apperror.FieldError{Field: "biometrics." + ve.Field, Message: ve.Message}
	}
	return apperror.FieldError{Field: "biometrics", Message: err.Error()}
}

func validateSection(sec models.CustomSection) (models.CustomSection, error) {
	sec.Title = strings.TrimSpace(sec.Title)
	switch {
	case sec.Title == "":
		return sec, apperror.Invalid("title", "Title is required")
	case len(sec.Title) > maxSectionTitle:
		return sec, apperror.Invalid("title", "Title must be at most 60 characters")
	case len(sec.Items) > maxSectionItems:
		return sec, apperror.Invalid("items", "A section holds at most 50 items")
	}
	if sec.Items == nil {
		sec.Items = []models.SectionItem{}
	}
	return sec, nil
}

// CreateSection adds a custom section. Titles are unique per profile.
func (s *ProfileService) CreateSection(ctx context.Context, userID string, sec models.CustomSection) (*models.ProfileResponse, error) {
	sec, err := validateSection(sec)
	if err != nil {
		return nil, err
	}
	matched, err := s.profiles.AddSection(ctx, userID, sec)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if !matched {
		return nil, s.sectionMiss(ctx, userID, "", apperror.Conflict("a section with this title already exists"))
	}
	s.invalidate(ctx, userID)
	return s.load(ctx, userID)
}

// UpdateSection replaces the items of title and optionally renames it.
func (s *ProfileService) UpdateSection(ctx context.Context, userID, title string, newTitle *string, items []models.SectionItem) (*models.ProfileResponse, error) {
	title = strings.TrimSpace(title)
	sec := models.CustomSection{Title: title, Items: items}
	if newTitle != nil {
		sec.Title = *newTitle
	}
	sec, err := validateSection(sec)
	if err != nil {
		return nil, err
	}
	matched, err := s.profiles.ReplaceSection(ctx, userID, title, sec)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if !matched {
		return nil, s.sectionMiss(ctx, userID, title, apperror.Conflict("a section with this title already exists"))
	}
	s.invalidate(ctx, userID)
	return s.load(ctx, userID)
}

func (s *ProfileService) DeleteSection(ctx context.Context, userID, title string) error {
	title = strings.TrimSpace(title)
	matched, err := s.profiles.RemoveSection(ctx, userID, title)
	if err != nil {
		return apperror.Classify(err)
	}
	if !matched {
		return s.sectionMiss(ctx, userID, title, apperror.NotFound("section", title))
	}
	s.invalidate(ctx, userID)
	return nil
}

// sectionMiss explains a section update that matched nothing: the profile is
// missing, the section named title is missing, or otherwise fallback.
func (s *ProfileService) sectionMiss(ctx context.Context, userID, title string, fallback error) error {
	p, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return apperror.Classify(err)
	}
	if p == nil {
		return apperror.NotFound("profile", userID)
	}
	if title != "" {
		if _, ok := p.Section(title); !ok {
			return apperror.NotFound("section", title)
		}
	}
	return fallback
}

// Overview loads the profile and its counters concurrently.
func (s *ProfileService) Overview(ctx context.Context, viewerID, userID string) (*models.ProfileOverview, error) {
	var (
		profile *models.ProfileResponse
		follow  *models.Follow
		groups  *models.UserGroups
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = s.Get(gctx, viewerID, userID)
		return err
	})
	g.Go(func() error {
		var err error
		follow, err = s.follows.FindByUserID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		groups, err = s.userGroups.FindByUserID(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperror.Classify(err)
	}

	out := &models.ProfileOverview{Profile: profile}
	if follow != nil {
		out.FollowerCount = len(follow.Followers)
		out.FollowingCount = len(follow.Following)
	}
	if groups != nil {
		out.GroupCount = len(groups.Groups)
	}
	return out, nil
}

func (s *ProfileService) UploadAvatar(ctx context.Context, userID string, file io.Reader) (*models.ProfileResponse, error) {
	if s.media == nil {
		return nil, apperror.BadRequest("avatar uploads are not configured")
	}
	url, err := s.media.UploadAvatar(ctx, userID, file)
	if err != nil {
		logging.FromContext(ctx, s.log).Error().Err(err).Str("user_id", userID).Msg("avatar upload failed")
		return nil, apperror.Internal("failed to upload avatar").Wrap(err)
	}
	matched, err := s.profiles.SetAvatar(ctx, userID, url)
	if err := must(matched, err, apperror.NotFound("profile", userID)); err != nil {
		return nil, apperror.Classify(err)
	}
	s.invalidate(ctx, userID)
	return s.load(ctx, userID)
}

func (s *ProfileService) Search(ctx context.Context, query, cursor string, limit int) (*pagination.Result[*models.ProfileResponse], error) {
	page, err := pagination.NewPage(cursor, limit)
	if err != nil {
		return nil, apperror.Invalid("cursor", "Cursor is invalid")
	}
	rows, err := s.profiles.Search(ctx, strings.TrimSpace(query), page)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	return profilePage(rows, page), nil
}

// profilePage trims a limit+1 fetch and shapes rows for a non-owner viewer.
func profilePage(rows []models.Profile, page pagination.Page) *pagination.Result[*models.ProfileResponse] {
	res := pagination.Build(rows, page.Limit, func(p models.Profile) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	out := &pagination.Result[*models.ProfileResponse]{
		Items:      make([]*models.ProfileResponse, 0, len(res.Items)),
		NextCursor: res.NextCursor,
		HasMore:    res.HasMore,
	}
	for i := range res.Items {
		out.Items = append(out.Items, res.Items[i].PublicResponse())
	}
	return out
}
