package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/AnshRaj112/fitcoach-backend/internal/apperror"
	"github.com/AnshRaj112/fitcoach-backend/internal/models"
	"github.com/AnshRaj112/fitcoach-backend/internal/pagination"
	"github.com/AnshRaj112/fitcoach-backend/internal/realtime"
	"github.com/AnshRaj112/fitcoach-backend/internal/repositories"
)

// FollowService keeps both sides of every follow edge in step: A following B
// always means B has A as a follower.
type FollowService struct {
	coord    *Coordinator
	follows  FollowStore
	profiles ProfileStore
	notify   notifier
	log      zerolog.Logger
}

func NewFollowService(coord *Coordinator, follows FollowStore, profiles ProfileStore, pub realtime.Publisher, log zerolog.Logger) *FollowService {
	return &FollowService{
		coord:    coord,
		follows:  follows,
		profiles: profiles,
		notify:   newNotifier(pub, log),
		log:      log,
	}
}

// addStep adds other to user's list, treating a miss as onMiss.
func (s *FollowService) addStep(name, userID string, list models.FollowList, otherID string, onMiss error) Step {
	return Step{Name: name, Run: func(ctx context.Context) error {
		matched, err := s.follows.Add(ctx, userID, list, otherID)
		return must(matched, err, onMiss)
	}}
}

func (s *FollowService) removeStep(name, userID string, list models.FollowList, otherID string, onMiss error) Step {
	return Step{Name: name, Run: func(ctx context.Context) error {
		matched, err := s.follows.Remove(ctx, userID, list, otherID)
		return must(matched, err, onMiss)
	}}
}

// graph loads both follow documents, failing when either is missing.
func (s *FollowService) graph(ctx context.Context, callerID, targetID string) (*models.Follow, *models.Follow, error) {
	caller, err := s.follows.FindByUserID(ctx, callerID)
	if err != nil {
		return nil, nil, apperror.Classify(err)
	}
	if caller == nil {
		return nil, nil, apperror.NotFound("user", callerID)
	}
	target, err := s.follows.FindByUserID(ctx, targetID)
	if err != nil {
		return nil, nil, apperror.Classify(err)
	}
	if target == nil {
		return nil, nil, apperror.NotFound("user", targetID)
	}
	return caller, target, nil
}

// Follow follows a public profile directly or requests a private one.
func (s *FollowService) Follow(ctx context.Context, callerID, targetID string) (models.FollowStatus, error) {
	if callerID == targetID {
		return "", apperror.BadRequest("you cannot follow yourself")
	}
	profile, err := s.profiles.FindByUserID(ctx, targetID)
	if err != nil {
		return "", apperror.Classify(err)
	}
	if profile == nil {
		return "", apperror.NotFound("user", targetID)
	}
	caller, target, err := s.graph(ctx, callerID, targetID)
	if err != nil {
		return "", err
	}
	if models.ContainsID(caller.Following, target.UserID) {
		return "", apperror.Conflict("already following this user")
	}
	if models.ContainsID(target.Requests, caller.UserID) {
		return "", apperror.Conflict("follow request already pending")
	}

	if profile.Visibility == models.VisibilityPrivate {
		err := s.coord.Run(ctx, "follow_request",
			s.addStep("target_requests", targetID, models.RequestsList, callerID, apperror.Conflict("follow request already pending")),
		)
		if err != nil {
			return "", err
		}
		s.notify.send(ctx, realtime.Notification{
			Type:    realtime.FollowRequested,
			UserID:  targetID,
			Payload: map[string]string{"from_user_id": callerID},
		})
		return models.FollowStatusRequested, nil
	}

	err = s.coord.Run(ctx, "follow",
		s.addStep("caller_following", callerID, models.FollowingList, targetID, apperror.Conflict("already following this user")),
		s.addStep("target_followers", targetID, models.FollowersList, callerID, apperror.Conflict("already following this user")),
	)
	if err != nil {
		return "", err
	}
	return models.FollowStatusFollowing, nil
}

// AcceptRequest turns requesterID's pending request on callerID into a follow.
func (s *FollowService) AcceptRequest(ctx context.Context, callerID, requesterID string) error {
	err := s.coord.Run(ctx, "accept_follow",
		s.removeStep("caller_requests", callerID, models.RequestsList, requesterID, apperror.NotFound("follow request", requesterID)),
		s.addStep("caller_followers", callerID, models.FollowersList, requesterID, apperror.Conflict("already a follower")),
		s.addStep("requester_following", requesterID, models.FollowingList, callerID, apperror.Conflict("already following this user")),
	)
	if err != nil {
		return err
	}
	s.notify.send(ctx, realtime.Notification{
		Type:    realtime.FollowAccepted,
		UserID:  requesterID,
		Payload: map[string]string{"by_user_id": callerID},
	})
	return nil
}

func (s *FollowService) DeclineRequest(ctx context.Context, callerID, requesterID string) error {
	return s.coord.Run(ctx, "decline_follow",
		s.removeStep("caller_requests", callerID, models.RequestsList, requesterID, apperror.NotFound("follow request", requesterID)),
	)
}

// Unfollow drops a follow, or withdraws a pending request.
func (s *FollowService) Unfollow(ctx context.Context, callerID, targetID string) error {
	if callerID == targetID {
		return apperror.BadRequest("you cannot unfollow yourself")
	}
	caller, target, err := s.graph(ctx, callerID, targetID)
	if err != nil {
		return err
	}
	if !models.ContainsID(caller.Following, target.UserID) && models.ContainsID(target.Requests, caller.UserID) {
		return s.coord.Run(ctx, "withdraw_follow_request",
			s.removeStep("target_requests", targetID, models.RequestsList, callerID, apperror.NotFound("follow request", callerID)),
		)
	}
	return s.coord.Run(ctx, "unfollow",
		s.removeStep("caller_following", callerID, models.FollowingList, targetID, apperror.NotFound("follow", targetID)),
		s.removeStep("target_followers", targetID, models.FollowersList, callerID, apperror.NotFound("follow", targetID)),
	)
}

// RemoveFollower makes followerID stop following callerID.
func (s *FollowService) RemoveFollower(ctx context.Context, callerID, followerID string) error {
	return s.coord.Run(ctx, "remove_follower",
		s.removeStep("caller_followers", callerID, models.FollowersList, followerID, apperror.NotFound("follower", followerID)),
		s.removeStep("follower_following", followerID, models.FollowingList, callerID, apperror.NotFound("follower", followerID)),
	)
}

func (s *FollowService) Followers(ctx context.Context, userID, cursor string, limit int) (*pagination.Result[*models.ProfileResponse], error) {
	return s.list(ctx, userID, models.FollowersList, cursor, limit)
}

func (s *FollowService) Following(ctx context.Context, userID, cursor string, limit int) (*pagination.Result[*models.ProfileResponse], error) {
	return s.list(ctx, userID, models.FollowingList, cursor, limit)
}

// Requests lists the users waiting for userID's approval.
func (s *FollowService) Requests(ctx context.Context, userID, cursor string, limit int) (*pagination.Result[*models.ProfileResponse], error) {
	return s.list(ctx, userID, models.RequestsList, cursor, limit)
}

func (s *FollowService) list(ctx context.Context, userID string, list models.FollowList, cursor string, limit int) (*pagination.Result[*models.ProfileResponse], error) {
	if _, err := repositories.ObjectID("userId", userID); err != nil {
		return nil, apperror.Classify(err)
	}
	page, err := pagination.NewPage(cursor, limit)
	if err != nil {
		return nil, apperror.Invalid("cursor", "Cursor is invalid")
	}
	rows, err := s.follows.ListProfiles(ctx, userID, list, page)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	return profilePage(rows, page), nil
}
