package services

import (
	"context"
	"log"
	"strings"
	"time"

	"triptracker/events"
	"triptracker/models"
	"triptracker/repository"
	"triptracker/store"
	"triptracker/utils/errors"
)

var (
	ErrSelfFollow = errors.NewAPIError("SELF_FOLLOW", "Cannot follow yourself", errors.ErrInvalidInput.Status)
	ErrNoMail     = errors.NewAPIError("INVALID_PROFILE", "Mail is required", errors.ErrInvalidInput.Status)
)

type ProfileService struct {
	profiles    *repository.ProfileRepository
	itineraries *repository.ItineraryRepository
	publisher   events.Publisher
}

func NewProfileService(profiles *repository.ProfileRepository, itineraries *repository.ItineraryRepository, publisher events.Publisher) *ProfileService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &ProfileService{profiles: profiles, itineraries: itineraries, publisher: publisher}
}

func (s *ProfileService) List(ctx context.Context) ([]models.UserProfile, error) {
	return s.profiles.ListAll(ctx)
}

func (s *ProfileService) Search(ctx context.Context, query string) ([]models.UserProfile, error) {
	all, err := s.profiles.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return SearchProfiles(all, query), nil
}

// Get resolves the profile together with its followers and followed profiles.
// Mails of profiles that no longer exist are skipped but kept in storage.
func (s *ProfileService) Get(ctx context.Context, mail string) (models.ProfileView, error) {
	p, err := s.profiles.Get(ctx, mail)
	if err != nil {
		return models.ProfileView{}, err
	}
	followers, err := s.profiles.Followers(ctx, mail)
	if err != nil {
		return models.ProfileView{}, err
	}

	view := models.ProfileView{
		UserProfile:   p,
		Followers:     make([]models.ProfileSummary, 0, len(followers)),
		FollowingList: make([]models.ProfileSummary, 0, len(p.Following)),
	}
	for _, f := range followers {
		view.Followers = append(view.Followers, f.Summary())
	}
	for _, m := range p.Following {
		followed, err := s.profiles.Get(ctx, m)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return models.ProfileView{}, err
		}
		view.FollowingList = append(view.FollowingList, followed.Summary())
	}
	return view, nil
}

// Create stores a new profile. Relations and favourites start empty.
func (s *ProfileService) Create(ctx context.Context, p models.UserProfile) error {
	p.Mail = strings.TrimSpace(p.Mail)
	if p.Mail == "" {
		return ErrNoMail
	}
	p.Following = []string{}
	p.FavoritesPaths = []string{}
	err := s.profiles.Insert(ctx, p)
	if errors.Is(err, store.ErrAlreadyExists) {
		return errors.NewAPIError("PROFILE_EXISTS", "Profile already exists", errors.ErrConflict.Status)
	}
	return err
}

// UpdateDetails rewrites the editable fields of the stored profile.
func (s *ProfileService) UpdateDetails(ctx context.Context, mail string, details models.UserProfile) (models.UserProfile, error) {
	var updated models.UserProfile
	err := s.profiles.Mutate(ctx, mail, func(p *models.UserProfile) error {
		p.Name = details.Name
		p.Surname = details.Surname
		p.Pseudo = details.Pseudo
		p.Bio = details.Bio
		p.ProfileImageURL = details.ProfileImageURL
		updated = *p
		return nil
	})
	return updated, err
}

// Remove deletes the profile and its credential only. Other profiles keep
// the mail in their following lists.
func (s *ProfileService) Remove(ctx context.Context, mail string) error {
	if err := s.profiles.Remove(ctx, mail); err != nil {
		return err
	}
	if err := s.profiles.RemoveCredential(ctx, mail); err != nil {
		log.Printf("Failed to remove credential of %s: %v", mail, err)
	}
	return nil
}

// Follow records that actor follows target. The relation lives in one
// document, so it either exists for both sides or for neither.
func (s *ProfileService) Follow(ctx context.Context, actor, target string) error {
	if actor == target {
		return ErrSelfFollow
	}
	if _, err := s.profiles.Get(ctx, target); err != nil {
		return err
	}
	err := s.profiles.Mutate(ctx, actor, func(p *models.UserProfile) error {
		if !p.IsFollowing(target) {
			p.Following = append(p.Following, target)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.ProfileFollowed, events.RelationEvent{Actor: actor, Target: target, At: time.Now()})
	return nil
}

func (s *ProfileService) Unfollow(ctx context.Context, actor, target string) error {
	err := s.profiles.Mutate(ctx, actor, func(p *models.UserProfile) error {
		p.Following = without(p.Following, target)
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.ProfileUnfollowed, events.RelationEvent{Actor: actor, Target: target, At: time.Now()})
	return nil
}

// RemoveFollower makes follower stop following user.
func (s *ProfileService) RemoveFollower(ctx context.Context, user, follower string) error {
	return s.Unfollow(ctx, follower, user)
}

func (s *ProfileService) AddFavourite(ctx context.Context, mail, itineraryID string) error {
	if _, err := s.itineraries.Get(ctx, itineraryID); err != nil {
		return err
	}
	return s.profiles.Mutate(ctx, mail, func(p *models.UserProfile) error {
		for _, id := range p.FavoritesPaths {
			if id == itineraryID {
				return nil
			}
		}
		p.FavoritesPaths = append(p.FavoritesPaths, itineraryID)
		return nil
	})
}

func (s *ProfileService) RemoveFavourite(ctx context.Context, mail, itineraryID string) error {
	return s.profiles.Mutate(ctx, mail, func(p *models.UserProfile) error {
		p.FavoritesPaths = without(p.FavoritesPaths, itineraryID)
		return nil
	})
}

// Favourites resolves the favourite itineraries, skipping removed ones.
func (s *ProfileService) Favourites(ctx context.Context, mail string) ([]models.Itinerary, error) {
	p, err := s.profiles.Get(ctx, mail)
	if err != nil {
		return nil, err
	}
	out := make([]models.Itinerary, 0, len(p.FavoritesPaths))
	for _, id := range p.FavoritesPaths {
		it, err := s.itineraries.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *ProfileService) publish(ctx context.Context, subject string, payload any) {
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		log.Printf("Failed to publish %s: %v", subject, err)
	}
}

func without(list []string, value string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}
