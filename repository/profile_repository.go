package repository

import (
	"context"
	"log"

	"triptracker/models"
	"triptracker/store"
)

const (
	ProfileCollection    = "profiles"
	CredentialCollection = "credentials"
)

type ProfileRepository struct {
	store store.Store
}

func NewProfileRepository(s store.Store) *ProfileRepository {
	return &ProfileRepository{store: s}
}

func (r *ProfileRepository) ListAll(ctx context.Context) ([]models.UserProfile, error) {
	snaps, err := r.store.List(ctx, ProfileCollection)
	if err != nil {
		log.Printf("Error getting all user profiles: %v", err)
		return nil, err
	}
	return decodeProfiles(snaps), nil
}

func (r *ProfileRepository) Get(ctx context.Context, mail string) (models.UserProfile, error) {
	snap, err := r.store.Get(ctx, ProfileCollection, mail)
	if err != nil {
		return models.UserProfile{}, err
	}
	return DecodeProfile(snap.ID, snap.Data), nil
}

// Followers returns the profiles whose following list contains mail.
func (r *ProfileRepository) Followers(ctx context.Context, mail string) ([]models.UserProfile, error) {
	snaps, err := r.store.FindContaining(ctx, ProfileCollection, "following", mail)
	if err != nil {
		log.Printf("Error getting followers of %s: %v", mail, err)
		return nil, err
	}
	return decodeProfiles(snaps), nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, p models.UserProfile) error {
	if err := r.store.Set(ctx, ProfileCollection, p.Mail, EncodeProfile(p)); err != nil {
		log.Printf("Error writing user profile %s: %v", p.Mail, err)
		return err
	}
	return nil
}

// Insert stores a new profile. It fails with store.ErrAlreadyExists when the
// mail is taken.
func (r *ProfileRepository) Insert(ctx context.Context, p models.UserProfile) error {
	if err := r.store.Create(ctx, ProfileCollection, p.Mail, EncodeProfile(p)); err != nil {
		log.Printf("Error creating user profile %s: %v", p.Mail, err)
		return err
	}
	return nil
}

// Mutate applies fn to the stored profile inside a transaction.
func (r *ProfileRepository) Mutate(ctx context.Context, mail string, fn func(*models.UserProfile) error) error {
	err := r.store.Update(ctx, ProfileCollection, mail, func(cur store.Document) (store.Document, error) {
		p := DecodeProfile(mail, cur)
		if err := fn(&p); err != nil {
			return nil, err
		}
		return EncodeProfile(p), nil
	})
	if err != nil {
		log.Printf("Error updating user profile %s: %v", mail, err)
	}
	return err
}

// Remove deletes only the profile document; references to it elsewhere stay.
func (r *ProfileRepository) Remove(ctx context.Context, mail string) error {
	if err := r.store.Delete(ctx, ProfileCollection, mail); err != nil {
		log.Printf("Error removing user profile %s: %v", mail, err)
		return err
	}
	return nil
}

func (r *ProfileRepository) GetCredential(ctx context.Context, mail string) (models.Credential, error) {
	snap, err := r.store.Get(ctx, CredentialCollection, mail)
	if err != nil {
		return models.Credential{}, err
	}
	return models.Credential{Mail: snap.ID, PasswordHash: getString(snap.Data, "passwordHash")}, nil
}

func (r *ProfileRepository) PutCredential(ctx context.Context, c models.Credential) error {
	return r.store.Set(ctx, CredentialCollection, c.Mail, store.Document{
		"mail":         c.Mail,
		"passwordHash": c.PasswordHash,
	})
}

func (r *ProfileRepository) RemoveCredential(ctx context.Context, mail string) error {
	return r.store.Delete(ctx, CredentialCollection, mail)
}

func EncodeProfile(p models.UserProfile) store.Document {
	return store.Document{
		"mail":            p.Mail,
		"name":            p.Name,
		"surname":         p.Surname,
		"pseudo":          p.Pseudo,
		"bio":             p.Bio,
		"profileImageUrl": p.ProfileImageURL,
		"following":       stringList(p.Following),
		"favoritesPaths":  stringList(p.FavoritesPaths),
	}
}

func DecodeProfile(mail string, doc store.Document) models.UserProfile {
	return models.UserProfile{
		Mail:            mail,
		Name:            getString(doc, "name"),
		Surname:         getString(doc, "surname"),
		Pseudo:          getString(doc, "pseudo"),
		Bio:             getString(doc, "bio"),
		ProfileImageURL: getString(doc, "profileImageUrl"),
		Following:       getStrings(doc, "following"),
		FavoritesPaths:  getStrings(doc, "favoritesPaths"),
	}
}

func decodeProfiles(snaps []store.Snapshot) []models.UserProfile {
	out := make([]models.UserProfile, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, DecodeProfile(snap.ID, snap.Data))
	}
	return out
}
