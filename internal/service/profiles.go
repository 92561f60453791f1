package service

import (
	"context"
	"errors"
	"io"
	"time"

	"shop_api/internal/apperr"
	"shop_api/internal/domain"
	"shop_api/internal/store"
	"shop_api/internal/upload"
	"shop_api/internal/validation"

	"github.com/sirupsen/logrus"
)

// ProfileField is the multipart field name of a profile picture.
const ProfileField = "profileImage"

// ProfileInput is a partial profile update. Empty fields are left unchanged.
type ProfileInput struct {
	Bio         string              `json:"bio" validate:"max=500"`
	PhoneNumber string              `json:"phone_number" validate:"max=32"`
	Address     domain.Address      `json:"address"`
	Birthdate   *time.Time          `json:"birthdate"`
	Preferences *domain.Preferences `json:"preferences"`
}

// ProfileService manages profiles and profile pictures.
type ProfileService struct {
	profiles store.ProfileStore
	users    *UserService
	uploader *upload.Uploader
}

// NewProfileService creates a ProfileService.
func NewProfileService(profiles store.ProfileStore, users *UserService, uploader *upload.Uploader) *ProfileService {
	return &ProfileService{profiles: profiles, users: users, uploader: uploader}
}

// GetOrCreate returns the user's profile, creating an empty one on first use.
func (s *ProfileService) GetOrCreate(ctx context.Context, userID uint) (*domain.Profile, error) {
	p, err := s.profiles.FindByUserID(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Storage("failed to load profile", err)
	}
	p = &domain.Profile{UserID: userID, Preferences: domain.DefaultPreferences()}
	err = s.profiles.Create(ctx, p)
	if errors.Is(err, store.ErrDuplicate) {
		if p, err = s.profiles.FindByUserID(ctx, userID); err == nil {
			return p, nil
		}
	}
	if err != nil {
		return nil, apperr.Storage("failed to create profile", err)
	}
	return p, nil
}

// MaxUploadBytes is the largest profile picture UploadPhoto accepts.
func (s *ProfileService) MaxUploadBytes() int64 {
	return s.uploader.MaxBytes()
}

// Update overwrites the profile fields that are set in in.
func (s *ProfileService) Update(ctx context.Context, userID uint, in ProfileInput) (*domain.Profile, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	p, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Bio != "" {
		p.Bio = in.Bio
	}
	if in.PhoneNumber != "" {
		p.PhoneNumber = in.PhoneNumber
	}
	mergeAddress(&p.Address, in.Address)
	if in.Birthdate != nil {
		p.Birthdate = in.Birthdate
	}
	if in.Preferences != nil {
		p.Preferences = *in.Preferences
	}
	if err := s.profiles.Save(ctx, p); err != nil {
		return nil, apperr.Storage("failed to save profile", err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id":    userID, // Profile owner
		"profile_id": p.ID,   // Profile ID
	}).Info("Profile updated")
	return p, nil
}

// UploadPhoto stores a new profile picture and points the user at it.
func (s *ProfileService) UploadPhoto(ctx context.Context, userID uint, filename string, body io.Reader) (*domain.User, error) {
	url, err := s.uploader.SaveImage(ctx, ProfileField, filename, body)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id":  userID,      // Uploader
			"filename": filename,    // Client file name
			"error":    err.Error(), // Error message
		}).Warn("Profile image rejected")
		return nil, err
	}
	user, err := s.users.SetProfileImage(ctx, userID, url)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID, // Uploader
		"url":     url,    // Stored image
	}).Info("Profile image uploaded")
	return user, nil
}

func mergeAddress(dst *domain.Address, src domain.Address) {
	if src.Street != "" {
		dst.Street = src.Street
	}
	if src.City != "" {
		dst.City = src.City
	}
	if src.PostalCode != "" {
		dst.PostalCode = src.PostalCode
	}
	if src.Country != "" {
		dst.Country = src.Country
	}
}
