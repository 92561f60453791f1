package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes

	"shop_api/internal/apperr"  // Error taxonomy
	"shop_api/internal/service" // Profile workflows

	"github.com/gin-gonic/gin" // Gin web framework
)

// multipartOverhead is allowed on top of the file limit for form framing
const multipartOverhead = 1 << 20

// GetProfileHandler returns the caller's profile, creating it on first use
func GetProfileHandler(profiles *service.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			return
		}
		profile, err := profiles.GetOrCreate(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, profile)
	}
}

// UpdateProfileHandler applies a partial profile update
func UpdateProfileHandler(profiles *service.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			return
		}
		var req service.ProfileInput // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		profile, err := profiles.Update(c.Request.Context(), userID, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, profile)
	}
}

// UploadPhotoHandler stores the multipart "profileImage" file as the
// caller's profile picture
func UploadPhotoHandler(profiles *service.ProfileService) gin.HandlerFunc {
	maxBytes := profiles.MaxUploadBytes() // Limit enforced by the uploader
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			return
		}
		// Bound the whole body so oversize uploads are not buffered
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)
		header, err := c.FormFile(service.ProfileField)
		if err != nil {
			var maxErr *http.MaxBytesError
			switch {
			case errors.As(err, &maxErr):
				respondError(c, apperr.Upload(apperr.CodeTooLarge, "file exceeds the upload limit", err))
			case errors.Is(err, http.ErrMissingFile):
				respondError(c, apperr.Upload(apperr.CodeNoFile, "no file uploaded in field "+service.ProfileField, err))
			default:
				respondError(c, apperr.Upload(apperr.CodeNoFile, "malformed multipart form", err))
			}
			return
		}
		if header.Size > maxBytes {
			respondError(c, apperr.Upload(apperr.CodeTooLarge, "file exceeds the upload limit", nil))
			return
		}
		file, err := header.Open() // Open the uploaded part
		if err != nil {
			respondError(c, apperr.Upload(apperr.CodeIOFailure, "failed to read upload", err))
			return
		}
		defer file.Close()

		user, err := profiles.UploadPhoto(c.Request.Context(), userID, header.Filename, file)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":       "profile image uploaded", // Status message
			"profile_image": user.ProfileImage,        // Public URL of the image
			"user":          user,                     // Updated user
		})
	}
}
