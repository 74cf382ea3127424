package dto

import "github.com/hubtc/portal/internal/app/models"

// UserBasicResponse holds the public directory fields of a user
type UserBasicResponse struct {
	ID              int64   `json:"id" example:"7"`
	FirstName       string  `json:"firstName" example:"Mehmet"`
	LastName        string  `json:"lastName" example:"Demir"`
	HubName         *string `json:"hubName,omitempty" example:"Istanbul"`
	ProfilePhotoURL *string `json:"profilePhotoUrl,omitempty"`
}

// ToUserBasicResponse maps a user to its directory card
func ToUserBasicResponse(user *models.User) UserBasicResponse {
	return UserBasicResponse{
		ID:              user.ID,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		HubName:         user.HubName,
		ProfilePhotoURL: user.ProfilePhotoURL,
	}
}
