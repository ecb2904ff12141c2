package service

import (
	"errors"
	"strings"

	"github.com/drifthq/driftchat-backend/internal/models"
	"github.com/drifthq/driftchat-backend/internal/repository"
)

// UserService is the profile-directory collaborator: display names and
// avatars for conversation participants.
type UserService struct {
	userRepo repository.UserRepositoryInterface
}

func NewUserService(userRepo repository.UserRepositoryInterface) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetUserByID(userID uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, errors.New("user not found")
	}
	return user, nil
}

func (s *UserService) GetUsersByIDs(ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.userRepo.FindByIDs(ids)
}

func (s *UserService) SearchUsers(query string, limit int) ([]models.User, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.userRepo.SearchUsers(query, limit)
}

func (s *UserService) SetUserOnline(userID uint) error {
	return s.userRepo.UpdateOnlineStatus(userID, true)
}

func (s *UserService) SetUserOffline(userID uint) error {
	return s.userRepo.UpdateOnlineStatus(userID, false)
}
