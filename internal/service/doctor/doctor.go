package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicbook/backend/internal/domain"
	"github.com/clinicbook/backend/internal/store"
)

type CreateRequest struct {
	Name           string
	Specialization string
	Email          string
	Phone          string
}

type Service interface {
	List(ctx context.Context) ([]*domain.Doctor, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Doctor, error)
	Create(ctx context.Context, req CreateRequest) (*domain.Doctor, error)
}

type doctorService struct {
	doctors store.DoctorStore
}

func New(doctors store.DoctorStore) Service {
	return &doctorService{doctors: doctors}
}

func (s *doctorService) List(ctx context.Context) ([]*domain.Doctor, error) {
	docs, err := s.doctors.ListDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return docs, nil
}

func (s *doctorService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Doctor, error) {
	doc, err := s.doctors.GetDoctor(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return doc, nil
}

func (s *doctorService) Create(ctx context.Context, req CreateRequest) (*domain.Doctor, error) {
	if req.Name == "" || req.Specialization == "" || req.Email == "" {
		return nil, ErrInvalid
	}

	doc, err := s.doctors.CreateDoctor(ctx, &domain.Doctor{
		Name:           req.Name,
		Specialization: req.Specialization,
		Email:          req.Email,
		Phone:          req.Phone,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	return doc, nil
}
