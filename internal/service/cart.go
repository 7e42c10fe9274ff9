package service

import (
	"context"
	"errors"
	"fmt"

	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrListingNotFound = errors.New("listing not found")

type CartService interface {
	GetCart(ctx context.Context, userID string) (*dto.CartView, error)
	AddItem(ctx context.Context, userID, listingID string) error
	RemoveItem(ctx context.Context, userID, listingID string) error
}

type cartServiceImpl struct {
	cartRepo    repository.CartRepository
	listingRepo repository.ListingRepository
}

func NewCartService(cartRepo repository.CartRepository, listingRepo repository.ListingRepository) CartService {
	return &cartServiceImpl{
		cartRepo:    cartRepo,
		listingRepo: listingRepo,
	}
}

func (s *cartServiceImpl) GetCart(ctx context.Context, userID string) (*dto.CartView, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	view := &dto.CartView{Items: []dto.CartItemView{}}
	total := decimal.Zero

	for _, item := range items {
		listing, err := s.listingRepo.FindByID(ctx, item.ListingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, fmt.Errorf("load listing: %w", err)
		}

		total = total.Add(listing.Price)
		view.Items = append(view.Items, dto.CartItemView{
			ListingID: listing.ID,
			Title:     listing.Title,
			Price:     listing.Price.StringFixed(2),
			Currency:  listing.Currency,
		})
	}

	view.Total = total.StringFixed(2)
	return view, nil
}

func (s *cartServiceImpl) AddItem(ctx context.Context, userID, listingID string) error {
	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return fmt.Errorf("load listing: %w", err)
	}
	if !listing.Active {
		return ErrListingNotFound
	}

	return s.cartRepo.Add(ctx, &model.CartItem{
		UserID:    userID,
		ListingID: listingID,
	})
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, userID, listingID string) error {
	return s.cartRepo.Remove(ctx, userID, listingID)
}
