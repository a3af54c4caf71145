package routehandlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreybb/denima/models"
	"github.com/coreybb/denima/webutil"
)

type OfferStore interface {
	GetCurrentOffer(ctx context.Context) (*models.Offer, error)
	UpdateOffer(ctx context.Context, offerID string, upd models.OfferUpdate) error
}

type ServiceLister interface {
	ListServices(ctx context.Context, activeOnly bool) ([]models.Service, error)
}

type OfferHandler struct {
	Offers   OfferStore
	Services ServiceLister
}

func NewOfferHandler(offers OfferStore, services ServiceLister) *OfferHandler {
	return &OfferHandler{Offers: offers, Services: services}
}

func (h *OfferHandler) HandleGetOffer(w http.ResponseWriter, r *http.Request) error {
	offer, err := h.Offers.GetCurrentOffer(r.Context())
	if err != nil {
		return fmt.Errorf("failed to load current offer: %w", err)
	}
	webutil.RespondWithJSON(w, http.StatusOK, offer)
	return nil
}

// HandleUpdateOffer replaces the selected services only when product_ids is
// present in the body; an empty list clears the selection.
func (h *OfferHandler) HandleUpdateOffer(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		IsActive        *bool    `json:"is_active"`
		Price           *string  `json:"price"`
		WhatsAppMessage *string  `json:"whatsapp_message"`
		ProductIDs      []string `json:"product_ids"`
	}
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		return err
	}

	upd := models.OfferUpdate{
		IsActive:        req.IsActive,
		WhatsAppMessage: req.WhatsAppMessage,
		ServiceIDs:      req.ProductIDs,
	}
	if req.Price != nil {
		price := strings.TrimSpace(*req.Price)
		if price == "" {
			return webutil.ErrValidation("price", "price must not be empty")
		}
		upd.Price = &price
	}

	current, err := h.Offers.GetCurrentOffer(r.Context())
	if err != nil {
		return fmt.Errorf("failed to load current offer: %w", err)
	}
	if err := h.Offers.UpdateOffer(r.Context(), current.ID, upd); err != nil {
		return err
	}

	updated, err := h.Offers.GetCurrentOffer(r.Context())
	if err != nil {
		return fmt.Errorf("failed to reload offer: %w", err)
	}
	webutil.RespondWithJSON(w, http.StatusOK, updated)
	return nil
}

func (h *OfferHandler) HandleGetAvailableServices(w http.ResponseWriter, r *http.Request) error {
	services, err := h.Services.ListServices(r.Context(), true)
	if err != nil {
		return fmt.Errorf("failed to retrieve services: %w", err)
	}
	if services == nil {
		services = []models.Service{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, services)
	return nil
}
