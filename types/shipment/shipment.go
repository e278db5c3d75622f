package shipment

import (
	"fmt"
	"time"

	shipmentModel "puretrack/models/shipment"
)

// ShipmentCreateRequest represents the request payload for creating a shipment
type ShipmentCreateRequest struct {
	Reference   string  `json:"reference" validate:"required,min=1,max=255"`
	Customer    *string `json:"customer,omitempty"`
	Origin      *string `json:"origin,omitempty"`
	Destination *string `json:"destination,omitempty"`
	Incoterm    string  `json:"incoterm,omitempty"`

	PlannedETD *time.Time `json:"planned_etd,omitempty"`
	PlannedETA *time.Time `json:"planned_eta,omitempty"`

	ContainerNumber *string `json:"container_number,omitempty"`
	SealNumber      *string `json:"seal_number,omitempty"`

	SKU                *string  `json:"sku,omitempty"`
	ProductDescription *string  `json:"product_description,omitempty"`
	Quantity           *int     `json:"quantity,omitempty"`
	WeightKg           *float64 `json:"weight_kg,omitempty"`
	VolumeCbm          *float64 `json:"volume_cbm,omitempty"`
	NbPallets          *int     `json:"nb_pallets,omitempty"`
	NbCartons          *int     `json:"nb_cartons,omitempty"`

	OrderNumber *string `json:"order_number,omitempty"`
	BatchNumber *string `json:"batch_number,omitempty"`
	Supplier    *string `json:"supplier,omitempty"`

	Vessel        *string `json:"vessel,omitempty"`
	BLNumber      *string `json:"bl_number,omitempty"`
	ForwarderName *string `json:"forwarder_name,omitempty"`
	TransportMode *string `json:"transport_mode,omitempty"`
	HSCode        *string `json:"hs_code,omitempty"`
}

func (r ShipmentCreateRequest) Validate() error {
	if r.Reference == "" {
		return fmt.Errorf("reference is required")
	}
	if r.Incoterm != "" && !shipmentModel.IsValidIncoterm(r.Incoterm) {
		return fmt.Errorf("incoterm %q is not a recognized trade term", r.Incoterm)
	}
	return nil
}

// HealthStatus is the derived on-time classification consumed by the UI.
type HealthStatus string

const (
	HealthOnTrack HealthStatus = "ON_TRACK"
	HealthAtRisk  HealthStatus = "AT_RISK"
	HealthLate    HealthStatus = "LATE"
)
