package shipment

import (
	"time"

	eventModel "puretrack/models/event"
)

// Shipment represents a tracked consignment identified by a business reference.
// Status is derived from the event log and must never be written directly by
// handlers; services/eventlog owns it.
type Shipment struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	Reference   string  `gorm:"type:varchar(255);not null;unique;index" json:"reference"`
	Customer    *string `gorm:"type:varchar(255);index" json:"customer,omitempty"`
	Origin      *string `gorm:"type:varchar(255)" json:"origin,omitempty"`
	Destination *string `gorm:"type:varchar(255)" json:"destination,omitempty"`
	Incoterm    string  `gorm:"type:varchar(10);not null;default:FOB" json:"incoterm"`

	PlannedETD *time.Time `gorm:"" json:"planned_etd,omitempty"`
	PlannedETA *time.Time `gorm:"index" json:"planned_eta,omitempty"`

	ContainerNumber *string `gorm:"type:varchar(255)" json:"container_number,omitempty"`
	SealNumber      *string `gorm:"type:varchar(255)" json:"seal_number,omitempty"`

	// Goods
	SKU                   *string `gorm:"type:varchar(255)" json:"sku,omitempty"`
	ProductDescription    *string `gorm:"type:varchar(255)" json:"product_description,omitempty"`
	ProductDescriptionOld *string `gorm:"type:varchar(255)" json:"product_description_old,omitempty"`
	Quantity              *int    `gorm:"" json:"quantity,omitempty"`
	QtyPreSerie           *int    `gorm:"" json:"qty_pre_serie,omitempty"`
	QtyITS                *int    `gorm:"" json:"qty_its,omitempty"`
	QtyFOC                *int    `gorm:"" json:"qty_foc,omitempty"`
	QtyPackingAcc         *int    `gorm:"" json:"qty_packing_acc,omitempty"`
	QtyExtraCarton        *int    `gorm:"" json:"qty_extra_carton,omitempty"`

	WeightKg  *float64 `gorm:"" json:"weight_kg,omitempty"`
	VolumeCbm *float64 `gorm:"" json:"volume_cbm,omitempty"`
	NbPallets *int     `gorm:"" json:"nb_pallets,omitempty"`
	NbCartons *int     `gorm:"" json:"nb_cartons,omitempty"`

	OrderNumber *string `gorm:"type:varchar(255);index" json:"order_number,omitempty"`
	BatchNumber *string `gorm:"type:varchar(255)" json:"batch_number,omitempty"`

	Supplier        *string `gorm:"type:varchar(255)" json:"supplier,omitempty"`
	SupplierContact *string `gorm:"type:varchar(255)" json:"supplier_contact,omitempty"`

	IncotermCity *string `gorm:"type:varchar(255)" json:"incoterm_city,omitempty"`
	DCToDeliver  *string `gorm:"type:varchar(255)" json:"dc_to_deliver,omitempty"`
	LoadingPlace *string `gorm:"type:varchar(255)" json:"loading_place,omitempty"`
	POD          *string `gorm:"type:varchar(255)" json:"pod,omitempty"`

	QCDate       *time.Time `gorm:"" json:"qc_date,omitempty"`
	MADDate      *time.Time `gorm:"" json:"mad_date,omitempty"`
	ITSDate      *time.Time `gorm:"" json:"its_date,omitempty"`
	DeliveryDate *time.Time `gorm:"" json:"delivery_date,omitempty"`

	Vessel   *string `gorm:"type:varchar(255)" json:"vessel,omitempty"`
	BLNumber *string `gorm:"type:varchar(255)" json:"bl_number,omitempty"`

	ForwarderRef *string `gorm:"type:varchar(255)" json:"forwarder_ref,omitempty"`
	PureTradeRef *string `gorm:"type:varchar(255)" json:"pure_trade_ref,omitempty"`

	Interlocuteur         *string `gorm:"type:varchar(255)" json:"interlocuteur,omitempty"`
	ForwarderName         *string `gorm:"type:varchar(255)" json:"forwarder_name,omitempty"`
	ResponsablePureTrade  *string `gorm:"type:varchar(255)" json:"responsable_pure_trade,omitempty"`
	AchatContact          *string `gorm:"type:varchar(255)" json:"achat_contact,omitempty"`

	TransportMode *string  `gorm:"type:varchar(50)" json:"transport_mode,omitempty"`
	ETO           *string  `gorm:"type:varchar(255)" json:"eto,omitempty"`
	HSCode        *string  `gorm:"type:varchar(50)" json:"hs_code,omitempty"`
	FreightRate   *float64 `gorm:"" json:"freight_rate,omitempty"`

	CommentsForwarder *string `gorm:"type:varchar(255)" json:"comments_forwarder,omitempty"`
	CommentsInternal  *string `gorm:"type:text" json:"comments_internal,omitempty"`

	DepartureStat       *string `gorm:"type:varchar(255)" json:"departure_stat,omitempty"`
	FoundStat           *string `gorm:"type:varchar(255)" json:"found_stat,omitempty"`
	ShipmentRefExternal *string `gorm:"type:varchar(255)" json:"shipment_ref_external,omitempty"`

	// Derived: always equals the type of the most recently timestamped event.
	Status eventModel.EventType `gorm:"type:varchar(50);not null;default:ORDER_INFO;index" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Events []eventModel.Event `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE" json:"events,omitempty"`
}

// TableName sets the table name for the Shipment model
func (Shipment) TableName() string {
	return "shipments"
}
