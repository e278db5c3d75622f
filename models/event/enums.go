package event

// EventType identifies a shipment milestone. The string values are part of
// the wire contract shared with the dashboard and external webhooks.
type EventType string

const (
	// Production & Loading
	TypeProductionReady   EventType = "PRODUCTION_READY"
	TypeLoadingInProgress EventType = "LOADING_IN_PROGRESS"
	TypeSealNumberCutoff  EventType = "SEAL_NUMBER_CUTOFF"

	// Export & Transit
	TypeExportClearanceCambodia     EventType = "EXPORT_CLEARANCE_CAMBODIA"
	TypeTransitOcean                EventType = "TRANSIT_OCEAN"
	TypeContainerReadyForDeparture  EventType = "CONTAINER_READY_FOR_DEPARTURE"

	// Arrival & Import
	TypeArrivalPortNYNJ    EventType = "ARRIVAL_PORT_NYNJ"
	TypeImportClearanceCBP EventType = "IMPORT_CLEARANCE_CBP"
	TypeFinalDelivery      EventType = "FINAL_DELIVERY"

	// Operational
	TypeOrderInfo                EventType = "ORDER_INFO"
	TypePhotosContainerWeight    EventType = "PHOTOS_CONTAINER_WEIGHT"
	TypeGPSPositionEtaEtd        EventType = "GPS_POSITION_ETA_ETD"
	TypeUnloadingGateOut         EventType = "UNLOADING_GATE_OUT"
	TypeCustomsStatusDeclaration EventType = "CUSTOMS_STATUS_DECLARATION"
	TypeUnloadingTimeChecks      EventType = "UNLOADING_TIME_CHECKS"

	// System
	TypeLogisticsDBUpdate  EventType = "LOGISTICS_DB_UPDATE"
	TypeChatbotQuery       EventType = "CHATBOT_QUERY"
	TypeRealtimeDashboard  EventType = "REALTIME_DASHBOARD"
	TypeProactiveAlert     EventType = "PROACTIVE_ALERT"
	TypeReportingAnalytics EventType = "REPORTING_ANALYTICS"
	TypeUsersClient        EventType = "USERS_CLIENT"
	TypeUsersLogistics     EventType = "USERS_LOGISTICS"
)

// Category groups event types for the dashboard UI.
type Category string

const (
	CategoryProductionLoading Category = "Production & Loading"
	CategoryExportTransit     Category = "Export & Transit"
	CategoryArrivalImport     Category = "Arrival & Import"
	CategoryOperational       Category = "Operational"
	CategorySystem            Category = "System"
)

// Categories maps every EventType to its display category. Coverage against
// AllTypes is asserted by tests so a new type cannot land uncategorized.
var Categories = map[Category][]EventType{
	CategoryProductionLoading: {
		TypeProductionReady,
		TypeLoadingInProgress,
		TypeSealNumberCutoff,
	},
	CategoryExportTransit: {
		TypeExportClearanceCambodia,
		TypeTransitOcean,
		TypeContainerReadyForDeparture,
	},
	CategoryArrivalImport: {
		TypeArrivalPortNYNJ,
		TypeImportClearanceCBP,
		TypeFinalDelivery,
	},
	CategoryOperational: {
		TypeOrderInfo,
		TypePhotosContainerWeight,
		TypeGPSPositionEtaEtd,
		TypeUnloadingGateOut,
		TypeCustomsStatusDeclaration,
		TypeUnloadingTimeChecks,
	},
	CategorySystem: {
		TypeLogisticsDBUpdate,
		TypeChatbotQuery,
		TypeRealtimeDashboard,
		TypeProactiveAlert,
		TypeReportingAnalytics,
		TypeUsersClient,
		TypeUsersLogistics,
	},
}

func (t EventType) String() string {
	return string(t)
}

func (t EventType) IsValid() bool {
	switch t {
	case TypeProductionReady, TypeLoadingInProgress, TypeSealNumberCutoff,
		TypeExportClearanceCambodia, TypeTransitOcean, TypeContainerReadyForDeparture,
		TypeArrivalPortNYNJ, TypeImportClearanceCBP, TypeFinalDelivery,
		TypeOrderInfo, TypePhotosContainerWeight, TypeGPSPositionEtaEtd,
		TypeUnloadingGateOut, TypeCustomsStatusDeclaration, TypeUnloadingTimeChecks,
		TypeLogisticsDBUpdate, TypeChatbotQuery, TypeRealtimeDashboard,
		TypeProactiveAlert, TypeReportingAnalytics, TypeUsersClient, TypeUsersLogistics:
		return true
	default:
		return false
	}
}

// CategoryOf returns the display category of an event type.
func (t EventType) CategoryOf() Category {
	for category, members := range Categories {
		for _, member := range members {
			if member == t {
				return category
			}
		}
	}
	return CategoryOperational
}

// AllTypes returns every valid event type.
func AllTypes() []EventType {
	return []EventType{
		TypeProductionReady,
		TypeLoadingInProgress,
		TypeSealNumberCutoff,
		TypeExportClearanceCambodia,
		TypeTransitOcean,
		TypeContainerReadyForDeparture,
		TypeArrivalPortNYNJ,
		TypeImportClearanceCBP,
		TypeFinalDelivery,
		TypeOrderInfo,
		TypePhotosContainerWeight,
		TypeGPSPositionEtaEtd,
		TypeUnloadingGateOut,
		TypeCustomsStatusDeclaration,
		TypeUnloadingTimeChecks,
		TypeLogisticsDBUpdate,
		TypeChatbotQuery,
		TypeRealtimeDashboard,
		TypeProactiveAlert,
		TypeReportingAnalytics,
		TypeUsersClient,
		TypeUsersLogistics,
	}
}

// Event provenance values.
const (
	SourceManual  = "MANUAL"
	SourceImport  = "IMPORT"
	SourceWebhook = "WEBHOOK"
	SourceSystem  = "SYSTEM"
)
