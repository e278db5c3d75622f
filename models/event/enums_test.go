package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllTypesAreValid(t *testing.T) {
	all := AllTypes()
	assert.Len(t, all, 22)
	for _, et := range all {
		assert.True(t, et.IsValid(), "expected %s to be valid", et)
	}
}

func TestUnknownTypeIsInvalid(t *testing.T) {
	assert.False(t, EventType("TELEPORTED").IsValid())
	assert.False(t, EventType("").IsValid())
	assert.False(t, EventType("order_info").IsValid(), "wire values are case sensitive")
}

func TestEveryTypeHasExactlyOneCategory(t *testing.T) {
	seen := map[EventType]int{}
	for _, members := range Categories {
		for _, member := range members {
			seen[member]++
		}
	}
	for _, et := range AllTypes() {
		assert.Equalf(t, 1, seen[et], "%s must appear in exactly one category", et)
	}
	assert.Len(t, seen, len(AllTypes()), "categories must not contain unknown types")
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryProductionLoading, TypeSealNumberCutoff.CategoryOf())
	assert.Equal(t, CategoryExportTransit, TypeTransitOcean.CategoryOf())
	assert.Equal(t, CategoryArrivalImport, TypeFinalDelivery.CategoryOf())
	assert.Equal(t, CategorySystem, TypeChatbotQuery.CategoryOf())
}

func TestWireValuesAreStable(t *testing.T) {
	// These strings are shared with the dashboard and external webhook
	// consumers; renaming a constant must not change them.
	assert.Equal(t, "ORDER_INFO", TypeOrderInfo.String())
	assert.Equal(t, "TRANSIT_OCEAN", TypeTransitOcean.String())
	assert.Equal(t, "FINAL_DELIVERY", TypeFinalDelivery.String())
	assert.Equal(t, "GPS_POSITION_ETA_ETD", TypeGPSPositionEtaEtd.String())
	assert.Equal(t, "EXPORT_CLEARANCE_CAMBODIA", TypeExportClearanceCambodia.String())
	assert.Equal(t, "ARRIVAL_PORT_NYNJ", TypeArrivalPortNYNJ.String())
}
