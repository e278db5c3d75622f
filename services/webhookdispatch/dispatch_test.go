package webhookdispatch

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"puretrack/logger"
	webhookModel "puretrack/models/webhook"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&webhookModel.Subscription{}))
	return db
}

func TestSignIsDeterministic(t *testing.T) {
	body := []byte(`{"event":"TRANSIT_OCEAN"}`)
	assert.Equal(t, Sign(body, "secret"), Sign(body, "secret"))
	assert.NotEqual(t, Sign(body, "secret"), Sign(body, "other"))
	assert.Len(t, Sign(body, "secret"), 64)
}

func TestDispatchDeliversSignedPayload(t *testing.T) {
	db := testDB(t)

	type received struct {
		event     string
		signature string
		body      []byte
	}
	got := make(chan received, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- received{
			event:     r.Header.Get("X-Webhook-Event"),
			signature: r.Header.Get("X-Webhook-Signature"),
			body:      body,
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	secret := "signing-secret"
	sub := webhookModel.Subscription{
		URL:      server.URL,
		Events:   datatypes.NewJSONSlice([]string{"TRANSIT_OCEAN"}),
		Secret:   &secret,
		IsActive: true,
	}
	require.NoError(t, db.Create(&sub).Error)

	d := NewDispatcher(db, logger.NewAsyncLogger(db))
	d.dispatch(Delivery{Event: "TRANSIT_OCEAN", ShipmentReference: "PO-1", Timestamp: time.Now().UTC()})

	select {
	case r := <-got:
		assert.Equal(t, "TRANSIT_OCEAN", r.event)
		assert.Equal(t, Sign(r.body, secret), r.signature)
		assert.Contains(t, string(r.body), "PO-1")
	case <-time.After(5 * time.Second):
		t.Fatal("webhook was not delivered")
	}

	var reloaded webhookModel.Subscription
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	assert.NotNil(t, reloaded.LastTriggeredAt)
	assert.Zero(t, reloaded.FailureCount)
}

func TestDispatchSkipsNonMatchingSubscriptions(t *testing.T) {
	db := testDB(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("subscription should not have been called")
	}))
	defer server.Close()

	sub := webhookModel.Subscription{
		URL:      server.URL,
		Events:   datatypes.NewJSONSlice([]string{"FINAL_DELIVERY"}),
		IsActive: true,
	}
	require.NoError(t, db.Create(&sub).Error)

	d := NewDispatcher(db, logger.NewAsyncLogger(db))
	d.dispatch(Delivery{Event: "TRANSIT_OCEAN", Timestamp: time.Now().UTC()})

	var reloaded webhookModel.Subscription
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	assert.Nil(t, reloaded.LastTriggeredAt)
}

func TestDispatchCountsFailures(t *testing.T) {
	db := testDB(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sub := webhookModel.Subscription{
		URL:      server.URL,
		Events:   datatypes.NewJSONSlice([]string{"TRANSIT_OCEAN"}),
		IsActive: true,
	}
	require.NoError(t, db.Create(&sub).Error)

	d := NewDispatcher(db, logger.NewAsyncLogger(db))
	d.dispatch(Delivery{Event: "TRANSIT_OCEAN", Timestamp: time.Now().UTC()})

	var reloaded webhookModel.Subscription
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	assert.Equal(t, 1, reloaded.FailureCount)
	assert.NotNil(t, reloaded.LastTriggeredAt)
}
