package jobstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/rohmanhakim/scrapecache/internal/jobstore"
)

func TestMarkActive_WritesMarkerAndIndex(t *testing.T) {
	store, client, _ := newStoreForTest(t)
	ttl := jobstore.DefaultTTLTiers()

	client.On("Set", mock.Anything, "scrapecache:active:j-1", "j-1", ttl.Active()).
		Return(true, nil)
	client.On("SetAdd", mock.Anything, "scrapecache:active:index", []string{"j-1"}).
		Return(true)
	client.On("Expire", mock.Anything, "scrapecache:active:index", ttl.OwnerIndex()).
		Return(true)

	if err := store.MarkActive(context.Background(), "j-1"); err != nil {
		t.Fatalf("MarkActive error = %v", err)
	}
	client.AssertExpectations(t)
}

func TestMarkActive_RejectsMalformedID(t *testing.T) {
	store, client, _ := newStoreForTest(t)

	if err := store.MarkActive(context.Background(), "bad:id"); err == nil {
		t.Fatal("MarkActive accepted an id containing the key separator")
	}
	client.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestActiveJobs_ReturnsOnlyLiveMarkers(t *testing.T) {
	store, client, _ := newStoreForTest(t)

	client.On("SetMembers", mock.Anything, "scrapecache:active:index").
		Return([]string{"j-live", "j-expired"})
	client.On("Get", mock.Anything, "scrapecache:active:j-live").
		Return("j-live", true)
	client.On("Get", mock.Anything, "scrapecache:active:j-expired").
		Return("", false)
	client.On("SetRemove", mock.Anything, "scrapecache:active:index", []string{"j-expired"}).
		Return(true)

	live := store.ActiveJobs(context.Background())
	if len(live) != 1 || live[0] != "j-live" {
		t.Errorf("ActiveJobs = %v, want [j-live]", live)
	}
	client.AssertExpectations(t)
}

func TestActiveJobs_EmptyIndex(t *testing.T) {
	store, client, _ := newStoreForTest(t)

	client.On("SetMembers", mock.Anything, "scrapecache:active:index").
		Return([]string{})

	if live := store.ActiveJobs(context.Background()); len(live) != 0 {
		t.Errorf("ActiveJobs = %v, want empty", live)
	}
}

func TestUnmarkActive_RemovesMarkerAndMembership(t *testing.T) {
	store, client, _ := newStoreForTest(t)

	client.On("Delete", mock.Anything, "scrapecache:active:j-1").Return(true)
	client.On("SetRemove", mock.Anything, "scrapecache:active:index", []string{"j-1"}).
		Return(true)

	store.UnmarkActive(context.Background(), "j-1")
	client.AssertExpectations(t)
}
