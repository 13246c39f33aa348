package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/mmynk/spendsplit/internal/models"
	"github.com/mmynk/spendsplit/internal/storage/storetest"
)

// TestStore runs the shared suite against a live server when MONGO_URI is set.
func TestStore(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbName := fmt.Sprintf("spendsplit_test_%d", time.Now().UnixNano())
	store, err := Connect(ctx, uri, dbName)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.db.Drop(context.Background())
		_ = store.Close()
	})

	storetest.Run(t, store)
}

func TestGroupModelIndexesMembers(t *testing.T) {
	g := &models.Group{
		ID:   "g1",
		Name: "Trip",
		Members: []models.Member{
			{UserID: "u1", Role: models.RoleAdmin},
			{UserID: "u2", Role: models.RoleMember, JoinedAt: time.Unix(1700000000, 0)},
		},
	}

	m := toGroupModel(g)
	if len(m.MemberIDs) != 2 || m.MemberIDs[0] != "u1" || m.MemberIDs[1] != "u2" {
		t.Errorf("MemberIDs = %v", m.MemberIDs)
	}
	if m.Members[0].JoinedAt.IsZero() {
		t.Error("expected zero join time to be filled in")
	}

	back := fromGroupModel(m)
	if !back.HasMember("u2") || back.Members[1].Role != models.RoleMember {
		t.Errorf("round trip = %+v", back)
	}
}

func TestUserModelNormalizesEmail(t *testing.T) {
	m := toUserModel(&models.User{ID: "u1", Email: "  Alice@Example.COM "})
	if m.EmailLower != "alice@example.com" {
		t.Errorf("EmailLower = %q", m.EmailLower)
	}
}
