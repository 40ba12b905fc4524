package auth

import (
	"context"
	"testing"
)

func TestIdentityRoundTrip(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("empty context should carry no identity")
	}
	ctx := WithIdentity(context.Background(), Identity{UserID: "u1", Token: "jwt"})
	id, ok := FromContext(ctx)
	if !ok || id.UserID != "u1" || id.Token != "jwt" {
		t.Fatalf("got %+v, %v", id, ok)
	}
	if _, ok := FromContext(WithIdentity(context.Background(), Identity{})); ok {
		t.Fatal("identity without user id should not count")
	}
}
