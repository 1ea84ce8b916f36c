package ownership

import (
	"errors"
	"testing"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
)

func TestAssertOwner(t *testing.T) {
	video := models.Video{ID: "v1", OwnerID: "owner"}

	tests := []struct {
		name    string
		actor   string
		wantErr bool
	}{
		{name: "owner", actor: "owner"},
		{name: "stranger", actor: "someone-else", wantErr: true},
		{name: "anonymous", actor: "", wantErr: true},
		{name: "case differs", actor: "OWNER", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AssertOwner(tt.actor, video)
			if tt.wantErr {
				if !errors.Is(err, apperr.ErrForbidden) {
					t.Fatalf("expected forbidden, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestAssertOwnerRejectsUnownedResource(t *testing.T) {
	if err := AssertOwner("anyone", models.Video{ID: "v1"}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden for a resource without owner, got %v", err)
	}
}
