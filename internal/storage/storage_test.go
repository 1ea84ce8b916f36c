package storage

import (
	"context"
	"path"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("/videos/", "Holiday Clip.MP4")
	if !strings.HasPrefix(key, "videos/") || path.Ext(key) != ".mp4" {
		t.Fatalf("unexpected key %q", key)
	}
	if ObjectKey("videos", "a.mp4") == ObjectKey("videos", "a.mp4") {
		t.Fatal("expected unique keys")
	}
}

func TestMemoryStorageRoundTrip(t *testing.T) {
	store := NewMemoryStorage("http://localhost:8080/blobs/")
	ctx := context.Background()

	location, err := store.Save(ctx, "avatars/a.png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if location != "http://localhost:8080/blobs/avatars/a.png" {
		t.Fatalf("unexpected location %q", location)
	}
	if !store.Has(location) || store.Len() != 1 {
		t.Fatal("expected blob to be stored")
	}

	if err := store.Delete(ctx, location); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if store.Has(location) {
		t.Fatal("expected blob to be removed")
	}
}

type deleterStub struct {
	keys []string
}

func (d *deleterStub) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	d.keys = append(d.keys, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StorageDeleteResolvesKeys(t *testing.T) {
	deleter := &deleterStub{}
	store := &S3Storage{deleter: deleter, bucket: "media", baseURL: "https://cdn.example.com"}

	for _, location := range []string{"https://cdn.example.com/videos/a.mp4", "/thumbnails/b.png", ""} {
		if err := store.Delete(context.Background(), location); err != nil {
			t.Fatalf("delete %q: %v", location, err)
		}
	}

	if len(deleter.keys) != 2 || deleter.keys[0] != "videos/a.mp4" || deleter.keys[1] != "thumbnails/b.png" {
		t.Fatalf("unexpected deleted keys %v", deleter.keys)
	}
	if got := store.location("videos/a.mp4"); got != "https://cdn.example.com/videos/a.mp4" {
		t.Fatalf("unexpected location %q", got)
	}
}
