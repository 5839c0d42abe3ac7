package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/quillpress/server/internal/store"
	"github.com/quillpress/server/types"
)

type fakeCommentRepo struct {
	nextID int
	rows   []store.CommentRow
}

func (r *fakeCommentRepo) ListByPost(_ context.Context, postID int) ([]store.CommentRow, error) {
	var rows []store.CommentRow
	for _, row := range r.rows {
		if row.Comment.PostID == postID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (r *fakeCommentRepo) Create(_ context.Context, comment types.Comment) (types.Comment, error) {
	r.nextID++
	comment.ID = r.nextID
	r.rows = append(r.rows, store.CommentRow{Comment: comment, AuthorEmail: "commenter@example.com"})
	return comment, nil
}

type publishedEvent struct {
	channel string
	data    []byte
	attrs   map[string]string
}

type fakePublisher struct {
	events []publishedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, publishedEvent{channel: channel, data: data, attrs: attrs})
	return "1", nil
}

func TestAvatarURL(t *testing.T) {
	// Gravatar hashes the trimmed, lowercased address, so these two must
	// render the same avatar.
	url := AvatarURL("  Alice@Example.COM ")
	want := AvatarURL("alice@example.com")
	if url != want {
		t.Fatalf("normalization mismatch: %q vs %q", url, want)
	}
	if !strings.HasPrefix(url, "https://www.gravatar.com/avatar/") {
		t.Fatalf("unexpected avatar url %q", url)
	}
	if !strings.HasSuffix(url, "?s=100&d=retro") {
		t.Fatalf("unexpected avatar parameters in %q", url)
	}
}

func TestCommentCreatePublishesEvent(t *testing.T) {
	repo := &fakeCommentRepo{}
	pub := &fakePublisher{}
	svc := NewCommentService(repo, pub, nil)

	created, err := svc.Create(context.Background(), types.Comment{PostID: 7, AuthorID: 3, Body: "nice"})
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("comment not assigned an id")
	}

	if len(pub.events) != 1 {
		t.Fatalf("want 1 published event, got %d", len(pub.events))
	}
	event := pub.events[0]
	if event.channel != EventPostComment {
		t.Fatalf("event channel: got %q", event.channel)
	}
	if event.attrs["post_id"] != "7" {
		t.Fatalf("event attrs: got %v", event.attrs)
	}

	var payload types.Comment
	if err := json.Unmarshal(event.data, &payload); err != nil {
		t.Fatalf("decode event payload: %v", err)
	}
	if payload.ID != created.ID || payload.Body != "nice" {
		t.Fatalf("event payload: %+v", payload)
	}
}

func TestCommentCreateSurvivesBrokerFailure(t *testing.T) {
	repo := &fakeCommentRepo{}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewCommentService(repo, pub, nil)

	if _, err := svc.Create(context.Background(), types.Comment{PostID: 1, AuthorID: 1, Body: "hello"}); err != nil {
		t.Fatalf("create comment with failing broker: %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("comment not persisted: %d rows", len(repo.rows))
	}
}

func TestCommentListFillsAvatars(t *testing.T) {
	repo := &fakeCommentRepo{}
	svc := NewCommentService(repo, nil, nil)

	if _, err := svc.Create(context.Background(), types.Comment{PostID: 1, AuthorID: 1, Body: "first"}); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	comments, err := svc.ListByPost(context.Background(), 1)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("want 1 comment, got %d", len(comments))
	}
	if comments[0].AvatarURL != AvatarURL("commenter@example.com") {
		t.Fatalf("avatar url: got %q", comments[0].AvatarURL)
	}
}
