package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siwachprerit/Drafted/internal/model"
)

func seedUsers(t *testing.T, s *Store, names ...string) []*model.User {
	t.Helper()
	var out []*model.User
	for _, name := range names {
		u := &model.User{Name: name, Username: name, Email: name + "@example.com"}
		require.NoError(t, s.Users().Create(context.Background(), u))
		out = append(out, u)
	}
	return out
}

func TestToggleFollowKeepsBothSides(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	users := seedUsers(t, s, "alice", "bob")
	a, b := users[0], users[1]

	following, err := s.Users().ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, following)

	ua, _ := s.Users().FindByID(ctx, a.ID)
	ub, _ := s.Users().FindByID(ctx, b.ID)
	assert.Equal(t, []int{b.ID}, ua.Following)
	assert.Equal(t, []int{a.ID}, ub.Followers)

	following, err = s.Users().ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, following)

	ua, _ = s.Users().FindByID(ctx, a.ID)
	ub, _ = s.Users().FindByID(ctx, b.ID)
	assert.Empty(t, ua.Following)
	assert.Empty(t, ub.Followers)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	users := seedUsers(t, s, "alice")

	u, _ := s.Users().FindByID(ctx, users[0].ID)
	u.Following = append(u.Following, 42)

	again, _ := s.Users().FindByID(ctx, users[0].ID)
	assert.Empty(t, again.Following)
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	users := seedUsers(t, s, "alice", "bob")
	a, b := users[0], users[1]

	post := &model.Post{Title: "A", AuthorID: a.ID, IsPublished: true}
	require.NoError(t, s.Posts().Create(ctx, post))
	other := &model.Post{Title: "B", AuthorID: b.ID, IsPublished: true}
	require.NoError(t, s.Posts().Create(ctx, other))

	_, _ = s.Users().ToggleFollow(ctx, b.ID, a.ID)
	_, _ = s.Users().ToggleSave(ctx, b.ID, post.ID)
	_, _, _ = s.Posts().ToggleLike(ctx, other.ID, a.ID)
	_, err := s.Posts().AddComment(ctx, &model.Comment{PostID: other.ID, UserID: a.ID, Content: "hi"})
	require.NoError(t, err)
	require.NoError(t, s.Notifications().Create(ctx, &model.Notification{
		RecipientID: b.ID, SenderID: a.ID, Kind: model.NotificationLike, PostID: &other.ID,
	}))

	require.NoError(t, s.Users().Delete(ctx, a.ID))

	gone, _ := s.Posts().FindByID(ctx, post.ID)
	assert.Nil(t, gone)

	ub, _ := s.Users().FindByID(ctx, b.ID)
	assert.Empty(t, ub.Following)
	assert.Empty(t, ub.SavedPosts)

	kept, _ := s.Posts().FindByID(ctx, other.ID)
	require.NotNil(t, kept)
	assert.Empty(t, kept.Likes)
	assert.Empty(t, kept.Comments)

	list, _ := s.Notifications().ListByRecipient(ctx, b.ID, 0)
	assert.Empty(t, list)
}

func TestListFilterAndTagCounts(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	users := seedUsers(t, s, "alice")
	id := users[0].ID

	for _, p := range []*model.Post{
		{Title: "one", AuthorID: id, IsPublished: true, Tags: []string{"go", "web"}},
		{Title: "two", AuthorID: id, IsPublished: true, Tags: []string{"go"}},
		{Title: "draft", AuthorID: id, Tags: []string{"go", "secret"}},
	} {
		require.NoError(t, s.Posts().Create(ctx, p))
	}

	published, _ := s.Posts().List(ctx, model.PostFilter{PublishedOnly: true})
	require.Len(t, published, 2)
	assert.Equal(t, "two", published[0].Title)
	assert.Equal(t, "alice", published[0].Author.Name)

	tagged, _ := s.Posts().List(ctx, model.PostFilter{PublishedOnly: true, Tag: "web"})
	require.Len(t, tagged, 1)

	counts, _ := s.Posts().TagCounts(ctx)
	assert.Equal(t, []model.TagCount{{Tag: "go", Count: 2}, {Tag: "web", Count: 1}}, counts)
}
