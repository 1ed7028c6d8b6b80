package mysql

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siwachprerit/Drafted/internal/model"
)

// 与 scripts/schema.sql 等价的 SQLite 表结构
const sqliteSchema = `
CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'user',
    profile_picture TEXT NOT NULL DEFAULT '',
    bio TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);
CREATE TABLE follows (
    follower_id INTEGER NOT NULL,
    followed_id INTEGER NOT NULL,
    created_at DATETIME NOT NULL,
    PRIMARY KEY (follower_id, followed_id)
);
CREATE TABLE posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    author_id INTEGER NOT NULL,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    cover_image TEXT NOT NULL DEFAULT '',
    is_published BOOLEAN NOT NULL DEFAULT 0,
    views INTEGER NOT NULL DEFAULT 0,
    slug TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);
CREATE TABLE post_tags (
    post_id INTEGER NOT NULL,
    tag TEXT NOT NULL,
    position INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (post_id, tag)
);
CREATE TABLE post_likes (
    post_id INTEGER NOT NULL,
    user_id INTEGER NOT NULL,
    created_at DATETIME NOT NULL,
    PRIMARY KEY (post_id, user_id)
);
CREATE TABLE saved_posts (
    user_id INTEGER NOT NULL,
    post_id INTEGER NOT NULL,
    created_at DATETIME NOT NULL,
    PRIMARY KEY (user_id, post_id)
);
CREATE TABLE comments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    post_id INTEGER NOT NULL,
    user_id INTEGER NOT NULL,
    parent_id INTEGER NULL,
    content TEXT NOT NULL,
    created_at DATETIME NOT NULL
);
CREATE TABLE notifications (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    recipient_id INTEGER NOT NULL,
    sender_id INTEGER NOT NULL,
    kind TEXT NOT NULL,
    post_id INTEGER NULL,
    content TEXT NOT NULL DEFAULT '',
    is_read BOOLEAN NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL
);`

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// 内存库每个连接独立，固定为单连接
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	_, err = db.Exec(sqliteSchema)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, repo *userRepository, name string) *model.User {
	t.Helper()
	u := &model.User{Name: name, Username: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserRepositoryFollowToggle(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))
	a := createUser(t, repo, "alice")
	b := createUser(t, repo, "bob")

	following, err := repo.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, following)

	ua, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	ub, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{b.ID}, ua.Following)
	assert.Equal(t, []int{a.ID}, ub.Followers)

	followers, err := repo.ListFollowers(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "alice", followers[0].Username)

	suggestions, err := repo.Suggest(ctx, a.ID, 5)
	require.NoError(t, err)
	assert.Empty(t, suggestions)

	following, err = repo.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, following)

	ua, _ = repo.FindByID(ctx, a.ID)
	assert.Empty(t, ua.Following)
}

func TestUserRepositoryFindMissing(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	u, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestPostRepositoryLikesAndComments(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	a := createUser(t, users, "alice")
	b := createUser(t, users, "bob")

	post := &model.Post{AuthorID: b.ID, Title: "Hello", Content: "body", Slug: "hello", IsPublished: true, Tags: []string{"go", "web"}}
	require.NoError(t, posts.Create(ctx, post))

	likes, liked, err := posts.ToggleLike(ctx, post.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, []int{a.ID}, likes)

	likes, liked, err = posts.ToggleLike(ctx, post.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Empty(t, likes)

	comments, err := posts.AddComment(ctx, &model.Comment{PostID: post.ID, UserID: a.ID, Content: "Nice post"})
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "alice", comments[0].User.Name)
	assert.Nil(t, comments[0].ParentID)

	parent := comments[0].ID
	comments, err = posts.AddComment(ctx, &model.Comment{PostID: post.ID, UserID: b.ID, Content: "Thanks", ParentID: &parent})
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.NotNil(t, comments[1].ParentID)
	assert.Equal(t, parent, *comments[1].ParentID)

	comments, err = posts.DeleteComment(ctx, post.ID, parent)
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	found, err := posts.FindBySlug(ctx, "hello")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, []string{"go", "web"}, found.Tags)
	assert.Equal(t, "bob", found.Author.Username)
	assert.True(t, found.IsPublished)
}

func TestPostRepositoryListAndTags(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	a := createUser(t, users, "alice")

	for _, p := range []*model.Post{
		{AuthorID: a.ID, Title: "one", Slug: "one", IsPublished: true, Tags: []string{"go", "web"}},
		{AuthorID: a.ID, Title: "two", Slug: "two", IsPublished: true, Tags: []string{"go"}},
		{AuthorID: a.ID, Title: "draft", Slug: "draft", Tags: []string{"go", "secret"}},
	} {
		require.NoError(t, posts.Create(ctx, p))
	}

	published, err := posts.List(ctx, model.PostFilter{PublishedOnly: true})
	require.NoError(t, err)
	require.Len(t, published, 2)
	assert.Equal(t, "two", published[0].Title)

	related, err := posts.List(ctx, model.PostFilter{PublishedOnly: true, AnyTags: []string{"web"}, ExcludeID: published[0].ID, Limit: 3})
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "one", related[0].Title)

	counts, err := posts.TagCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.TagCount{{Tag: "go", Count: 2}, {Tag: "web", Count: 1}}, counts)

	taken, err := posts.SlugExists(ctx, "one", 0)
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = posts.SlugExists(ctx, "one", related[0].ID)
	require.NoError(t, err)
	assert.False(t, taken)

	views, err := posts.IncrementViews(ctx, related[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, views)
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	notifications := NewNotificationRepository(db)
	a := createUser(t, users, "alice")
	b := createUser(t, users, "bob")

	post := &model.Post{AuthorID: a.ID, Title: "mine", Slug: "mine", IsPublished: true}
	require.NoError(t, posts.Create(ctx, post))
	_, err := users.ToggleSave(ctx, b.ID, post.ID)
	require.NoError(t, err)
	_, err = users.ToggleFollow(ctx, b.ID, a.ID)
	require.NoError(t, err)
	require.NoError(t, notifications.Create(ctx, &model.Notification{
		RecipientID: b.ID, SenderID: a.ID, Kind: model.NotificationFollow,
	}))

	require.NoError(t, users.Delete(ctx, a.ID))

	gone, err := posts.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	ub, err := users.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, ub.SavedPosts)
	assert.Empty(t, ub.Following)

	list, err := notifications.ListByRecipient(ctx, b.ID, 20)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNotificationRepository(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	repo := NewNotificationRepository(db)
	a := createUser(t, users, "alice")
	b := createUser(t, users, "bob")

	post := &model.Post{AuthorID: b.ID, Title: "Hello", Slug: "hello", IsPublished: true}
	require.NoError(t, posts.Create(ctx, post))

	like := &model.Notification{RecipientID: b.ID, SenderID: a.ID, Kind: model.NotificationLike, PostID: &post.ID}
	require.NoError(t, repo.Create(ctx, like))
	follow := &model.Notification{RecipientID: b.ID, SenderID: a.ID, Kind: model.NotificationFollow}
	require.NoError(t, repo.Create(ctx, follow))

	found, err := repo.FindOne(ctx, model.NotificationQuery{RecipientID: b.ID, SenderID: a.ID, Kind: model.NotificationLike, PostID: &post.ID})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, like.ID, found.ID)
	assert.Equal(t, "alice", found.Sender.Name)
	assert.Equal(t, "Hello", found.Post.Title)

	found, err = repo.FindOne(ctx, model.NotificationQuery{RecipientID: b.ID, SenderID: a.ID, Kind: model.NotificationFollow})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, follow.ID, found.ID)
	assert.Nil(t, found.PostID)

	unread, err := repo.CountUnread(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	updated, err := repo.MarkAllRead(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	updated, err = repo.MarkAllRead(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, updated)

	list, err := repo.ListByRecipient(ctx, b.ID, 20)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].IsRead)

	require.NoError(t, repo.Delete(ctx, like.ID))
	gone, err := repo.FindByID(ctx, like.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	deleted, err := repo.DeleteAllByRecipient(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}
