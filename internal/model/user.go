package model

import "time"

// User 结构体表示用户模型
type User struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"` // 密码哈希不应在JSON中暴露
	Role           string    `json:"role"`
	ProfilePicture string    `json:"profile_picture"`
	Bio            string    `json:"bio"`
	Followers      []int     `json:"followers"`
	Following      []int     `json:"following"`
	SavedPosts     []int     `json:"saved_posts"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserSummary 是嵌入在帖子、评论、通知中的用户简要信息
type UserSummary struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture"`
	IsFollowing    *bool  `json:"is_following,omitempty"`
}

// Summary 返回用户的简要信息
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:             u.ID,
		Name:           u.Name,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
	}
}

// HasFollowing 判断是否关注了指定用户
func (u *User) HasFollowing(userID int) bool {
	return containsID(u.Following, userID)
}

// HasFollower 判断指定用户是否关注了自己
func (u *User) HasFollower(userID int) bool {
	return containsID(u.Followers, userID)
}

// HasSaved 判断是否收藏了指定帖子
func (u *User) HasSaved(postID int) bool {
	return containsID(u.SavedPosts, postID)
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Profile 是公开的用户主页
type Profile struct {
	User        *User   `json:"user"`
	IsFollowing bool    `json:"is_following"`
	Posts       []*Post `json:"posts"`
}
