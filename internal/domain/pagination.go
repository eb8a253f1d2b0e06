package domain

import (
	"strconv"
	"strings"
)

// PageSize is the fixed number of posts per feed page.
const PageSize = 10

// ParsePage turns a raw ?page= value into a 1-based page number.
// Anything missing, unparsable or below 1 means the first page.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// TotalPages returns how many pages of pageSize hold total items.
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// NewPostPage assembles a page; posts past the last page are simply empty.
func NewPostPage(posts []Post, total int64, page int) *PostPage {
	items := make([]PostResponse, len(posts))
	for i := range posts {
		items[i] = posts[i].ToResponse()
	}
	return &PostPage{
		Posts:      items,
		Total:      total,
		Page:       page,
		PageSize:   PageSize,
		TotalPages: TotalPages(total, PageSize),
	}
}

// FilterKind selects which posts a listing covers.
type FilterKind int

const (
	FilterAll FilterKind = iota
	FilterByGroup
	FilterByAuthor
	FilterByFollowedAuthorsOf
)

// PostFilter narrows a post listing. Only the field matching Kind is used.
type PostFilter struct {
	Kind       FilterKind
	GroupSlug  string
	Username   string
	FollowerID string
}

func AllPosts() PostFilter { return PostFilter{Kind: FilterAll} }

func PostsInGroup(slug string) PostFilter {
	return PostFilter{Kind: FilterByGroup, GroupSlug: slug}
}

func PostsByAuthor(username string) PostFilter {
	return PostFilter{Kind: FilterByAuthor, Username: username}
}

func PostsFollowedBy(userID string) PostFilter {
	return PostFilter{Kind: FilterByFollowedAuthorsOf, FollowerID: userID}
}
