package service

import "github.com/weiawesome/wes-blog/internal/domain"

// authored is implemented by entities with a single owning author.
type authored interface {
	AuthorOf() string
}

// canMutate is the one ownership rule for editing and deleting posts and
// comments: only the author may.
func canMutate(actor domain.Actor, entity authored) bool {
	return actor.ID != "" && actor.ID == entity.AuthorOf()
}
