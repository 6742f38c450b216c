package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"matchday/internal/model"
)

const replyExcerptLength = 80

// NotifyCommentReply tells the author of parentCommentID that replierID answered.
// Replying to one's own comment notifies nobody.
func (s *NotificationService) NotifyCommentReply(ctx context.Context, parentCommentID, newCommentID, replierID int64) (*model.DispatchResult, error) {
	parent, err := s.commentRepo.GetByID(ctx, parentCommentID)
	if err != nil {
		return nil, err
	}
	reply, err := s.commentRepo.GetByID(ctx, newCommentID)
	if err != nil {
		return nil, err
	}
	if reply.ParentID == nil || *reply.ParentID != parent.ID {
		return nil, model.NewValidationError("comment_id", fmt.Sprintf("comment %d is not a reply to %d", reply.ID, parent.ID))
	}

	if parent.UserID == replierID {
		return model.EmptyDispatchResult(), nil
	}

	actor := reply.AuthorUsername
	if reply.UserID != replierID || actor == "" {
		actor = s.actorName(ctx, replierID)
	}

	draft := model.NotificationDraft{
		Category:       model.CategoryCommentReply,
		Title:          "New reply",
		Message:        fmt.Sprintf("%s replied to your comment: %q", actor, excerpt(reply.Content, replyExcerptLength)),
		Related:        &model.RelatedEntity{Type: model.EntityComment, ID: parent.ID},
		NavigationData: commentThreadNavigation(parent, reply.ID),
	}

	recipients, err := s.selector.SelectTargeted(ctx, parent.UserID, model.CategoryCommentReply, s.now())
	if err != nil {
		return nil, err
	}

	result, err := s.deliver(ctx, recipients, draft)
	if err != nil {
		log.Printf("[CommentEvents] Reply FAILED: parent=%d reply=%d err=%v", parentCommentID, newCommentID, err)
		return nil, err
	}
	return result, nil
}

// NotifyCommentReaction tells the comment's author about a like or dislike.
// Callers invoke it only when the reactor enters a liked or disliked state;
// see HandleReactionChange.
func (s *NotificationService) NotifyCommentReaction(ctx context.Context, commentID, reactorID int64, kind model.ReactionKind) (*model.DispatchResult, error) {
	kind, err := model.ParseReactionKind(string(kind))
	if err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID == reactorID {
		return model.EmptyDispatchResult(), nil
	}

	verb := "liked"
	if kind == model.ReactionKindDislike {
		verb = "disliked"
	}
	category := kind.Category()

	draft := model.NotificationDraft{
		Category:       category,
		Title:          "New reaction",
		Message:        fmt.Sprintf("%s %s your comment", s.actorName(ctx, reactorID), verb),
		Related:        &model.RelatedEntity{Type: model.EntityComment, ID: comment.ID},
		NavigationData: commentThreadNavigation(comment, comment.ID),
	}

	recipients, err := s.selector.SelectTargeted(ctx, comment.UserID, category, s.now())
	if err != nil {
		return nil, err
	}

	result, err := s.deliver(ctx, recipients, draft)
	if err != nil {
		log.Printf("[CommentEvents] Reaction FAILED: comment=%d kind=%s err=%v", commentID, kind, err)
		return nil, err
	}
	return result, nil
}

// HandleReactionChange applies the reaction state machine: entering liked or
// disliked notifies, returning to none does not.
func (s *NotificationService) HandleReactionChange(ctx context.Context, commentID, reactorID int64, from, to model.ReactionState) (*model.DispatchResult, error) {
	kind, notify := model.ReactionTransition(from, to)
	if !notify {
		return model.EmptyDispatchResult(), nil
	}
	return s.NotifyCommentReaction(ctx, commentID, reactorID, kind)
}

// commentThreadNavigation opens the thread of c and scrolls to anchorID.
func commentThreadNavigation(c *model.Comment, anchorID int64) model.NavigationData {
	return model.NavigationData{
		Screen: model.ScreenCommentThread,
		Params: map[string]any{
			"entityType":        c.EntityType,
			"entityId":          c.EntityID,
			"commentId":         c.ID,
			"scrollToCommentId": anchorID,
		},
	}
}

// excerpt shortens s to at most n runes on a word boundary where possible.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	cut := string(runes[:n])
	if i := strings.LastIndex(cut, " "); i > n/2 {
		cut = cut[:i]
	}
	return cut + "…"
}
