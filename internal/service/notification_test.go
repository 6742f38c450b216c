package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchday/internal/model"
)

func seedMatch42(h *harness) {
	h.matches.matches[42] = &model.MatchContext{
		ID:          42,
		Status:      model.MatchStatusLive,
		KickoffAt:   time.Date(2026, 3, 4, 14, 0, 0, 0, time.UTC),
		HomeTeam:    model.TeamSummary{ID: 1, Name: "Arsenal"},
		AwayTeam:    model.TeamSummary{ID: 2, Name: "Chelsea"},
		Competition: model.CompetitionSummary{ID: 9, Name: "Premier League"},
	}
}

func TestNotifyMatchEvent_OnlyOptedInSubscribersAreReached(t *testing.T) {
	// ARRANGE: U1 opted out of match start, U2 opted in with one device
	h := newHarness(t)
	seedMatch42(h)
	h.settings.configure(1, func(s *model.NotificationSetting) { s.MatchStart = false })
	h.settings.configure(2, nil)
	h.audience.subscribe(model.SubscriptionMatch, 42, 1, 2)
	h.tokens.add(1, "tok-u1")
	h.tokens.add(2, "tok-u2")

	// ACT
	result, err := h.svc.NotifyMatchEvent(context.Background(), 42, model.MatchEventStart)

	// ASSERT
	require.NoError(t, err)
	assert.Equal(t, 1, result.NotificationsStored)
	assert.Equal(t, 1, result.UsersTargeted)
	assert.Equal(t, 1, result.UsersReached)
	assert.Equal(t, 1, result.DevicesSucceeded)
	assert.Equal(t, 0, result.DevicesFailed)
	assert.Equal(t, []string{"tok-u2"}, h.gateway.sentTokens())

	assert.Empty(t, h.notifs.forUser(1))
	rows := h.notifs.forUser(2)
	require.Len(t, rows, 1)
	n := rows[0]
	assert.Equal(t, "MATCH_START", n.Type)
	assert.Equal(t, "Kick-off: Arsenal vs Chelsea", n.Title)
	require.NotNil(t, n.RelatedEntityType)
	assert.Equal(t, model.EntityMatch, *n.RelatedEntityType)
	assert.Equal(t, int64(42), *n.RelatedEntityID)
	assert.Equal(t, model.ScreenMatchDetail, n.NavigationData.Screen)
	assert.Equal(t, int64(42), n.NavigationData.Params["matchId"])
	assert.Contains(t, n.NavigationData.Params, "match")
}

func TestNotifyMatchEvent_PushCarriesStoredNavigation(t *testing.T) {
	h := newHarness(t)
	seedMatch42(h)
	h.audience.subscribe(model.SubscriptionMatch, 42, 2)
	h.tokens.add(2, "tok-u2")

	_, err := h.svc.NotifyMatchEvent(context.Background(), 42, model.MatchEventReminder)
	require.NoError(t, err)

	require.Len(t, h.gateway.msgs, 1)
	msg := h.gateway.msgs[0]
	rows := h.notifs.forUser(2)
	require.Len(t, rows, 1)
	assert.Equal(t, rows[0].Title, msg.Title)
	assert.Equal(t, rows[0].Message, msg.Body)
	assert.Equal(t, rows[0].NavigationData, msg.Data["navigationData"])
	assert.Equal(t, "MATCH_REMINDER", msg.Data["type"])
	assert.Contains(t, msg.Body, "kicks off at 14:00 UTC")
}

func TestNotifyMatchEvent_FullTimeScore(t *testing.T) {
	h := newHarness(t)
	seedMatch42(h)
	home, away := 2, 1
	h.matches.matches[42].HomeScore = &home
	h.matches.matches[42].AwayScore = &away
	h.audience.subscribe(model.SubscriptionMatch, 42, 2)

	result, err := h.svc.NotifyMatchEvent(context.Background(), 42, model.MatchEventEnd)

	require.NoError(t, err)
	assert.Equal(t, 1, result.UsersWithoutDevices)
	rows := h.notifs.forUser(2)
	require.Len(t, rows, 1)
	assert.Equal(t, "Full time: Arsenal 2-1 Chelsea", rows[0].Title)
	assert.Equal(t, "MATCH_END", rows[0].Type)
}

func TestNotifyMatchEvent_Errors(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.NotifyMatchEvent(context.Background(), 1, model.MatchLifecycleEvent("halftime"))
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = h.svc.NotifyMatchEvent(context.Background(), 404, model.MatchEventStart)
	assert.ErrorIs(t, err, model.ErrMatchNotFound)
}

func TestNotifyMatchEvent_NoSubscribersIsNotAnError(t *testing.T) {
	h := newHarness(t)
	seedMatch42(h)

	result, err := h.svc.NotifyMatchEvent(context.Background(), 42, model.MatchEventStart)

	require.NoError(t, err)
	assert.Equal(t, *model.EmptyDispatchResult(), *result)
	assert.Equal(t, 0, h.notifs.insertCalls)
}

func TestDeliver_PersistenceFailureStopsPush(t *testing.T) {
	h := newHarness(t)
	seedMatch42(h)
	h.audience.subscribe(model.SubscriptionMatch, 42, 2)
	h.tokens.add(2, "tok-u2")
	h.notifs.insertErr = errStoreDown

	result, err := h.svc.NotifyMatchEvent(context.Background(), 42, model.MatchEventStart)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, model.ErrPersistence)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Empty(t, h.gateway.sentTokens(), "never push what was not recorded")
}

func TestDeliver_RegistryFailureAfterPersistStillReturnsResult(t *testing.T) {
	// ARRANGE: records can be written but device tokens cannot be resolved
	h := newHarness(t)
	h.tokens.add(6, "tok-6")
	h.tokens.getErr = errStoreDown
	req := model.TargetedRequest{UserID: 6, Title: "Welcome", Message: "Thanks for joining"}

	// ACT
	result, err := h.svc.SendTargeted(context.Background(), req)

	// ASSERT
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.NotificationsStored)
	assert.Equal(t, 1, result.UsersTargeted)
	assert.Zero(t, result.UsersReached)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, int64(6), result.Errors[0].UserID)
	assert.Equal(t, model.OutcomeTransientFailure, result.Errors[0].Outcome)
	assert.Contains(t, result.Errors[0].Error, errStoreDown.Error())
	assert.Empty(t, h.gateway.sentTokens())
	assert.Len(t, h.notifs.forUser(6), 1, "exactly one record per user")
}

func seedThread(h *harness) {
	parentID := int64(10)
	h.comments.comments[10] = &model.Comment{ID: 10, EntityType: "MATCH", EntityID: 42, UserID: 1, AuthorUsername: "alice", Content: "What a game"}
	h.comments.comments[11] = &model.Comment{ID: 11, EntityType: "MATCH", EntityID: 42, UserID: 2, AuthorUsername: "bob", ParentID: &parentID, Content: "Agreed, brilliant second half"}
	h.users.users[1] = &model.UserSummary{ID: 1, Username: "alice"}
	h.users.users[2] = &model.UserSummary{ID: 2, Username: "bob"}
	h.users.users[3] = &model.UserSummary{ID: 3, Username: "carol"}
}

func TestNotifyCommentReply_NotifiesParentAuthor(t *testing.T) {
	// ARRANGE: comment 10 by alice (1) gets reply 11 from bob (2)
	h := newHarness(t)
	seedThread(h)
	h.tokens.add(1, "tok-alice")

	// ACT
	result, err := h.svc.NotifyCommentReply(context.Background(), 10, 11, 2)

	// ASSERT
	require.NoError(t, err)
	assert.Equal(t, 1, result.NotificationsStored)
	assert.Equal(t, 1, result.DevicesSucceeded)

	rows := h.notifs.forUser(1)
	require.Len(t, rows, 1)
	n := rows[0]
	assert.Equal(t, "COMMENT_REPLY", n.Type)
	assert.Equal(t, model.EntityComment, *n.RelatedEntityType)
	assert.Equal(t, int64(10), *n.RelatedEntityID)
	assert.Contains(t, n.Message, "bob replied to your comment")
	assert.Equal(t, model.ScreenCommentThread, n.NavigationData.Screen)
	assert.Equal(t, int64(11), n.NavigationData.Params["scrollToCommentId"])
	assert.Equal(t, int64(10), n.NavigationData.Params["commentId"])
	assert.Empty(t, h.notifs.forUser(2))
}

func TestNotifyCommentReply_SelfReplyIsSilent(t *testing.T) {
	h := newHarness(t)
	seedThread(h)
	h.comments.comments[11].UserID = 1

	result, err := h.svc.NotifyCommentReply(context.Background(), 10, 11, 1)

	require.NoError(t, err)
	assert.Equal(t, 0, result.NotificationsStored)
	assert.Equal(t, 0, h.notifs.insertCalls)
}

func TestNotifyCommentReply_RejectsUnrelatedComments(t *testing.T) {
	h := newHarness(t)
	seedThread(h)

	_, err := h.svc.NotifyCommentReply(context.Background(), 11, 10, 1)

	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestNotifyCommentReply_OptedOutAuthor(t *testing.T) {
	h := newHarness(t)
	seedThread(h)
	h.settings.configure(1, func(s *model.NotificationSetting) { s.CommentReplies = false })
	h.tokens.add(1, "tok-alice")

	result, err := h.svc.NotifyCommentReply(context.Background(), 10, 11, 2)

	require.NoError(t, err)
	assert.Equal(t, 0, result.NotificationsStored)
	assert.Empty(t, h.gateway.sentTokens())
}

func TestHandleReactionChange_StateMachine(t *testing.T) {
	tests := []struct {
		from, to model.ReactionState
		wantType string
	}{
		{model.ReactionNone, model.ReactionLiked, "COMMENT_LIKE"},
		{model.ReactionNone, model.ReactionDisliked, "COMMENT_DISLIKE"},
		{model.ReactionLiked, model.ReactionDisliked, "COMMENT_DISLIKE"},
		{model.ReactionDisliked, model.ReactionLiked, "COMMENT_LIKE"},
		{model.ReactionLiked, model.ReactionNone, ""},
		{model.ReactionDisliked, model.ReactionNone, ""},
		{model.ReactionLiked, model.ReactionLiked, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			for _, reactor := range []int64{3, 1} { // carol, then the author herself
				h := newHarness(t)
				seedThread(h)

				_, err := h.svc.HandleReactionChange(context.Background(), 10, reactor, tt.from, tt.to)
				require.NoError(t, err)

				rows := h.notifs.forUser(1)
				if tt.wantType == "" || reactor == 1 {
					assert.Empty(t, rows)
					continue
				}
				require.Len(t, rows, 1)
				assert.Equal(t, tt.wantType, rows[0].Type)
				assert.Contains(t, rows[0].Message, "carol")
			}
		})
	}
}

func TestNotifyCommentReaction_DislikeUsesSharedLikeFlag(t *testing.T) {
	h := newHarness(t)
	seedThread(h)
	h.settings.configure(1, func(s *model.NotificationSetting) { s.CommentLikes = false })

	result, err := h.svc.NotifyCommentReaction(context.Background(), 10, 3, model.ReactionKindDislike)

	require.NoError(t, err)
	assert.Equal(t, 0, result.NotificationsStored)
}

func TestNotifyCommentReaction_KindIsCaseInsensitive(t *testing.T) {
	h := newHarness(t)
	seedThread(h)

	result, err := h.svc.NotifyCommentReaction(context.Background(), 10, 3, model.ReactionKind("DISLIKE"))

	require.NoError(t, err)
	assert.Equal(t, 1, result.NotificationsStored)
	rows := h.notifs.forUser(1)
	require.Len(t, rows, 1)
	assert.Equal(t, "COMMENT_DISLIKE", rows[0].Type)
	assert.Equal(t, "carol disliked your comment", rows[0].Message)

	_, err = h.svc.NotifyCommentReaction(context.Background(), 10, 3, model.ReactionKind("love"))
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestSendTargeted(t *testing.T) {
	h := newHarness(t)
	h.settings.configure(5, func(s *model.NotificationSetting) { s.PushEnabled = false })
	h.tokens.add(5, "tok-5")
	h.tokens.add(6, "tok-6")

	t.Run("push disabled persists without push", func(t *testing.T) {
		result, err := h.svc.SendTargeted(context.Background(), model.TargetedRequest{
			UserID: 5, Title: "Welcome", Message: "Thanks for joining",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.NotificationsStored)
		assert.Equal(t, 0, result.UsersTargeted)
		assert.Len(t, h.notifs.forUser(5), 1)
	})

	t.Run("caller supplied navigation is stored verbatim", func(t *testing.T) {
		nav := &model.NavigationData{Screen: "NewsDetail", Params: map[string]any{"newsId": float64(3)}}
		result, err := h.svc.SendTargeted(context.Background(), model.TargetedRequest{
			UserID: 6, Category: model.CategoryNews, Title: "Big news", Message: "Read it",
			RelatedEntity:  &model.RelatedEntity{Type: model.EntityNews, ID: 3},
			NavigationData: nav,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.DevicesSucceeded)
		rows := h.notifs.forUser(6)
		require.Len(t, rows, 1)
		assert.Equal(t, *nav, rows[0].NavigationData)
		assert.Equal(t, "NEWS", rows[0].Type)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := h.svc.SendTargeted(context.Background(), model.TargetedRequest{UserID: 6, Message: "x"})
		assert.ErrorIs(t, err, model.ErrValidation)

		_, err = h.svc.SendTargeted(context.Background(), model.TargetedRequest{Title: "x", Message: "x"})
		assert.ErrorIs(t, err, model.ErrValidation)
	})
}

func TestBroadcast(t *testing.T) {
	t.Run("rejects interactive category without touching the store", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.svc.Broadcast(context.Background(), model.BroadcastRequest{
			Category: model.CategoryCommentLike, Title: "t", Message: "m",
		})

		assert.ErrorIs(t, err, model.ErrInvalidCategory)
		assert.ErrorIs(t, err, model.ErrValidation)
		assert.Equal(t, 0, h.audience.calls)
		assert.Equal(t, 0, h.notifs.insertCalls)
	})

	t.Run("team subscribers", func(t *testing.T) {
		h := newHarness(t)
		h.audience.subscribe(model.SubscriptionTeam, 1, 7, 8)
		h.tokens.add(7, "tok-7a", "tok-7b")

		result, err := h.svc.Broadcast(context.Background(), model.BroadcastRequest{
			Category: model.CategoryTeamNews,
			Title:    "Squad update",
			Message:  "Captain back in training",
			Filter:   &model.SubscriptionFilter{Type: model.SubscriptionTeam, EntityID: 1},
		})

		require.NoError(t, err)
		assert.Equal(t, 2, result.NotificationsStored)
		assert.Equal(t, 2, result.UsersTargeted)
		assert.Equal(t, 1, result.UsersReached)
		assert.Equal(t, 1, result.UsersWithoutDevices)
		assert.Equal(t, 2, result.DevicesSucceeded)
	})

	t.Run("invalid filter", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.svc.Broadcast(context.Background(), model.BroadcastRequest{
			Category: model.CategoryNews, Title: "t", Message: "m",
			Filter: &model.SubscriptionFilter{Type: "LEAGUE", EntityID: 1},
		})

		assert.ErrorIs(t, err, model.ErrValidation)
	})
}

func TestRegisterToken_Idempotent(t *testing.T) {
	h := newHarness(t)
	name := "Pixel 9"

	id1, err := h.svc.RegisterToken(context.Background(), 1, "tok-abc", nil)
	require.NoError(t, err)
	first := h.tokens.tokens[0].UpdatedAt

	time.Sleep(2 * time.Millisecond)
	id2, err := h.svc.RegisterToken(context.Background(), 1, " tok-abc ", &name)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, h.tokens.count())
	assert.True(t, h.tokens.tokens[0].UpdatedAt.After(first))
	require.NotNil(t, h.tokens.tokens[0].DeviceName)
	assert.Equal(t, "Pixel 9", *h.tokens.tokens[0].DeviceName)

	_, err = h.svc.RegisterToken(context.Background(), 1, "   ", nil)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestUnregisterToken(t *testing.T) {
	h := newHarness(t)
	h.tokens.add(1, "tok-abc")

	removed, err := h.svc.UnregisterToken(context.Background(), 1, "tok-abc")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = h.svc.UnregisterToken(context.Background(), 1, "tok-abc")
	require.NoError(t, err, "removing an absent token is not an error")
	assert.False(t, removed)
}

func TestNotificationCentre(t *testing.T) {
	// ARRANGE: three notifications for user 1
	h := newHarness(t)
	for i := 0; i < 3; i++ {
		_, err := h.svc.SendTargeted(context.Background(), model.TargetedRequest{UserID: 1, Title: "t", Message: "m"})
		require.NoError(t, err)
	}

	// ACT + ASSERT: paginate two at a time
	page, err := h.svc.GetNotifications(context.Background(), 1, nil, 2)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, 3, page.UnreadCount)
	assert.Greater(t, page.Notifications[0].ID, page.Notifications[1].ID)

	rest, err := h.svc.GetNotifications(context.Background(), 1, page.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, rest.Notifications, 1)
	assert.False(t, rest.HasMore)

	n, err := h.svc.MarkAsRead(context.Background(), 1, []int64{page.Notifications[0].ID, page.Notifications[0].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	count, err := h.svc.GetUnreadCount(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	n, err = h.svc.MarkAllAsRead(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = h.svc.MarkAsRead(context.Background(), 1, nil)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestUpcomingReminders(t *testing.T) {
	h := newHarness(t)
	h.matches.matches[1] = &model.MatchContext{ID: 1, Status: model.MatchStatusScheduled, KickoffAt: fixedNow.Add(30 * time.Minute)}
	h.matches.matches[2] = &model.MatchContext{ID: 2, Status: model.MatchStatusScheduled, KickoffAt: fixedNow.Add(35 * time.Minute)}
	h.matches.matches[3] = &model.MatchContext{ID: 3, Status: model.MatchStatusScheduled, KickoffAt: fixedNow.Add(20 * time.Minute)}
	h.matches.matches[4] = &model.MatchContext{ID: 4, Status: model.MatchStatusLive, KickoffAt: fixedNow.Add(31 * time.Minute)}

	ids, err := h.svc.UpcomingReminders(context.Background(), 30*time.Minute, 5*time.Minute)

	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids, "window is half-open and only scheduled matches count")

	_, err = h.svc.UpcomingReminders(context.Background(), 30*time.Minute, 0)
	assert.ErrorIs(t, err, model.ErrValidation)
}
