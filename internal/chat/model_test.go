package chat

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adamavenir/parley/internal/backend"
	"github.com/adamavenir/parley/internal/types"
)

// fakeBackend satisfies Backend with canned data and records mutations.
type fakeBackend struct {
	messages  []types.Message
	reactions []types.Reaction
	profiles  map[string]types.Profile

	insertErr   error
	deletedIDs  []string
	insertedMsg []backend.NewMessage
}

func (f *fakeBackend) ListMessages(ctx context.Context, limit int) ([]types.Message, error) {
	return f.messages, nil
}

func (f *fakeBackend) InsertMessage(ctx context.Context, msg backend.NewMessage) (types.Message, error) {
	if f.insertErr != nil {
		return types.Message{}, f.insertErr
	}
	f.insertedMsg = append(f.insertedMsg, msg)
	return types.Message{ID: "durable-1", Content: msg.Content, AuthorID: msg.AuthorID}, nil
}

func (f *fakeBackend) UpdateMessageContent(ctx context.Context, messageID, authorID, content string) error {
	return nil
}

func (f *fakeBackend) DeleteMessage(ctx context.Context, messageID, authorID string) error {
	f.deletedIDs = append(f.deletedIDs, messageID)
	return nil
}

func (f *fakeBackend) ListReactions(ctx context.Context, messageIDs []string) ([]types.Reaction, error) {
	return f.reactions, nil
}

func (f *fakeBackend) ReactionsForMessage(ctx context.Context, messageID string) ([]types.Reaction, error) {
	return f.reactions, nil
}

func (f *fakeBackend) InsertReaction(ctx context.Context, messageID, userID, emoji string) (types.Reaction, error) {
	return types.Reaction{ID: "r-new", MessageID: messageID, UserID: userID, Emoji: emoji}, nil
}

func (f *fakeBackend) DeleteReaction(ctx context.Context, messageID, userID string) error {
	return nil
}

func (f *fakeBackend) GetProfile(ctx context.Context, userID string) (types.Profile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return types.Profile{}, &backend.APIError{Status: 404, Message: "not found"}
}

func (f *fakeBackend) UpsertProfile(ctx context.Context, profile types.Profile) error {
	return nil
}

func newTestModel(t *testing.T) (*Model, *fakeBackend) {
	t.Helper()
	fake := &fakeBackend{profiles: map[string]types.Profile{}}
	model, err := NewModel(Options{
		Client: fake,
		UserID: "viewer",
		Email:  "viewer@example.com",
	})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return model, fake
}

func ref(id string) *string { return &id }

func TestHandleInsertEventAtBottomFollows(t *testing.T) {
	m, _ := newTestModel(t)
	m.store.ApplyInsert(types.Message{ID: "m1", AuthorID: "other", AuthorLabel: "other@example.com", Content: "hi", CreatedAt: 1000})

	m.handleInsertEvent(insertEventMsg{message: types.Message{
		ID: "m2", AuthorID: "other", AuthorLabel: "other@example.com", Content: "more", CreatedAt: 2000,
	}})

	if m.notify.Active() {
		t.Fatal("no badge expected while at bottom")
	}
	if m.store.Len() != 2 {
		t.Fatalf("store len = %d, want 2", m.store.Len())
	}
}

func TestHandleInsertEventScrolledUpBadges(t *testing.T) {
	m, _ := newTestModel(t)
	m.store.ApplyInsert(types.Message{ID: "m1", AuthorID: "other", AuthorLabel: "other@example.com", Content: "hi", CreatedAt: 1000})
	m.read.atBottom = false

	m.handleInsertEvent(insertEventMsg{message: types.Message{
		ID: "m2", AuthorID: "other", AuthorLabel: "other@example.com", Content: "more", CreatedAt: 2000,
	}})

	if count, show := m.notify.Messages(); count != 1 || !show {
		t.Fatalf("Messages() = %d, %v, want 1, true", count, show)
	}
	if count, _ := m.notify.Replies(); count != 0 {
		t.Fatalf("Replies() = %d, want 0", count)
	}
}

func TestHandleInsertEventReplyToViewerBadges(t *testing.T) {
	m, _ := newTestModel(t)
	m.store.ApplyInsert(types.Message{ID: "mine", AuthorID: "viewer", AuthorLabel: "viewer@example.com", Content: "question", CreatedAt: 1000})
	m.read.atBottom = false

	m.handleInsertEvent(insertEventMsg{message: types.Message{
		ID: "m2", AuthorID: "other", AuthorLabel: "other@example.com", Content: "answer",
		CreatedAt: 2000, ReplyToID: ref("mine"),
	}})

	if count, show := m.notify.Replies(); count != 1 || !show {
		t.Fatalf("Replies() = %d, %v, want 1, true", count, show)
	}
	if count, _ := m.notify.Messages(); count != 0 {
		t.Fatalf("Messages() = %d, want 0; a reply badges only the reply category", count)
	}
}

func TestHandleInsertEventOwnEchoPromotesProvisional(t *testing.T) {
	m, _ := newTestModel(t)
	m.store.ApplyInsert(types.Message{
		ID: "temp-abc", AuthorID: "viewer", AuthorLabel: "viewer@example.com",
		Content: "on my way", CreatedAt: 1000,
	})

	m.handleInsertEvent(insertEventMsg{message: types.Message{
		ID: "durable-1", AuthorID: "viewer", AuthorLabel: "viewer@example.com",
		Content: "on my way", CreatedAt: 1200,
	}})

	if m.store.Len() != 1 {
		t.Fatalf("store len = %d, want 1 after promotion", m.store.Len())
	}
	if _, ok := m.store.Get("temp-abc"); ok {
		t.Fatal("provisional entry should be gone")
	}
	if _, ok := m.store.Get("durable-1"); !ok {
		t.Fatal("durable entry should be present")
	}
}

func TestHandleSendResultFailureRemovesProvisional(t *testing.T) {
	m, _ := newTestModel(t)
	m.store.ApplyInsert(types.Message{ID: "temp-abc", AuthorID: "viewer", Content: "oops", CreatedAt: 1000})
	m.sending = true
	m.input.SetValue("oops")

	m.handleSendResult(sendResultMsg{tempID: "temp-abc", err: context.DeadlineExceeded})

	if m.sending {
		t.Fatal("sending flag should clear")
	}
	if _, ok := m.store.Get("temp-abc"); ok {
		t.Fatal("provisional entry should be removed on failure")
	}
	if m.input.Value() != "oops" {
		t.Fatalf("compose text should survive a failed send, got %q", m.input.Value())
	}
}

func TestHandleSendResultSuccessClearsCompose(t *testing.T) {
	m, _ := newTestModel(t)
	m.sending = true
	m.input.SetValue("sent")
	m.replyToID = "m1"
	m.replyToPreview = "other: hi"

	_, cmd := m.handleSendResult(sendResultMsg{tempID: "temp-abc"})

	if m.input.Value() != "" {
		t.Fatalf("compose should clear on success, got %q", m.input.Value())
	}
	if m.replyToID != "" {
		t.Fatal("reply state should clear on success")
	}
	if cmd == nil {
		t.Fatal("success should trigger an immediate refetch")
	}
}

func TestHandleReactionFailedRestores(t *testing.T) {
	m, _ := newTestModel(t)
	previous := []types.Reaction{{ID: "r1", MessageID: "m1", UserID: "other", Emoji: "👍", CreatedAt: 500}}
	m.store.ApplyInsert(types.Message{ID: "m1", AuthorID: "other", Content: "hi", CreatedAt: 1000})
	m.store.ApplyReactionSet("m1", []types.Reaction{
		{ID: "temp-r", MessageID: "m1", UserID: "viewer", Emoji: "🔥", CreatedAt: 2000},
	})

	m.handleReactionFailed(reactionFailedMsg{messageID: "m1", previous: previous, err: context.DeadlineExceeded})

	msg, _ := m.store.Get("m1")
	if len(msg.Reactions) != 1 || msg.Reactions[0].ID != "r1" {
		t.Fatalf("reactions = %v, want restored previous set", msg.Reactions)
	}
}

func TestEnterSendsAttachmentOnly(t *testing.T) {
	m, fake := newTestModel(t)
	m.attachment = &pendingAttachment{URL: "https://b.s3.us-east-1.amazonaws.com/u/photo.png", Kind: types.AttachmentImage}

	_, cmd := m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter with a pending attachment should issue a send")
	}
	if m.store.Len() != 1 {
		t.Fatalf("store len = %d, want 1 provisional entry", m.store.Len())
	}
	entry := m.store.Snapshot()[0]
	if !entry.Provisional() || entry.AttachmentURL == "" || entry.Content != "" {
		t.Fatalf("provisional entry = %+v, want empty content with attachment url", entry)
	}

	if msg := cmd(); msg.(sendResultMsg).err != nil {
		t.Fatalf("send: %v", msg.(sendResultMsg).err)
	}
	if len(fake.insertedMsg) != 1 || fake.insertedMsg[0].AttachmentURL == "" {
		t.Fatalf("inserted = %+v, want one message carrying the attachment url", fake.insertedMsg)
	}
}

func TestEnterWithNothingToSendIsNoOp(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("empty compose with no attachment should not send")
	}
	if m.store.Len() != 0 {
		t.Fatalf("store len = %d, want 0", m.store.Len())
	}
}

func TestImmediateRefreshDoesNotRearmTick(t *testing.T) {
	m, _ := newTestModel(t)

	// The post-send refresh is one-shot; only the scheduled chain re-arms.
	// Otherwise every send would leave an extra perpetual poll loop behind.
	result := m.refreshNowCmd()()
	poll, ok := result.(pollMsg)
	if !ok {
		t.Fatalf("refresh result = %T, want pollMsg", result)
	}
	if poll.scheduled {
		t.Fatal("immediate refresh should be marked one-shot")
	}
	if _, cmd := m.handlePollMsg(poll); cmd != nil {
		t.Fatal("one-shot refresh must not re-arm the tick")
	}

	scheduled := m.fetchSnapshotCmd(true)().(pollMsg)
	if _, cmd := m.handlePollMsg(scheduled); cmd == nil {
		t.Fatal("scheduled poll must re-arm the tick")
	}
}

func TestPollErrRearmsOnlyScheduledChain(t *testing.T) {
	m, _ := newTestModel(t)

	if _, cmd := m.handlePollErr(pollErrMsg{err: context.DeadlineExceeded, scheduled: true}); cmd == nil {
		t.Fatal("scheduled poll failure must retry on the next tick")
	}
	if _, cmd := m.handlePollErr(pollErrMsg{err: context.DeadlineExceeded}); cmd != nil {
		t.Fatal("one-shot refresh failure must not spawn a tick")
	}
}

func TestJumpToLatestKeepsBadges(t *testing.T) {
	m, _ := newTestModel(t)
	m.notify.Signal(CategoryMessage)
	m.notify.Signal(CategoryReply)

	// Banner clicks dismiss one category and jump without touching the other.
	m.notify.Clear(CategoryMessage)
	m.jumpToLatest()
	if count, show := m.notify.Replies(); count != 1 || !show {
		t.Fatalf("Replies() = %d, %v, want 1, true after dismissing messages", count, show)
	}

	m.scrollToLatest()
	if m.notify.Active() {
		t.Fatal("scrollToLatest clears both categories")
	}
}

func TestHandlePollMsgSkipsUnknownLabels(t *testing.T) {
	m, _ := newTestModel(t)

	m.handlePollMsg(pollMsg{
		labels:    map[string]string{"u1": "alice@example.com", "u9": "Unknown"},
		scheduled: true,
	})

	if got := m.labels["u1"]; got != "alice@example.com" {
		t.Fatalf("labels[u1] = %q, want resolved email", got)
	}
	if _, ok := m.labels["u9"]; ok {
		t.Fatal("a failed lookup must not be cached; the next fetch retries it")
	}
}

func TestCommandEditRefInsideCommandWord(t *testing.T) {
	m, _ := newTestModel(t)
	m.store.ApplyInsert(types.Message{ID: "ed123456-aaaa", AuthorID: "viewer", Content: "old", CreatedAt: 1000})

	// "ed" is a unique prefix of the id and also a substring of "/edit";
	// the new content must still be cut after the ref, not inside the
	// command word.
	cmd := m.handleCommand("/edit ed new words here")
	if cmd == nil {
		t.Fatalf("edit rejected: %s", m.status)
	}
	result := cmd().(editResultMsg)
	if result.err != nil {
		t.Fatalf("edit: %v", result.err)
	}
	if result.content != "new words here" {
		t.Fatalf("content = %q, want %q", result.content, "new words here")
	}
}

func TestResolveMessageRef(t *testing.T) {
	m, _ := newTestModel(t)
	m.store.ApplyInsert(types.Message{ID: "abcdef12-3456", AuthorID: "other", Content: "one", CreatedAt: 1000})
	m.store.ApplyInsert(types.Message{ID: "abcxyz99-7777", AuthorID: "other", Content: "two", CreatedAt: 2000})

	if msg, ok := m.resolveMessageRef("abcdef12"); !ok || msg.Content != "one" {
		t.Fatalf("prefix lookup failed: %v %v", msg, ok)
	}
	if _, ok := m.resolveMessageRef("abc"); ok {
		t.Fatal("ambiguous prefix should not resolve")
	}
	if _, ok := m.resolveMessageRef("zzz"); ok {
		t.Fatal("unknown prefix should not resolve")
	}
	if msg, ok := m.resolveMessageRef("abcxyz99-7777"); !ok || msg.Content != "two" {
		t.Fatalf("exact id lookup failed: %v %v", msg, ok)
	}
}
