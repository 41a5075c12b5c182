// Package chat implements the interactive chat session. The Bubble Tea
// update loop is the session's scheduler: every mutation of the message
// store (push events, poll results, optimistic writes, reaction toggles)
// lands here as a message and runs to completion before the next one, so
// store state never needs a lock.
package chat

import (
	"context"
	"database/sql"
	"io"
	"log"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/adamavenir/parley/internal/backend"
	"github.com/adamavenir/parley/internal/store"
	"github.com/adamavenir/parley/internal/types"
)

// Backend is the durable store for messages, reactions, and profiles.
// *backend.Client satisfies it; tests substitute fakes.
type Backend interface {
	ListMessages(ctx context.Context, limit int) ([]types.Message, error)
	InsertMessage(ctx context.Context, msg backend.NewMessage) (types.Message, error)
	UpdateMessageContent(ctx context.Context, messageID, authorID, content string) error
	DeleteMessage(ctx context.Context, messageID, authorID string) error
	ListReactions(ctx context.Context, messageIDs []string) ([]types.Reaction, error)
	ReactionsForMessage(ctx context.Context, messageID string) ([]types.Reaction, error)
	InsertReaction(ctx context.Context, messageID, userID, emoji string) (types.Reaction, error)
	DeleteReaction(ctx context.Context, messageID, userID string) error
	GetProfile(ctx context.Context, userID string) (types.Profile, error)
	UpsertProfile(ctx context.Context, profile types.Profile) error
}

// AttachmentStore uploads and deletes attachment objects.
type AttachmentStore interface {
	Upload(ctx context.Context, ownerID, fileName, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

// Options configure a chat session.
type Options struct {
	Client      Backend
	Attachments AttachmentStore // nil disables /attach
	BackendURL  string
	Token       string
	UserID      string
	Email       string
	CacheDB     *sql.DB // nil disables the startup snapshot cache
	Logger      *log.Logger
}

// Run starts the chat UI and blocks until the session ends.
func Run(opts Options) error {
	model, err := NewModel(opts)
	if err != nil {
		return err
	}
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = program.Run()
	model.Close()
	return err
}

// pendingAttachment is an uploaded-but-unsent attachment on the compose box.
type pendingAttachment struct {
	URL  string
	Kind types.AttachmentKind
}

// Model implements the chat session.
type Model struct {
	client      Backend
	attachments AttachmentStore
	backendURL  string
	token       string
	userID      string
	email       string
	logger      *log.Logger

	store   *store.MessageStore
	labels  map[string]string // author id -> display label, session-scoped, never invalidated
	cacheDB *sql.DB

	viewport    viewport.Model
	input       textarea.Model
	zoneManager *zone.Manager
	width       int
	height      int

	read   ReadPosition
	notify Notifications

	realtime     *backend.Realtime
	realtimeDown bool

	replyToID      string
	replyToPreview string
	attachment     *pendingAttachment
	uploading      bool
	sending        bool

	status string
}

// NewModel creates a chat model, seeded from the local snapshot cache when
// one is available so the view is not empty before the first poll.
func NewModel(opts Options) (*Model, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	model := &Model{
		client:      opts.Client,
		attachments: opts.Attachments,
		backendURL:  opts.BackendURL,
		token:       opts.Token,
		userID:      opts.UserID,
		email:       opts.Email,
		logger:      logger,
		store:       store.New(),
		labels:      make(map[string]string),
		cacheDB:     opts.CacheDB,
		viewport:    viewport.New(0, 0),
		input:       newInputModel(),
		zoneManager: zone.New(),
		read:        NewReadPosition(),
	}
	model.labels[opts.UserID] = opts.Email

	if model.cacheDB != nil {
		model.seedFromCache()
	}
	return model, nil
}
