package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AINewsAgent/internal/config"
	"AINewsAgent/internal/domain"
)

var payload = domain.ApprovalPayload{
	Title:  "New Transformer Model",
	URL:    "https://arxiv.org/abs/1",
	Drafts: domain.Drafts{LinkedIn: "LinkedIn body", Twitter: []string{"t1", "t2"}},
}

func TestFormatPreview(t *testing.T) {
	preview := FormatPreview("run-1", payload)

	assert.Contains(t, preview, "📰 New Transformer Model\nhttps://arxiv.org/abs/1")
	assert.Contains(t, preview, "LinkedIn body")
	assert.Contains(t, preview, "t1\n\nt2")
	assert.Contains(t, preview, "ainewsagent resume --run run-1 --approve")
	assert.Contains(t, preview, "ainewsagent resume --run run-1 --reject")
}

func TestFormatPreview_LongDraftsKeepResumeCommands(t *testing.T) {
	long := payload
	long.Drafts = domain.Drafts{
		LinkedIn: strings.Repeat("é", 3000),
		Twitter:  []string{strings.Repeat("t", 280), strings.Repeat("u", 280), strings.Repeat("v", 280)},
	}

	preview := formatPreview("run-1", long, maxMessageRune)

	assert.LessOrEqual(t, utf8.RuneCountInString(preview), maxMessageRune)
	assert.True(t, strings.HasPrefix(preview, "AI NEWS POST FOR APPROVAL"))
	assert.Contains(t, preview, "[...]")
	assert.True(t, strings.HasSuffix(preview, "To reject:  ainewsagent resume --run run-1 --reject"))
	assert.Contains(t, preview, "ainewsagent resume --run run-1 --approve")

	short := formatPreview("run-1", payload, maxMessageRune)
	assert.Equal(t, FormatPreview("run-1", payload), short)
}

func TestApprover_SendsPreviewAndStaysPending(t *testing.T) {
	var gotPath, gotChat, gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotChat = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	approver := NewApprover(config.TelegramConfig{BotToken: "TOKEN", ChatID: "42", APIURL: server.URL + "/"}, nil)

	decision, err := approver.RequestApproval(context.Background(), "run-1", payload)

	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalPending, decision.Status)
	assert.Equal(t, payload, decision.Payload)
	assert.Equal(t, "/botTOKEN/sendMessage", gotPath)
	assert.Equal(t, "42", gotChat)
	assert.True(t, strings.HasPrefix(gotText, "AI NEWS POST FOR APPROVAL"))
}

func TestApprover_TelegramFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	approver := NewApprover(config.TelegramConfig{BotToken: "bad", ChatID: "42", APIURL: server.URL}, nil)

	_, err := approver.RequestApproval(context.Background(), "run-1", payload)

	assert.ErrorContains(t, err, "401")
}

func TestApprover_WithoutCredentialsOnlyLogs(t *testing.T) {
	decision, err := NewApprover(config.TelegramConfig{}, nil).RequestApproval(context.Background(), "run-1", payload)

	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalPending, decision.Status)
}
