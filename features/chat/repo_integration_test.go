package chat_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docschat/features/chat"
	"docschat/internal/testutils"
)

func TestPostgresRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	repo := chat.NewPostgresRepo(suite.DB)
	ctx := context.Background()

	t.Run("AppendMessage creates session on first use", func(t *testing.T) {
		require.NoError(t, repo.AppendMessage(ctx, "sess-a", chat.RoleUser, "first question"))
		require.NoError(t, repo.AppendMessage(ctx, "sess-a", chat.RoleAssistant, "first answer"))

		var count int
		err := suite.DB.QueryRow(`SELECT COUNT(*) FROM sessions WHERE session_id = $1`, "sess-a").Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		messages, err := repo.History(ctx, "sess-a")
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, chat.RoleUser, messages[0].Role)
		assert.Equal(t, "first answer", messages[1].Content)
	})

	t.Run("Context round trip", func(t *testing.T) {
		sctx := chat.SessionContext{SelectedTexts: []chat.Selection{
			{Text: "selected passage", Timestamp: time.Now().UTC().Truncate(time.Second)},
		}}
		require.NoError(t, repo.SaveContext(ctx, "sess-b", sctx))

		got, err := repo.GetContext(ctx, "sess-b")
		require.NoError(t, err)
		require.Len(t, got.SelectedTexts, 1)
		assert.Equal(t, "selected passage", got.SelectedTexts[0].Text)
	})

	t.Run("SaveContext overwrites prior context", func(t *testing.T) {
		first := chat.SessionContext{SelectedTexts: []chat.Selection{{Text: "one"}}}
		second := chat.SessionContext{SelectedTexts: []chat.Selection{{Text: "one"}, {Text: "two"}}}
		require.NoError(t, repo.SaveContext(ctx, "sess-c", first))
		require.NoError(t, repo.SaveContext(ctx, "sess-c", second))

		got, err := repo.GetContext(ctx, "sess-c")
		require.NoError(t, err)
		assert.Len(t, got.SelectedTexts, 2)
	})

	t.Run("Unknown session yields empty context", func(t *testing.T) {
		got, err := repo.GetContext(ctx, "never-seen")
		require.NoError(t, err)
		assert.Empty(t, got.SelectedTexts)
	})

	t.Run("Deleting session cascades to history", func(t *testing.T) {
		require.NoError(t, repo.AppendMessage(ctx, "sess-d", chat.RoleUser, "to be removed"))

		_, err := suite.DB.Exec(`DELETE FROM sessions WHERE session_id = $1`, "sess-d")
		require.NoError(t, err)

		messages, err := repo.History(ctx, "sess-d")
		require.NoError(t, err)
		assert.Empty(t, messages)
	})
}
