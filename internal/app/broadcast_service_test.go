package app

import (
	"context"
	"fmt"
	"testing"

	"school_points_bot/internal/domain/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

type fakeClient struct {
	delivered []int64
	failFor   map[int64]bool
	lastOpts  *telebot.SendOptions
}

func (f *fakeClient) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	f.lastOpts = options
	if f.failFor[recipientChatID] {
		return fmt.Errorf("delivery failed for %d", recipientChatID)
	}
	f.delivered = append(f.delivered, recipientChatID)
	return nil
}

func TestBroadcastAll_SendsToEveryLink(t *testing.T) {
	st := twoStudentState()
	// Two chat identities on the same student both receive the broadcast.
	st.TGLinks["100"] = "1"
	st.TGLinks["200"] = "1"
	st.TGLinks["300"] = "2"
	client := &fakeClient{}
	svc := NewBroadcastService(newTestStore(t, st), client, testLogger())

	sent, failed, err := svc.BroadcastAll(context.Background(), "Оголошення", false)
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.Equal(t, 0, failed)
	assert.ElementsMatch(t, []int64{100, 200, 300}, client.delivered)
	assert.False(t, client.lastOpts.DisableNotification)
}

func TestBroadcastAll_FailuresAreCountedNotFatal(t *testing.T) {
	st := twoStudentState()
	st.TGLinks["100"] = "1"
	st.TGLinks["200"] = "2"
	st.TGLinks["300"] = "2"
	client := &fakeClient{failFor: map[int64]bool{200: true}}
	svc := NewBroadcastService(newTestStore(t, st), client, testLogger())

	sent, failed, err := svc.BroadcastAll(context.Background(), "Оголошення", false)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, 1, failed)
	assert.ElementsMatch(t, []int64{100, 300}, client.delivered, "one failure does not abort the rest")
}

func TestBroadcastAll_SilentFlag(t *testing.T) {
	st := twoStudentState()
	st.TGLinks["100"] = "1"
	client := &fakeClient{}
	svc := NewBroadcastService(newTestStore(t, st), client, testLogger())

	_, _, err := svc.BroadcastAll(context.Background(), "Тихе оголошення", true)
	require.NoError(t, err)
	assert.True(t, client.lastOpts.DisableNotification)
}

func TestBroadcastAll_NonNumericChatIDCountsAsFailure(t *testing.T) {
	st := ledger.NewState()
	st.Students["1"] = &ledger.Student{ID: "1"}
	st.TGLinks["not-a-number"] = "1"
	client := &fakeClient{}
	svc := NewBroadcastService(newTestStore(t, st), client, testLogger())

	sent, failed, err := svc.BroadcastAll(context.Background(), "Оголошення", false)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, 1, failed)
}

func TestBroadcastAll_EmptyLinks(t *testing.T) {
	client := &fakeClient{}
	svc := NewBroadcastService(newTestStore(t, twoStudentState()), client, testLogger())

	sent, failed, err := svc.BroadcastAll(context.Background(), "Оголошення", false)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Zero(t, failed)
}
