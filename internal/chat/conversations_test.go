package chat

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatsync/internal/chaterr"
	"chatsync/internal/models"
)

func TestCreateDirectIsDeduplicated(t *testing.T) {
	svc, _, _ := newTestService(t)
	alice := createUser(t, svc, "alice")
	bob := createUser(t, svc, "bob")

	c1, err := svc.CreateDirect(alice, bob)
	require.NoError(t, err)

	// same pair in either order resolves to the same conversation
	c2, err := svc.CreateDirect(bob, alice)
	require.NoError(t, err)
	assert.Equal(t, c1.ID, c2.ID)
}

func TestCreateDirectValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	alice := createUser(t, svc, "alice")

	_, err := svc.CreateDirect(alice, alice)
	assert.True(t, errors.Is(err, chaterr.ErrInvalidArgument))

	_, err = svc.CreateDirect(alice, 9999)
	assert.True(t, errors.Is(err, chaterr.ErrNotFound))
}

func TestCreateGroupNeedsThreeParticipants(t *testing.T) {
	svc, _, _ := newTestService(t)
	alice := createUser(t, svc, "alice")
	bob := createUser(t, svc, "bob")

	_, err := svc.CreateGroup(alice, "pair", []uint{bob})
	assert.True(t, errors.Is(err, chaterr.ErrInvalidArgument))

	carol := createUser(t, svc, "carol")
	conv, err := svc.CreateGroup(alice, "trio", []uint{bob, carol})
	require.NoError(t, err)
	require.NotNil(t, conv.AdminID)
	assert.Equal(t, alice, *conv.AdminID)
}

func TestGroupMembership(t *testing.T) {
	svc, _, sink := newTestService(t)
	alice := createUser(t, svc, "alice")
	bob := createUser(t, svc, "bob")
	carol := createUser(t, svc, "carol")
	dave := createUser(t, svc, "dave")

	conv, err := svc.CreateGroup(alice, "trio", []uint{bob, carol})
	require.NoError(t, err)

	// only admins add members
	err = svc.AddGroupMember(conv.ID, bob, dave)
	assert.True(t, errors.Is(err, chaterr.ErrForbidden))
	require.NoError(t, svc.AddGroupMember(conv.ID, alice, dave))

	ok, err := svc.IsParticipant(conv.ID, dave)
	require.NoError(t, err)
	assert.True(t, ok)

	// members may leave on their own
	require.NoError(t, svc.RemoveGroupMember(conv.ID, dave, dave))
	ok, err = svc.IsParticipant(conv.ID, dave)
	require.NoError(t, err)
	assert.False(t, ok)

	// but not remove others
	err = svc.RemoveGroupMember(conv.ID, bob, carol)
	assert.True(t, errors.Is(err, chaterr.ErrForbidden))

	assert.NotEmpty(t, sink.ofType(EventMembershipChanged))
}

func TestListConversationsHidesUntilNewActivity(t *testing.T) {
	svc, _, _ := newTestService(t)
	alice := createUser(t, svc, "alice")
	bob := createUser(t, svc, "bob")
	conv := createDirect(t, svc, alice, bob)

	_, err := svc.Send(conv, bob, SendInput{Body: "hello"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	views, err := svc.ListConversations(alice)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, int64(1), views[0].UnreadCount)
	require.NotNil(t, views[0].LastMessage)

	require.NoError(t, svc.Hide(conv, alice))

	views, err = svc.ListConversations(alice)
	require.NoError(t, err)
	assert.Empty(t, views)

	// the conversation stays listed for bob
	views, err = svc.ListConversations(bob)
	require.NoError(t, err)
	assert.Len(t, views, 1)

	// new activity resurfaces it for alice
	time.Sleep(5 * time.Millisecond)
	_, err = svc.Send(conv, bob, SendInput{Body: "you there?"})
	require.NoError(t, err)

	views, err = svc.ListConversations(alice)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, int64(1), views[0].UnreadCount)
}

func TestSetMuted(t *testing.T) {
	svc, _, _ := newTestService(t)
	alice := createUser(t, svc, "alice")
	bob := createUser(t, svc, "bob")
	conv := createDirect(t, svc, alice, bob)

	require.NoError(t, svc.SetMuted(conv, alice, true))

	var p models.ConversationParticipant
	require.NoError(t, svc.db.
		Where("conversation_id = ? AND user_id = ?", conv, alice).
		First(&p).Error)
	assert.True(t, p.Muted)

	err := svc.SetMuted(conv, 9999, true)
	assert.True(t, errors.Is(err, chaterr.ErrNotFound))
}
