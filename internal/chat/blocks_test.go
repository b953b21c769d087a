package chat

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatsync/internal/chaterr"
	"chatsync/internal/models"
)

func TestBlockIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	alice := createUser(t, svc, "alice")
	bob := createUser(t, svc, "bob")

	require.NoError(t, svc.Block(alice, bob))
	require.NoError(t, svc.Block(alice, bob))

	var n int64
	require.NoError(t, svc.db.Model(&models.BlockRelation{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestCanInteractEitherDirection(t *testing.T) {
	svc, _, _ := newTestService(t)
	alice := createUser(t, svc, "alice")
	bob := createUser(t, svc, "bob")

	ok, err := svc.CanInteract(alice, bob)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.Block(alice, bob))

	// blocked regardless of which side asks
	ok, err = svc.CanInteract(alice, bob)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = svc.CanInteract(bob, alice)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.Unblock(alice, bob))

	ok, err = svc.CanInteract(bob, alice)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnblockAbsentRelationSucceeds(t *testing.T) {
	svc, _, _ := newTestService(t)
	alice := createUser(t, svc, "alice")
	bob := createUser(t, svc, "bob")

	require.NoError(t, svc.Unblock(alice, bob))
}

func TestBlockSelfRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	alice := createUser(t, svc, "alice")

	err := svc.Block(alice, alice)
	assert.True(t, errors.Is(err, chaterr.ErrInvalidArgument))
}

func TestBlockUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	alice := createUser(t, svc, "alice")

	err := svc.Block(alice, 9999)
	assert.True(t, errors.Is(err, chaterr.ErrNotFound))
}

func TestBlockStatusDistinguishesDirections(t *testing.T) {
	svc, _, _ := newTestService(t)
	alice := createUser(t, svc, "alice")
	bob := createUser(t, svc, "bob")

	require.NoError(t, svc.Block(alice, bob))

	st, err := svc.BlockStatus(alice, bob)
	require.NoError(t, err)
	assert.True(t, st.IBlocked)
	assert.False(t, st.BlockedMe)

	st, err = svc.BlockStatus(bob, alice)
	require.NoError(t, err)
	assert.False(t, st.IBlocked)
	assert.True(t, st.BlockedMe)
}

func TestBlockNotifiesTarget(t *testing.T) {
	svc, _, sink := newTestService(t)
	alice := createUser(t, svc, "alice")
	bob := createUser(t, svc, "bob")

	require.NoError(t, svc.Block(alice, bob))

	evs := sink.ofType(EventUserBlocked)
	require.Len(t, evs, 1)
	assert.Equal(t, []uint{bob}, evs[0].Targets)
}
