package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/codevault/pkg/internal/model"
	"github.com/yeisme/codevault/pkg/internal/service"
	"github.com/yeisme/codevault/pkg/internal/store"
)

func TestRedeemMarksOnlyThatCode(t *testing.T) {
	ctx, st := newContext(t)
	seedUser(t, st, "usr_a")

	f := upload(t, ctx, service.NewFileService(ctx), "usr_a", "X1", "X2", "X3")

	got, err := service.NewRedeemService(ctx).Redeem(ctx, "X1", "friend@example.com")
	require.NoError(t, err)

	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, []model.AccessCode{{Code: "X1", Used: true}, {Code: "X2"}, {Code: "X3"}}, got.AccessCodes)

	stored, err := st.GetFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, got.AccessCodes, stored.AccessCodes)
	assert.Equal(t, f.Content, stored.Content)
}

func TestRedeemUnknownCode(t *testing.T) {
	ctx, st := newContext(t)
	seedUser(t, st, "usr_a")
	upload(t, ctx, service.NewFileService(ctx), "usr_a", "X1")

	_, err := service.NewRedeemService(ctx).Redeem(ctx, "nope", "friend@example.com")
	assert.ErrorIs(t, err, service.ErrInvalidCode)
}

func TestRedeemIsSingleUse(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedUser(t, st, "usr_a")

			files := service.NewFileService(ctx, service.WithStore(st))
			redeem := service.NewRedeemService(ctx, service.WithStore(st))

			upload(t, ctx, files, "usr_a", "once", "twice")

			_, err := redeem.Redeem(ctx, "once", "a@example.com")
			require.NoError(t, err)

			_, err = redeem.Redeem(ctx, "once", "b@example.com")
			assert.ErrorIs(t, err, service.ErrInvalidCode)

			_, err = redeem.Redeem(ctx, "twice", "b@example.com")
			assert.NoError(t, err)
		})
	}
}

func TestRedeemIgnoresClaimantEmail(t *testing.T) {
	ctx, st := newContext(t)
	seedUser(t, st, "usr_a")
	upload(t, ctx, service.NewFileService(ctx), "usr_a", "open")

	_, err := service.NewRedeemService(ctx).Redeem(ctx, "open", "anyone@else.org")
	assert.NoError(t, err)
}

func TestRedeemRejectsBlankInputWithoutStore(t *testing.T) {
	ms := &mockStore{}
	svc := service.NewRedeemService(context.Background(), service.WithStore(ms))

	_, err := svc.Redeem(context.Background(), "  ", "a@example.com")
	assert.ErrorIs(t, err, service.ErrInvalidCode)

	_, err = svc.Redeem(context.Background(), "code", " ")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	assert.NotErrorIs(t, err, service.ErrInvalidCode, "a missing email says nothing about the code")
	assert.Contains(t, err.Error(), "email is required")

	_, err = svc.Redeem(context.Background(), " ", " ")
	assert.ErrorIs(t, err, service.ErrInvalidCode)

	_, err = svc.Redeem(context.Background(), "code", "not-an-email")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	ms.AssertNotCalled(t, "ListFiles", mock.Anything, mock.Anything)
}

func TestRedeemCollisionFirstMatchWins(t *testing.T) {
	ctx, st := newContext(t)
	seedUser(t, st, "usr_a")

	files := service.NewFileService(ctx)
	first := upload(t, ctx, files, "usr_a", "dup")
	second := upload(t, ctx, files, "usr_a", "dup")

	redeem := service.NewRedeemService(ctx)

	got, err := redeem.Redeem(ctx, "dup", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	got, err = redeem.Redeem(ctx, "dup", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	_, err = redeem.Redeem(ctx, "dup", "a@example.com")
	assert.ErrorIs(t, err, service.ErrInvalidCode)
}

func TestConcurrentRedeemSucceedsOnce(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedUser(t, st, "usr_a")
			upload(t, ctx, service.NewFileService(ctx, service.WithStore(st)), "usr_a", "race")

			redeem := service.NewRedeemService(ctx, service.WithStore(st))

			var (
				wins    atomic.Int32
				invalid atomic.Int32
				wg      sync.WaitGroup
			)

			for i := 0; i < 32; i++ {
				wg.Add(1)

				go func() {
					defer wg.Done()

					_, err := redeem.Redeem(ctx, "race", "a@example.com")

					switch {
					case err == nil:
						wins.Add(1)
					case errors.Is(err, service.ErrInvalidCode):
						invalid.Add(1)
					}
				}()
			}

			wg.Wait()

			assert.Equal(t, int32(1), wins.Load())
			assert.Equal(t, int32(31), invalid.Load())
		})
	}
}

func TestRedeemStoreFailureIsNotInvalidCode(t *testing.T) {
	ms := &mockStore{}
	ms.On("ListFiles", mock.Anything, store.FileFilter{}).Return(nil, errors.New("connection refused"))

	_, err := service.NewRedeemService(context.Background(), service.WithStore(ms)).
		Redeem(context.Background(), "X1", "a@example.com")

	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, service.ErrInvalidCode)
	ms.AssertExpectations(t)
}

func TestRedeemCompareAndSetFailure(t *testing.T) {
	f := &model.File{ID: "fl_1", AccessCodes: []model.AccessCode{{Code: "X1"}}}

	ms := &mockStore{}
	ms.On("ListFiles", mock.Anything, store.FileFilter{}).Return([]*model.File{f}, nil)
	ms.On("SetCodeUsedIfUnused", mock.Anything, "fl_1", "X1").Return(false, errors.New("disk full"))

	_, err := service.NewRedeemService(context.Background(), service.WithStore(ms)).
		Redeem(context.Background(), "X1", "a@example.com")

	assert.ErrorIs(t, err, service.ErrStoreUnavailable)
	ms.AssertExpectations(t)
}

func TestRedeemReloadFailureFallsBackToLocalCopy(t *testing.T) {
	f := &model.File{ID: "fl_1", AccessCodes: []model.AccessCode{{Code: "X1"}, {Code: "X2"}}}

	ms := &mockStore{}
	ms.On("ListFiles", mock.Anything, store.FileFilter{}).Return([]*model.File{f}, nil)
	ms.On("SetCodeUsedIfUnused", mock.Anything, "fl_1", "X1").Return(true, nil)
	ms.On("GetFile", mock.Anything, "fl_1").Return(nil, errors.New("timeout"))

	got, err := service.NewRedeemService(context.Background(), service.WithStore(ms)).
		Redeem(context.Background(), "X1", "a@example.com")

	require.NoError(t, err)
	assert.Equal(t, []model.AccessCode{{Code: "X1", Used: true}, {Code: "X2"}}, got.AccessCodes)
	assert.False(t, f.AccessCodes[0].Used, "candidate must not be mutated")
}

func TestRedeemStoreTimeout(t *testing.T) {
	ms := &mockStore{}
	ms.On("ListFiles", mock.Anything, store.FileFilter{}).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)

	svc := service.NewRedeemService(context.Background(),
		service.WithStore(ms), service.WithStoreTimeout(20*time.Millisecond))

	_, err := svc.Redeem(context.Background(), "X1", "a@example.com")
	assert.ErrorIs(t, err, service.ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedeemWithoutStore(t *testing.T) {
	_, err := service.NewRedeemService(context.Background()).Redeem(context.Background(), "X1", "a@example.com")
	assert.ErrorIs(t, err, service.ErrStoreUnavailable)
}
