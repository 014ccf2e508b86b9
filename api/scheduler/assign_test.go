package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/busanbank/live-support-api/config"
	"github.com/busanbank/live-support-api/coordination"
	coordmocks "github.com/busanbank/live-support-api/coordination/mocks"
	dbmocks "github.com/busanbank/live-support-api/databases/mocks"
	"github.com/busanbank/live-support-api/models"
)

type fakeNotifier struct {
	events []string
	err    error
}

func (f *fakeNotifier) NotifyAssigned(sessionID, consultantID, mediaChannel string) error {
	f.events = append(f.events, sessionID+"/"+consultantID+"/"+mediaChannel)
	return f.err
}

type testDeps struct {
	store    *coordmocks.SessionStore
	queue    *coordmocks.WaitingQueue
	pool     *coordmocks.ConsultantPool
	watch    *coordmocks.AssignedWatch
	lock     *coordmocks.JobLock
	notifier *fakeNotifier
	archive  *dbmocks.SessionArchiveDatabase
	messages *dbmocks.ChatMessageDatabase
}

func newTestScheduler() (*Scheduler, *testDeps) {
	d := &testDeps{
		store:    &coordmocks.SessionStore{},
		queue:    &coordmocks.WaitingQueue{},
		pool:     &coordmocks.ConsultantPool{},
		watch:    &coordmocks.AssignedWatch{},
		lock:     &coordmocks.JobLock{},
		notifier: &fakeNotifier{},
		archive:  &dbmocks.SessionArchiveDatabase{},
		messages: &dbmocks.ChatMessageDatabase{},
	}
	conf := config.Config{
		AssignInterval:    150 * time.Millisecond,
		AssignMaxPerTick:  20,
		AssignedTimeout:   15 * time.Second,
		WatchdogInterval:  500 * time.Millisecond,
		MaxAssignRetries:  3,
		PickCandidates:    5,
		ConsultantLockTTL: 10 * time.Second,
	}
	s := NewScheduler(conf, Deps{
		Store:    d.store,
		Queue:    d.queue,
		Pool:     d.pool,
		Watch:    d.watch,
		Lock:     d.lock,
		Notifier: d.notifier,
		Archive:  d.archive,
		Messages: d.messages,
	})
	return s, d
}

func waitingState(id string) *models.SessionState {
	return &models.SessionState{
		ID:            id,
		Channel:       models.ChannelChat,
		Status:        models.StatusWaiting,
		RequesterID:   "user-1",
		InquiryType:   "loan",
		PriorityScore: 50,
		EnqueuedAt:    time.Now().Add(-time.Minute).UnixMilli(),
	}
}

func TestAssignOneHappyPath(t *testing.T) {
	s, d := newTestScheduler()
	ctx := context.Background()

	entry := &models.WaitingEntry{SessionID: "sess-1", RankScore: 123}
	d.queue.On("ClaimNext", mock.Anything, "loan").Return(entry, nil)
	d.store.On("Get", mock.Anything, "sess-1").Return(waitingState("sess-1"), nil)
	d.pool.On("PickReady", mock.Anything, 5, 10*time.Second).Return("agent-1", nil)
	d.store.On("TransitionIf", mock.Anything, mock.Anything, models.StatusAssigned, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.SessionState).Status = models.StatusAssigned
		}).Return(nil)
	d.queue.On("AckClaim", mock.Anything, "sess-1").Return(nil)
	d.watch.On("Add", mock.Anything, "sess-1", mock.Anything).Return(nil)
	d.pool.On("IncrementLoad", mock.Anything, "agent-1").Return(nil)
	d.pool.On("MarkBusy", mock.Anything, "agent-1").Return(nil)
	d.pool.On("Unlock", mock.Anything, "agent-1").Return(nil)

	ok, err := s.assignOne(ctx, "loan")

	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"sess-1/agent-1/cs_sess-1"}, d.notifier.events)
	d.queue.AssertExpectations(t)
	d.pool.AssertExpectations(t)
	d.watch.AssertExpectations(t)
}

func TestAssignOneQueueEmpty(t *testing.T) {
	s, d := newTestScheduler()

	d.queue.On("ClaimNext", mock.Anything, "loan").Return(nil, coordination.ErrQueueEmpty)

	ok, err := s.assignOne(context.Background(), "loan")

	assert.NoError(t, err)
	assert.False(t, ok)
	d.pool.AssertNotCalled(t, "PickReady", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssignOneNoConsultantReleasesClaim(t *testing.T) {
	s, d := newTestScheduler()

	entry := &models.WaitingEntry{SessionID: "sess-1", RankScore: 123}
	d.queue.On("ClaimNext", mock.Anything, "loan").Return(entry, nil)
	d.store.On("Get", mock.Anything, "sess-1").Return(waitingState("sess-1"), nil)
	d.pool.On("PickReady", mock.Anything, 5, 10*time.Second).Return("", coordination.ErrNoConsultant)
	d.queue.On("ReleaseClaim", mock.Anything, "loan", "sess-1", float64(123)).Return(nil)

	ok, err := s.assignOne(context.Background(), "loan")

	assert.NoError(t, err)
	assert.False(t, ok)
	// the entry went back at its original rank, fairness preserved
	d.queue.AssertCalled(t, "ReleaseClaim", mock.Anything, "loan", "sess-1", float64(123))
	d.store.AssertNotCalled(t, "TransitionIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAssignOneStaleEntryDropped(t *testing.T) {
	s, d := newTestScheduler()

	stale := waitingState("sess-1")
	stale.Status = models.StatusCancelled
	entry := &models.WaitingEntry{SessionID: "sess-1", RankScore: 123}
	d.queue.On("ClaimNext", mock.Anything, "loan").Return(entry, nil)
	d.store.On("Get", mock.Anything, "sess-1").Return(stale, nil)
	d.queue.On("AckClaim", mock.Anything, "sess-1").Return(nil)

	ok, err := s.assignOne(context.Background(), "loan")

	assert.NoError(t, err)
	assert.True(t, ok)
	d.pool.AssertNotCalled(t, "PickReady", mock.Anything, mock.Anything, mock.Anything)
	d.queue.AssertCalled(t, "AckClaim", mock.Anything, "sess-1")
}

func TestAssignOnePurgedSessionDropped(t *testing.T) {
	s, d := newTestScheduler()

	entry := &models.WaitingEntry{SessionID: "sess-1", RankScore: 123}
	d.queue.On("ClaimNext", mock.Anything, "loan").Return(entry, nil)
	d.store.On("Get", mock.Anything, "sess-1").Return(nil, coordination.ErrNotFound)
	d.queue.On("AckClaim", mock.Anything, "sess-1").Return(nil)

	ok, err := s.assignOne(context.Background(), "loan")

	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestAssignOneLostRaceFreesConsultant(t *testing.T) {
	s, d := newTestScheduler()

	entry := &models.WaitingEntry{SessionID: "sess-1", RankScore: 123}
	d.queue.On("ClaimNext", mock.Anything, "loan").Return(entry, nil)
	d.store.On("Get", mock.Anything, "sess-1").Return(waitingState("sess-1"), nil)
	d.pool.On("PickReady", mock.Anything, 5, 10*time.Second).Return("agent-1", nil)
	d.store.On("TransitionIf", mock.Anything, mock.Anything, models.StatusAssigned, mock.Anything).
		Return(coordination.ErrConflict)
	d.pool.On("Unlock", mock.Anything, "agent-1").Return(nil)
	d.queue.On("AckClaim", mock.Anything, "sess-1").Return(nil)

	ok, err := s.assignOne(context.Background(), "loan")

	assert.NoError(t, err)
	assert.True(t, ok)
	d.pool.AssertCalled(t, "Unlock", mock.Anything, "agent-1")
	d.pool.AssertNotCalled(t, "IncrementLoad", mock.Anything, mock.Anything)
	d.watch.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, d.notifier.events)
}

func TestQueueTypesDefault(t *testing.T) {
	s, _ := newTestScheduler()
	assert.Equal(t, []string{coordination.DefaultQueueType}, s.queueTypes())

	s.conf.AssignQueueTypes = []string{"loan", "card"}
	assert.Equal(t, []string{"loan", "card"}, s.queueTypes())
}
