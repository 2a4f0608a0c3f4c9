package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/czar/internal/eventlog"
	"github.com/fyrsmithlabs/czar/internal/store"
)

// logBuilder produces newest-first event slices with increasing Seq,
// mirroring what eventlog.Log.Append does.
type logBuilder struct {
	events []eventlog.Event
	seq    uint64
}

func (b *logBuilder) add(e eventlog.Event) eventlog.Event {
	b.seq++
	if e.UUID == "" {
		e.UUID = uuid.New().String()
	}
	e.Seq = b.seq
	e.Time = time.Date(2026, 1, 1, 0, 0, int(b.seq), 0, time.UTC)
	b.events = append([]eventlog.Event{e}, b.events...)
	return e
}

func (b *logBuilder) task(text string) eventlog.Event {
	return b.add(eventlog.New(eventlog.KindTask, []string{text}))
}

func (b *logBuilder) note(taskID, text string) eventlog.Event {
	return b.add(eventlog.NewTaskRef(eventlog.KindNote, taskID, []string{text}))
}

func (b *logBuilder) done(taskID, text string) eventlog.Event {
	return b.add(eventlog.NewTaskRef(eventlog.KindDone, taskID, []string{text}))
}

func TestOpenTasks_Empty(t *testing.T) {
	open, notes := OpenTasks(nil)
	assert.Empty(t, open)
	assert.Empty(t, notes)

	state := Reconstruct(nil)
	assert.Equal(t, 0, state.Len())
}

func TestOpenTasks_ScanOrder(t *testing.T) {
	var b logBuilder
	t1 := b.task("one")
	t2 := b.task("two")
	n1 := b.note(t1.UUID, "first")
	n2 := b.note(t1.UUID, "second")
	b.add(eventlog.New(eventlog.KindStart, nil))

	open, notes := OpenTasks(b.events)

	require.Len(t, open, 2)
	assert.Equal(t, t2.UUID, open[0].UUID, "accumulator is newest first")
	assert.Equal(t, t1.UUID, open[1].UUID)

	require.Len(t, notes[t1.UUID], 2)
	assert.Equal(t, n2.UUID, notes[t1.UUID][0].UUID)
	assert.Equal(t, n1.UUID, notes[t1.UUID][1].UUID)
	assert.Empty(t, notes[t2.UUID])
}

func TestReconstruct_CreationOrder(t *testing.T) {
	var b logBuilder
	t1 := b.task("T1")
	t2 := b.task("T2")
	t3 := b.task("T3")

	state := Reconstruct(b.events)
	require.Equal(t, 3, state.Len())

	want := []string{t1.UUID, t2.UUID, t3.UUID}
	for i, task := range state.Open {
		assert.Equal(t, i+1, task.Index)
		assert.Equal(t, want[i], task.UUID())
	}
}

func TestReconstruct_OrdersBySeqNotPosition(t *testing.T) {
	var b logBuilder
	t1 := b.task("T1")
	t2 := b.task("T2")
	n1 := b.note(t2.UUID, "older")
	n2 := b.note(t2.UUID, "newer")

	// Shuffle storage order; Seq must win.
	shuffled := []eventlog.Event{b.events[3], b.events[1], b.events[0], b.events[2]}

	state := Reconstruct(shuffled)
	require.Equal(t, 2, state.Len())
	assert.Equal(t, t1.UUID, state.Open[0].UUID())
	assert.Equal(t, t2.UUID, state.Open[1].UUID())

	require.Len(t, state.Open[1].Notes, 2)
	assert.Equal(t, n2.UUID, state.Open[1].Notes[0].UUID)
	assert.Equal(t, n1.UUID, state.Open[1].Notes[1].UUID)
}

func TestReconstruct_DoneSuppressesTaskAndNotes(t *testing.T) {
	taskID := uuid.New().String()
	task := eventlog.Event{UUID: taskID, Kind: eventlog.KindTask, Notes: []string{"t"}}
	note := eventlog.Event{UUID: uuid.New().String(), Kind: eventlog.KindNote, TaskUUID: taskID, Notes: []string{"n"}}
	done := eventlog.Event{UUID: uuid.New().String(), Kind: eventlog.KindDone, TaskUUID: taskID, Notes: []string{"d"}}

	// Every ordering of every subset that contains the done event.
	sets := [][]eventlog.Event{
		{done},
		{task, done},
		{done, task},
		{note, done},
		{done, note},
		{task, note, done},
		{task, done, note},
		{note, task, done},
		{note, done, task},
		{done, task, note},
		{done, note, task},
	}

	for i, set := range sets {
		// Assign Seq in slice order so "appended in any order" is literal.
		events := make([]eventlog.Event, len(set))
		for j, e := range set {
			e.Seq = uint64(j + 1)
			events[len(set)-1-j] = e
		}

		open, notes := OpenTasks(events)
		assert.Empty(t, open, "set %d", i)
		assert.Empty(t, notes[taskID], "set %d", i)

		state := Reconstruct(events)
		assert.Equal(t, 0, state.Len(), "set %d", i)
	}
}

func TestReconstruct_DoneOnlyAffectsItsTask(t *testing.T) {
	var b logBuilder
	t1 := b.task("keep")
	t2 := b.task("finish")
	b.note(t2.UUID, "almost")
	keepNote := b.note(t1.UUID, "still going")
	b.done(t2.UUID, "merged")

	state := Reconstruct(b.events)
	require.Equal(t, 1, state.Len())
	assert.Equal(t, t1.UUID, state.Open[0].UUID())
	require.Len(t, state.Open[0].Notes, 1)
	assert.Equal(t, keepNote.UUID, state.Open[0].Notes[0].UUID)
}

func TestState_Task(t *testing.T) {
	var b logBuilder
	t1 := b.task("a")
	t2 := b.task("b")
	state := Reconstruct(b.events)

	got, err := state.Task(1)
	require.NoError(t, err)
	assert.Equal(t, t1.UUID, got.UUID())

	got, err = state.Task(2)
	require.NoError(t, err)
	assert.Equal(t, t2.UUID, got.UUID())

	for _, idx := range []int{0, -1, 3} {
		_, err := state.Task(idx)
		assert.ErrorIs(t, err, ErrBadIndex, "index %d", idx)
	}
}

func TestReconstruct_RoundTripThroughStorage(t *testing.T) {
	s, err := store.New(t.TempDir())
	require.NoError(t, err)
	log := eventlog.NewLog(s)
	ctx := context.Background()
	projectID := uuid.New().String()

	// In-memory reference built alongside the persisted log.
	var reference []eventlog.Event
	appendBoth := func(e eventlog.Event) eventlog.Event {
		stamped, err := log.Append(ctx, projectID, e)
		require.NoError(t, err)
		reference = append([]eventlog.Event{stamped}, reference...)
		return stamped
	}

	var taskIDs []string
	for i := 0; i < 6; i++ {
		task := appendBoth(eventlog.New(eventlog.KindTask, []string{"task", string(rune('a' + i))}))
		taskIDs = append(taskIDs, task.UUID)
	}
	appendBoth(eventlog.NewTaskRef(eventlog.KindNote, taskIDs[0], []string{"n0"}))
	appendBoth(eventlog.NewTaskRef(eventlog.KindNote, taskIDs[2], []string{"n2"}))
	appendBoth(eventlog.NewTaskRef(eventlog.KindDone, taskIDs[2], []string{"d2"}))
	appendBoth(eventlog.NewTaskRef(eventlog.KindNote, taskIDs[0], []string{"n0b"}))
	appendBoth(eventlog.NewTaskRef(eventlog.KindDone, taskIDs[4], nil))
	appendBoth(eventlog.New(eventlog.KindStop, nil))

	loaded, err := log.Read(ctx, projectID)
	require.NoError(t, err)

	wantOpen, wantNotes := OpenTasks(reference)
	gotOpen, gotNotes := OpenTasks(loaded)

	require.Len(t, gotOpen, len(wantOpen))
	for i := range wantOpen {
		assert.Equal(t, wantOpen[i].UUID, gotOpen[i].UUID)
		assert.Equal(t, wantOpen[i].Seq, gotOpen[i].Seq)
		assert.Equal(t, wantOpen[i].Notes, gotOpen[i].Notes)
	}
	require.Equal(t, len(wantNotes), len(gotNotes))
	for id, notes := range wantNotes {
		require.Len(t, gotNotes[id], len(notes))
		for i := range notes {
			assert.Equal(t, notes[i].UUID, gotNotes[id][i].UUID)
		}
	}

	state := Reconstruct(loaded)
	require.Equal(t, 4, state.Len())
	assert.Equal(t, taskIDs[0], state.Open[0].UUID())
	assert.Equal(t, taskIDs[1], state.Open[1].UUID())
	assert.Equal(t, taskIDs[3], state.Open[2].UUID())
	assert.Equal(t, taskIDs[5], state.Open[3].UUID())
	require.Len(t, state.Open[0].Notes, 2)
	assert.Equal(t, []string{"n0b"}, state.Open[0].Notes[0].Notes)
}
