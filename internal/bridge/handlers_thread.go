// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bridge

import (
	"context"
	"strconv"

	"jdwpgdb/cli/internal/gdbmi"
	"jdwpgdb/cli/internal/introspect"
	"jdwpgdb/cli/internal/jdwp"
	"jdwpgdb/cli/internal/registry"
)

// liveThread is a thread as reported by -thread-info. Its JDWP id is the GDB
// thread number.
type liveThread struct {
	ID    jdwp.ThreadID
	Name  string
	State string
	Frame gdbmi.Frame
}

func (t liveThread) stopped() bool { return t.State == "stopped" }

func threadArg(t jdwp.ThreadID) string { return strconv.FormatUint(uint64(t), 10) }

// liveThreads lists every thread, or only id when it is non-zero.
func (s *Session) liveThreads(ctx context.Context, rep *Reply, id jdwp.ThreadID) ([]liveThread, bool) {
	cmd := "-thread-info"
	if id != 0 {
		cmd = gdbmi.Cmd(cmd, threadArg(id))
	}
	rec, ok := s.exec(ctx, rep, cmd)
	if !ok {
		return nil, false
	}
	var out []liveThread
	for _, t := range rec.Results.List("threads").Tuples() {
		n, ok := t.Int("id")
		if !ok {
			continue
		}
		lt := liveThread{
			ID:    jdwp.ThreadID(n),
			State: t.Str("state"),
			Frame: gdbmi.ParseFrame(t.Tuple("frame")),
		}
		lt.Name = s.threadName(lt.ID, t)
		out = append(out, lt)
	}
	return out, true
}

// thread looks up one live thread. Unknown ids fail with INVALID_THREAD.
func (s *Session) thread(ctx context.Context, rep *Reply, id jdwp.ThreadID) (liveThread, bool) {
	threads, ok := s.liveThreads(ctx, rep, id)
	if !ok {
		return liveThread{}, false
	}
	for _, t := range threads {
		if t.ID == id {
			return t, true
		}
	}
	rep.Fail(jdwp.ErrInvalidThread)
	return liveThread{}, false
}

func (s *Session) threadName(id jdwp.ThreadID, info gdbmi.Tuple) string {
	for _, t := range s.provider.AllThreads() {
		if t.ID == id && t.Name != "" {
			return t.Name
		}
	}
	if n := info.Str("name"); n != "" {
		return n
	}
	return info.Str("target-id")
}

// groupOf returns the thread group of id: the one the provider names, or the
// first top level group.
func (s *Session) groupOf(id jdwp.ThreadID) jdwp.ThreadGroupID {
	for _, t := range s.provider.AllThreads() {
		if t.ID == id && t.Group != 0 {
			return t.Group
		}
	}
	for _, g := range s.provider.ThreadGroups() {
		if g.Parent == 0 {
			return g.ID
		}
	}
	return introspect.MainGroup.ID
}

func (s *Session) group(rep *Reply, id jdwp.ThreadGroupID) (introspect.ThreadGroup, bool) {
	for _, g := range s.provider.ThreadGroups() {
		if g.ID == id {
			return g, true
		}
	}
	rep.Fail(jdwp.ErrInvalidThreadGroup)
	return introspect.ThreadGroup{}, false
}

// suspend interrupts the inferior unless it is already stopped. A program
// that was never started counts as suspended.
func (s *Session) suspend(ctx context.Context, rep *Reply, thread jdwp.ThreadID) bool {
	if s.State() == StateSuspended || !s.started {
		s.state.Store(StateSuspended)
		return true
	}
	cmd := "-exec-interrupt"
	if thread != 0 {
		cmd = gdbmi.Cmd(cmd, "--thread", threadArg(thread))
	}
	if _, ok := s.exec(ctx, rep, cmd); !ok {
		return false
	}
	s.state.Store(StateSuspended)
	return true
}

// resume continues the inferior. A pending step on the thread, or on any
// thread when resuming the whole VM, is performed instead of a continue.
func (s *Session) resume(ctx context.Context, rep *Reply, thread jdwp.ThreadID) {
	if _, ok := s.exec(ctx, rep, s.resumeCommand(thread)); !ok {
		return
	}
	s.started = true
	s.state.Store(StateRunning)
}

func (s *Session) resumeCommand(thread jdwp.ThreadID) string {
	var step *registry.Record
	if thread != 0 {
		step, _ = s.reg.LookupByThread(thread)
	} else if steps := s.reg.Steps(); len(steps) > 0 {
		step = steps[0]
	}
	switch {
	case step != nil:
		return stepCommand(step.Step)
	case !s.started:
		return "-exec-run"
	case thread != 0:
		return gdbmi.Cmd("-exec-continue", "--thread", threadArg(thread))
	}
	return "-exec-continue"
}

func stepCommand(st *registry.Step) string {
	var op string
	switch {
	case st.Depth == jdwp.StepOut:
		op = "-exec-finish"
	case st.Depth == jdwp.StepOver && st.Size == jdwp.StepMin:
		op = "-exec-next-instruction"
	case st.Depth == jdwp.StepOver:
		op = "-exec-next"
	case st.Size == jdwp.StepMin:
		op = "-exec-step-instruction"
	default:
		op = "-exec-step"
	}
	return gdbmi.Cmd(op, "--thread", threadArg(st.Thread))
}

func threadName(ctx context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	id := r.ThreadID()
	if !rep.args(r) {
		return
	}
	t, ok := s.thread(ctx, rep, id)
	if !ok {
		return
	}
	rep.Str(t.Name)
}

func threadSuspend(ctx context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	id := r.ThreadID()
	if !rep.args(r) {
		return
	}
	if _, ok := s.thread(ctx, rep, id); !ok {
		return
	}
	if !s.suspend(ctx, rep, id) {
		return
	}
	s.threadSuspends[id]++
}

// threadResume undoes one suspension of the thread. A thread stopped by an
// event has no explicit suspension and resumes straight away.
func threadResume(ctx context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	id := r.ThreadID()
	if !rep.args(r) {
		return
	}
	if n := s.threadSuspends[id]; n > 1 {
		s.threadSuspends[id] = n - 1
		return
	}
	delete(s.threadSuspends, id)
	if s.vmSuspends == 0 && s.State() != StateRunning {
		s.resume(ctx, rep, id)
	}
}

func threadStatus(ctx context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	id := r.ThreadID()
	if !rep.args(r) {
		return
	}
	t, ok := s.thread(ctx, rep, id)
	if !ok {
		return
	}
	rep.Int(int32(jdwp.ThreadRunning))
	if t.stopped() {
		rep.Int(int32(jdwp.SuspendStatusSuspended))
	} else {
		rep.Int(0)
	}
}

func threadThreadGroup(ctx context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	id := r.ThreadID()
	if !rep.args(r) {
		return
	}
	if _, ok := s.thread(ctx, rep, id); !ok {
		return
	}
	rep.ThreadGroupID(s.groupOf(id))
}

// frameID packs a thread and a frame level. Frame ids are only valid while
// the thread stays suspended.
func frameID(thread jdwp.ThreadID, level int) jdwp.FrameID {
	return jdwp.FrameID(uint64(thread)<<32 | uint64(uint32(level)))
}

func threadFrames(ctx context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	id := r.ThreadID()
	start := r.Int()
	length := r.Int()
	if !rep.args(r) {
		return
	}
	if start < 0 || length < -1 {
		rep.Fail(jdwp.ErrIllegalArgument)
		return
	}
	t, ok := s.thread(ctx, rep, id)
	if !ok {
		return
	}
	if !t.stopped() {
		rep.Fail(jdwp.ErrThreadNotSuspended)
		return
	}
	if length == 0 {
		rep.Int(0)
		return
	}
	args := []string{"--thread", threadArg(id)}
	if length >= 0 {
		args = append(args, strconv.Itoa(int(start)), strconv.Itoa(int(start+length-1)))
	}
	rec, ok := s.exec(ctx, rep, gdbmi.Cmd("-stack-list-frames", args...))
	if !ok {
		return
	}
	frames := rec.Results.List("stack").Tuples()
	if length < 0 {
		if int(start) > len(frames) {
			rep.Fail(jdwp.ErrInvalidIndex)
			return
		}
		frames = frames[start:]
	}
	if len(frames) == 0 && start > 0 {
		rep.Fail(jdwp.ErrInvalidIndex)
		return
	}
	rep.Int(int32(len(frames)))
	for _, ft := range frames {
		f := gdbmi.ParseFrame(ft)
		// Native frames without a mapping get an empty location.
		loc, _ := s.provider.ResolveLocation(f.Func, f.Line)
		rep.FrameID(frameID(id, f.Level))
		rep.Location(loc)
	}
}

func threadFrameCount(ctx context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	id := r.ThreadID()
	if !rep.args(r) {
		return
	}
	t, ok := s.thread(ctx, rep, id)
	if !ok {
		return
	}
	if !t.stopped() {
		rep.Fail(jdwp.ErrThreadNotSuspended)
		return
	}
	rec, ok := s.exec(ctx, rep, gdbmi.Cmd("-stack-info-depth", "--thread", threadArg(id)))
	if !ok {
		return
	}
	depth, ok := rec.Results.Int("depth")
	if !ok {
		rep.Fail(jdwp.ErrInternal)
		return
	}
	rep.Int(int32(depth))
}

func threadSuspendCount(ctx context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	id := r.ThreadID()
	if !rep.args(r) {
		return
	}
	if _, ok := s.thread(ctx, rep, id); !ok {
		return
	}
	rep.Int(int32(s.vmSuspends + s.threadSuspends[id]))
}

func groupName(_ context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	id := r.ThreadGroupID()
	if !rep.args(r) {
		return
	}
	g, ok := s.group(rep, id)
	if !ok {
		return
	}
	rep.Str(g.Name)
}

func groupParent(_ context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	id := r.ThreadGroupID()
	if !rep.args(r) {
		return
	}
	g, ok := s.group(rep, id)
	if !ok {
		return
	}
	rep.ThreadGroupID(g.Parent)
}

func groupChildren(ctx context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	id := r.ThreadGroupID()
	if !rep.args(r) {
		return
	}
	if _, ok := s.group(rep, id); !ok {
		return
	}
	threads, ok := s.liveThreads(ctx, rep, 0)
	if !ok {
		return
	}
	var members []jdwp.ThreadID
	for _, t := range threads {
		if s.groupOf(t.ID) == id {
			members = append(members, t.ID)
		}
	}
	rep.Int(int32(len(members)))
	for _, t := range members {
		rep.ThreadID(t)
	}
	var children []jdwp.ThreadGroupID
	for _, g := range s.provider.ThreadGroups() {
		if g.Parent == id {
			children = append(children, g.ID)
		}
	}
	rep.Int(int32(len(children)))
	for _, g := range children {
		rep.ThreadGroupID(g)
	}
}
