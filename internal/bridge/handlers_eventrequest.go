// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bridge

import (
	"context"
	"errors"
	"strconv"

	"jdwpgdb/cli/internal/gdbmi"
	"jdwpgdb/cli/internal/jdwp"
	"jdwpgdb/cli/internal/registry"
)

// Kinds accepted without a GDB handle. Their events come from GDB
// notifications, or never fire at all.
var passiveKinds = map[jdwp.EventKind]bool{
	jdwp.KindThreadStart:  true,
	jdwp.KindThreadDeath:  true,
	jdwp.KindVMDeath:      true,
	jdwp.KindClassPrepare: true,
	jdwp.KindClassUnload:  true,
	jdwp.KindException:    true,
	jdwp.KindMethodEntry:  true,
	jdwp.KindMethodExit:   true,
}

func eventRequestSet(ctx context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	kind := jdwp.EventKind(r.Byte())
	policy := jdwp.SuspendPolicy(r.Byte())
	n := r.Int()
	var mods []jdwp.Modifier
	for i := int32(0); i < n && r.Err() == nil; i++ {
		mods = append(mods, r.Modifier())
	}
	if !rep.args(r) {
		return
	}
	if policy > jdwp.SuspendAll {
		rep.Fail(jdwp.ErrIllegalArgument)
		return
	}

	id := s.reg.NewRequestID()
	switch {
	case kind == jdwp.KindBreakpoint:
		if !s.setBreakpoint(ctx, rep, id, policy, mods) {
			return
		}
	case kind == jdwp.KindSingleStep:
		if !s.setStep(rep, id, policy, mods) {
			return
		}
	case passiveKinds[kind]:
		s.reg.Register(id, kind, policy, mods)
	default:
		rep.Fail(jdwp.ErrInvalidEventType)
		return
	}
	if count, ok := countOf(mods); ok && count > 0 {
		s.expiring[id] = true
	}
	s.log.Debug("event request set", s.log.Args("session", s.ID, "request", int32(id), "kind", kind.String(), "policy", policy.String()))
	rep.Int(int32(id))
}

// setBreakpoint inserts a GDB breakpoint for the LocationOnly modifier and
// registers it. A breakpoint GDB moved to another line is removed again.
func (s *Session) setBreakpoint(ctx context.Context, rep *Reply, id jdwp.RequestID, policy jdwp.SuspendPolicy, mods []jdwp.Modifier) bool {
	var (
		loc    jdwp.Location
		hasLoc bool
		thread jdwp.ThreadID
	)
	for _, m := range mods {
		switch m.Kind {
		case jdwp.ModLocationOnly:
			loc, hasLoc = m.Location, true
		case jdwp.ModThreadOnly:
			thread = m.Thread
		}
	}
	if !hasLoc {
		rep.Fail(jdwp.ErrIllegalArgument)
		return false
	}
	pos, ok := s.provider.LineForLocation(loc)
	if !ok {
		rep.Fail(jdwp.ErrInvalidLocation)
		return false
	}
	where := pos.Function
	if pos.File != "" {
		where = pos.File + ":" + strconv.Itoa(pos.Line)
	}

	args := []string{}
	if thread != 0 {
		args = append(args, "-p", threadArg(thread))
	}
	rec, ok := s.exec(ctx, rep, gdbmi.Cmd("-break-insert", append(args, where)...))
	if !ok {
		return false
	}
	bkpt := rec.Results.Tuple("bkpt")
	number, ok := bkpt.Int("number")
	if !ok {
		rep.Fail(jdwp.ErrInternal)
		return false
	}
	if line, ok := bkpt.Int("line"); ok && pos.File != "" && line != pos.Line {
		s.log.Debug("breakpoint resolved to another line", s.log.Args("want", pos.Line, "got", line))
		s.exec(ctx, newReply(s.sizes), deleteBreakpoints([]int{number}))
		rep.Fail(jdwp.ErrInvalidLocation)
		return false
	}
	if count, ok := countOf(mods); ok && count > 1 {
		if _, ok := s.exec(ctx, rep, gdbmi.Cmd("-break-after", strconv.Itoa(number), strconv.Itoa(int(count-1)))); !ok {
			s.exec(ctx, newReply(s.sizes), deleteBreakpoints([]int{number}))
			return false
		}
	}
	if _, err := s.reg.RegisterBreakpoint(id, number, loc, policy); err != nil {
		s.exec(ctx, newReply(s.sizes), deleteBreakpoints([]int{number}))
		if errors.Is(err, registry.ErrDuplicate) {
			rep.Fail(jdwp.ErrIllegalArgument)
		} else {
			rep.Fail(jdwp.ErrInternal)
		}
		return false
	}
	return true
}

// setStep registers a step for the Step modifier's thread. GDB is driven on
// the next resume.
func (s *Session) setStep(rep *Reply, id jdwp.RequestID, policy jdwp.SuspendPolicy, mods []jdwp.Modifier) bool {
	for _, m := range mods {
		if m.Kind != jdwp.ModStep {
			continue
		}
		if _, err := s.reg.RegisterStep(m.Thread, id, policy, m.StepSize, m.StepDepth); err != nil {
			rep.Fail(jdwp.ErrIllegalArgument)
			return false
		}
		return true
	}
	rep.Fail(jdwp.ErrIllegalArgument)
	return false
}

func countOf(mods []jdwp.Modifier) (int32, bool) {
	for _, m := range mods {
		if m.Kind == jdwp.ModCount {
			return m.Count, true
		}
	}
	return 0, false
}

// eventRequestClear removes one request. Unknown ids and kind mismatches are
// not errors.
func eventRequestClear(ctx context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	kind := jdwp.EventKind(r.Byte())
	id := jdwp.RequestID(r.Int())
	if !rep.args(r) {
		return
	}
	rec, ok := s.reg.Lookup(id)
	if !ok || rec.Kind != kind {
		return
	}
	s.reg.Unregister(id)
	delete(s.expiring, id)
	if rec.Breakpoint != nil {
		s.exec(ctx, rep, deleteBreakpoints([]int{rec.Breakpoint.Number}))
	}
}

func eventRequestClearAllBreakpoints(ctx context.Context, s *Session, rep *Reply, _ *jdwp.Reader) {
	nums := s.reg.ClearBreakpoints()
	if len(nums) == 0 {
		return
	}
	s.exec(ctx, rep, deleteBreakpoints(nums))
}

// deleteBreakpoints builds one -break-delete for every number.
func deleteBreakpoints(nums []int) string {
	args := make([]string, len(nums))
	for i, n := range nums {
		args[i] = strconv.Itoa(n)
	}
	return gdbmi.Cmd("-break-delete", args...)
}
