// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bridge

import (
	"context"

	"jdwpgdb/cli/internal/introspect"
	"jdwpgdb/cli/internal/jdwp"
)

const (
	jdwpMajor = 1
	jdwpMinor = 8
	vmName    = "jdwpgdb"
)

func vmVersion(_ context.Context, s *Session, rep *Reply, _ *jdwp.Reader) {
	desc := "jdwpgdb bridge"
	if s.opts.GDBVersion != "" {
		desc += " over GDB " + s.opts.GDBVersion
	}
	rep.Str(desc)
	rep.Int(jdwpMajor)
	rep.Int(jdwpMinor)
	rep.Str("1.8.0")
	rep.Str(vmName)
}

func vmClassesBySignature(_ context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	sig := r.Str()
	if !rep.args(r) {
		return
	}
	classes := s.provider.ClassesBySignature(sig)
	rep.Int(int32(len(classes)))
	for _, c := range classes {
		rep.Byte(byte(c.Tag))
		rep.ReferenceTypeID(c.ID)
		rep.Int(int32(c.Status))
	}
}

func vmAllClasses(_ context.Context, s *Session, rep *Reply, _ *jdwp.Reader) {
	writeClasses(s, rep, false)
}

func vmAllClassesWithGeneric(_ context.Context, s *Session, rep *Reply, _ *jdwp.Reader) {
	writeClasses(s, rep, true)
}

func writeClasses(s *Session, rep *Reply, generic bool) {
	classes := s.provider.Classes()
	rep.Int(int32(len(classes)))
	for _, c := range classes {
		rep.Byte(byte(c.Tag))
		rep.ReferenceTypeID(c.ID)
		rep.Str(c.Signature)
		if generic {
			rep.Str(c.Generic)
		}
		rep.Int(int32(c.Status))
	}
}

func vmAllThreads(ctx context.Context, s *Session, rep *Reply, _ *jdwp.Reader) {
	threads, ok := s.liveThreads(ctx, rep, 0)
	if !ok {
		return
	}
	rep.Int(int32(len(threads)))
	for _, t := range threads {
		rep.ThreadID(t.ID)
	}
}

func vmTopLevelThreadGroups(_ context.Context, s *Session, rep *Reply, _ *jdwp.Reader) {
	var top []introspect.ThreadGroup
	for _, g := range s.provider.ThreadGroups() {
		if g.Parent == 0 {
			top = append(top, g)
		}
	}
	rep.Int(int32(len(top)))
	for _, g := range top {
		rep.ThreadGroupID(g.ID)
	}
}

// vmDispose removes every breakpoint the client set and ends the session
// after the reply.
func vmDispose(ctx context.Context, s *Session, rep *Reply, _ *jdwp.Reader) {
	if nums := s.reg.ClearBreakpoints(); len(nums) > 0 {
		s.exec(ctx, newReply(s.sizes), deleteBreakpoints(nums))
	}
	s.closeAfter = true
}

func vmIDSizes(_ context.Context, s *Session, rep *Reply, _ *jdwp.Reader) {
	rep.Int(int32(s.sizes.FieldIDSize))
	rep.Int(int32(s.sizes.MethodIDSize))
	rep.Int(int32(s.sizes.ObjectIDSize))
	rep.Int(int32(s.sizes.ReferenceTypeIDSize))
	rep.Int(int32(s.sizes.FrameIDSize))
}

func vmSuspend(ctx context.Context, s *Session, rep *Reply, _ *jdwp.Reader) {
	if !s.suspend(ctx, rep, 0) {
		return
	}
	s.vmSuspends++
}

// vmResume undoes one VM suspension, and one suspension of every thread.
// The inferior continues once nothing holds it.
func vmResume(ctx context.Context, s *Session, rep *Reply, _ *jdwp.Reader) {
	if s.vmSuspends > 0 {
		s.vmSuspends--
	}
	for t, n := range s.threadSuspends {
		if n <= 1 {
			delete(s.threadSuspends, t)
		} else {
			s.threadSuspends[t] = n - 1
		}
	}
	if s.vmSuspends == 0 && len(s.threadSuspends) == 0 && s.State() != StateRunning {
		s.resume(ctx, rep, 0)
	}
}

func vmExit(ctx context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	code := r.Int()
	if !rep.args(r) {
		return
	}
	s.log.Info("debugger requested exit", s.log.Args("session", s.ID, "code", code))
	if s.started {
		// Failure to kill is not reported: GDB is torn down with the session.
		s.exec(ctx, newReply(s.sizes), `-interpreter-exec console "kill"`)
	}
	s.closeAfter = true
}

func vmCapabilities(_ context.Context, _ *Session, rep *Reply, _ *jdwp.Reader) {
	for i := 0; i < 7; i++ {
		rep.Bool(false)
	}
}

// Index of canRequestVMDeathEvent in the CapabilitiesNew reply.
const capRequestVMDeathEvent = 13

func vmCapabilitiesNew(_ context.Context, _ *Session, rep *Reply, _ *jdwp.Reader) {
	for i := 0; i < 32; i++ {
		rep.Bool(i == capRequestVMDeathEvent)
	}
}

func vmClassPaths(_ context.Context, s *Session, rep *Reply, _ *jdwp.Reader) {
	rep.Str(s.opts.BaseDir)
	rep.Int(0)
	rep.Int(0)
}

func vmDisposeObjects(_ context.Context, _ *Session, rep *Reply, r *jdwp.Reader) {
	n := r.Int()
	for i := int32(0); i < n && r.Err() == nil; i++ {
		r.ObjectID()
		r.Int()
	}
	rep.args(r)
}

func vmHoldEvents(_ context.Context, s *Session, _ *Reply, _ *jdwp.Reader) {
	s.held = true
}

// vmReleaseEvents lets the loop deliver the held events after this reply.
func vmReleaseEvents(_ context.Context, s *Session, _ *Reply, _ *jdwp.Reader) {
	s.held = false
}
