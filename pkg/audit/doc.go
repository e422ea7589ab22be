// Package audit records security-relevant actions (sign-ins, two-factor
// enrollment, throttled attempts) as structured events.
//
// A Logger fills request metadata through context extractors and hands the
// event to a Storage:
//
//	l := audit.NewLogger(audit.NewPGStorage(pool),
//		audit.WithRequestIDExtractor(requestIDFromContext),
//	)
//	_ = l.Log(ctx, audit.ActionLogin, audit.WithUser(user.ID))
package audit
