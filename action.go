package axiom

// Action is a post-evaluation callback attached to a Rule node (spec.md
// section 4.5). The source implementation's TriConsumer is modeled here
// simply as a stored closure owned by the rule node and invoked by the
// evaluator (spec.md section 9).
type Action struct {
	// Description documents what the action does; purely informational.
	Description string

	// OnComplete is invoked exactly once, after this node's Outcome is
	// final, with the node's own Outcome, an error if the node's Outcome
	// is Failed (nil otherwise), and the node's Result. It runs on the
	// evaluator's dispatcher (see WithDispatcher); a panic inside
	// OnComplete is recovered and logged, never propagated into the
	// result tree (spec.md section 7, CallbackError).
	OnComplete func(outcome Outcome, err error, node *Result)
}

// dispatch invokes a's OnComplete callback, if set, recovering and
// logging any panic. It never returns an error: callback failures are
// structurally invisible to the result tree, per spec.md sections 4.5/7.
func (e *Evaluator) dispatch(a *Action, res *Result) {
	if a == nil || a.OnComplete == nil {
		return
	}
	run := func() {
		defer func() {
			if p := recover(); p != nil {
				e.logger.Warn().
					Interface("panic", p).
					Str("rule", idOf(res.Rule)).
					Msg("axiom: action callback panicked")
			}
		}()
		var err error
		if res.Outcome == Failed {
			err = errOutcomeFailed{rule: idOf(res.Rule), message: res.Message}
		}
		a.OnComplete(res.Outcome, err, res)
	}
	if e.dispatcher != nil {
		e.dispatcher(run)
		return
	}
	run()
}

func idOf(r *Rule) string {
	if r == nil {
		return ""
	}
	return r.ID
}

type errOutcomeFailed struct {
	rule    string
	message string
}

func (e errOutcomeFailed) Error() string {
	if e.rule == "" {
		return e.message
	}
	return "rule " + e.rule + ": " + e.message
}
