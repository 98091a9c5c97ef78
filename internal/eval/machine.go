// Package eval implements the lazy abstract machine that reduces a term to
// weak head normal form: a tail-recursive loop over a single
// closure slot with an explicit side stack, driving operator dispatch
// through a pluggable OpRegistry and consulting a Resolver for imports.
//
// Grounded line-for-line on the reference evaluator's eval() loop
// (original_source/src/eval.rs), restructured into the teacher's
// switch-dispatch-by-node-type style.
package eval

import (
	"github.com/cwbudde/crucible/internal/errors"
	"github.com/cwbudde/crucible/internal/runtime"
	"github.com/cwbudde/crucible/internal/term"
	"github.com/cwbudde/crucible/pkg/ident"
)

// Machine owns one run of the abstract machine: the explicit stack, the
// diagnostic call stack, the enriched-strictness flag and its
// collaborators.
type Machine struct {
	stack          *runtime.Stack
	callStack      *runtime.CallStack
	enrichedStrict bool
	resolver       Resolver
	registry       OpRegistry
}

// NewMachine builds a machine ready for one Eval call. enriched_strict
// starts true").
func NewMachine(resolver Resolver, registry OpRegistry) *Machine {
	if registry == nil {
		registry = &DefaultOpRegistry{Codec: DocumentCodec{}}
	}
	return &Machine{
		stack:          runtime.NewStack(),
		callStack:      &runtime.CallStack{},
		enrichedStrict: true,
		resolver:       resolver,
		registry:       registry,
	}
}

// Eval reduces t to WHNF in globalEnv, exposing the signature
// names: `eval(term, global_env, resolver) -> Result<Term, EvalError>`.
func Eval(t term.Term, globalEnv *runtime.Environment, resolver Resolver) (term.Term, error) {
	m := NewMachine(resolver, nil)
	return m.Run(runtime.Closure{Body: t, Env: globalEnv})
}

// Run drives clos to WHNF, exactly implementing the dispatch
// describes.
func (m *Machine) Run(clos runtime.Closure) (term.Term, error) {
	for {
		env := clos.Env

		switch n := clos.Body.(type) {

		case term.Var:
			binding, ok := env.Get(n.ID)
			if !ok {
				return nil, errors.UnboundIdentifier(n.ID, n.Pos())
			}
			m.callStack.PushVar(binding.Kind, n.ID, n.Pos())

			current := binding.Thunk.Closure()
			if runtime.ShouldUpdate(current.Body) {
				m.stack.PushThunkUpdate(runtime.Downgrade(binding.Thunk))
			}
			if c, unique := binding.Thunk.TryUnique(); unique {
				clos = c
			} else {
				clos = current
			}
			continue

		case term.App:
			argClos := runtime.Closure{Body: n.Arg, Env: env.Clone()}
			m.stack.PushArg(argClos, n.Pos())
			clos = runtime.Closure{Body: n.Fn, Env: env}
			continue

		case term.Let:
			var th *runtime.Thunk
			bound := runtime.Closure{Body: n.Bound, Env: env}
			if n.Binding == term.Revertible {
				th = runtime.NewRevertibleThunk(bound)
			} else {
				th = runtime.NewThunk(bound)
			}
			newEnv := env.Extend(n.ID, runtime.Binding{Thunk: th, Kind: term.KindLet})
			clos = runtime.Closure{Body: n.Body, Env: newEnv}
			continue

		case term.Fun:
			if m.stack.CountArgs() > 0 {
				argClos, pos, _ := m.stack.PopArg()
				m.callStack.PushApp(pos)
				th := runtime.NewThunk(argClos)
				newEnv := env.Extend(n.Param, runtime.Binding{Thunk: th, Kind: term.KindLam})
				clos = runtime.Closure{Body: n.Body, Env: newEnv}
				continue
			}
			// No pending argument: an unapplied function is itself a
			// value. Fall through to the generic WHNF handling below.

		case term.Op1:
			opEnv := env.Clone()
			m.stack.PushOpCont(runtime.OpCont{
				Kind: runtime.ContOp1,
				Op:   n.Op,
				ID:   n.ID,
			}, m.callStack.Len(), n.Pos())
			clos = runtime.Closure{Body: n.Arg, Env: opEnv}
			continue

		case term.Op2:
			prevStrict := m.enrichedStrict
			m.enrichedStrict = IsStrictOp(n.Op)
			sndClos := runtime.Closure{Body: n.Snd, Env: env.Clone()}
			m.stack.PushOpCont(runtime.OpCont{
				Kind:       runtime.ContOp2First,
				Op:         n.Op,
				Other:      sndClos,
				PrevStrict: prevStrict,
			}, m.callStack.Len(), n.Pos())
			clos = runtime.Closure{Body: n.Fst, Env: env}
			continue

		case term.OpN:
			if n.Op == "ite" {
				if len(n.Args) != 3 {
					return nil, errors.Internal("ite requires exactly 3 arguments", n.Pos())
				}
				m.stack.PushOpCont(runtime.OpCont{
					Kind:  runtime.ContOpN,
					Op:    "ite",
					NArgs: []term.Term{n.Args[1], n.Args[2]},
					Env:   env,
				}, m.callStack.Len(), n.Pos())
				clos = runtime.Closure{Body: n.Args[0], Env: env}
				continue
			}
			if len(n.Args) == 0 {
				result, err := m.registry.Nary(n.Op, n.Pos(), nil)
				if err != nil {
					return nil, err
				}
				clos = runtime.Closure{Body: result, Env: env}
				continue
			}
			rest := make([]term.Term, len(n.Args)-1)
			copy(rest, n.Args[1:])
			m.stack.PushOpCont(runtime.OpCont{
				Kind:  runtime.ContOpN,
				Op:    n.Op,
				NArgs: rest,
				Env:   env,
			}, m.callStack.Len(), n.Pos())
			clos = runtime.Closure{Body: n.Args[0], Env: env}
			continue

		case term.Promise:
			m.stack.PushArg(runtime.Closure{Body: n.Body, Env: env.Clone()}, n.Pos())
			m.stack.PushArg(runtime.Closure{Body: term.NewLabel(n.Pos(), n.Label), Env: env}, n.Pos())
			clos = runtime.Closure{Body: n.Ty.Contract(), Env: env}
			continue

		case term.Assume:
			m.stack.PushArg(runtime.Closure{Body: n.Body, Env: env.Clone()}, n.Pos())
			m.stack.PushArg(runtime.Closure{Body: term.NewLabel(n.Pos(), n.Label), Env: env}, n.Pos())
			clos = runtime.Closure{Body: n.Ty.Contract(), Env: env}
			continue

		case term.StrChunks:
			next, done := m.stepChunks(n.Chunks, "", env, n.Pos())
			if done != nil {
				clos = runtime.Closure{Body: done, Env: env}
				continue
			}
			clos = *next
			continue

		case term.RecRecord:
			rewired, outEnv, err := m.wireRecRecord(n, env)
			if err != nil {
				return nil, err
			}
			clos = runtime.Closure{Body: rewired, Env: outEnv}
			continue

		case term.DefaultValue:
			if m.enrichedStrict {
				m.stack.DrainThunkUpdates(clos)
				clos = runtime.Closure{Body: n.Value, Env: env}
				continue
			}

		case term.Docstring:
			if m.enrichedStrict {
				m.stack.DrainThunkUpdates(clos)
				clos = runtime.Closure{Body: n.Value, Env: env}
				continue
			}

		case term.ContractWithDefault:
			if m.enrichedStrict {
				clos = runtime.Closure{Body: term.Assume{Ty: n.Ty, Label: n.Label, Body: n.Value}, Env: env}
				continue
			}

		case term.Contract:
			if m.enrichedStrict {
				return nil, errors.Other("Contract cannot be evaluated: access to an undefined field bearing a contract", n.Pos())
			}

		case term.ResolvedImport:
			body, ok := m.resolver.Get(n.FileID)
			if !ok {
				return nil, errors.Internal("resolved import not found in resolver", n.Pos())
			}
			clos = runtime.Closure{Body: body, Env: env}
			continue

		case term.Import:
			return nil, errors.Internal("unresolved import: imports must be resolved before evaluation", n.Pos())
		}

		// The current term is a WHNF.
		if m.stack.IsTopThunkUpdate() {
			m.stack.DrainThunkUpdates(clos)
			continue
		}
		if m.stack.IsTopOpCont() {
			next, result, err := m.continuateOperation(clos)
			if err != nil {
				if ee, ok := err.(*errors.EvalError); ok {
					return nil, ee.WithCallStack(m.callStack.Snapshot())
				}
				return nil, err
			}
			if next != nil {
				clos = *next
				continue
			}
			return result, nil
		}
		if m.stack.CountArgs() > 0 {
			argClos, pos, _ := m.stack.PopArg()
			return nil, errors.NotAFunc(clos.Body, argClos.Body, pos)
		}
		return clos.Body, nil
	}
}

// wireRecRecord builds the recursive environment a RecRecord's fields are
// wired into and rewrites the node to an ordinary Record whose field
// terms are unchanged: the share-normal-form transform guarantees every
// non-constant field is already a generated variable bound, in env, to a
// thunk of its own (§4.3), so wiring only needs to extend that existing
// thunk's environment with rec_env (§4.4) rather than mint a fresh one —
// forcing the field later and forcing the generated variable elsewhere
// share the same single update site, exactly as a sibling reference
// requires. The resulting Record closes over env, not rec_env: every
// field term that survives is either a constant (ignores its
// environment) or a Var already bound in env, now resolving its
// siblings through the extension.
func (m *Machine) wireRecRecord(n term.RecRecord, env *runtime.Environment) (term.Term, *runtime.Environment, error) {
	recEnv := env.Clone()
	fields := ident.NewMap[term.Term]()

	var wireErr error
	n.Fields.Range(func(id ident.Ident, v term.Term) bool {
		th, err := m.recFieldThunk(v, env, recEnv)
		if err != nil {
			wireErr = err
			return false
		}
		recEnv.MutateInPlace(id, runtime.Binding{Thunk: th, Kind: term.KindRecord})
		fields.Set(id, v)
		return true
	})
	if wireErr != nil {
		return nil, nil, wireErr
	}

	for _, df := range n.DynFields {
		nameVal, err := m.Run(runtime.Closure{Body: df.Name, Env: recEnv})
		if err != nil {
			return nil, nil, err
		}
		nameStr, ok := nameVal.(term.StrTerm)
		if !ok {
			return nil, nil, errors.Other("record field name did not evaluate to a string", df.Name.Pos())
		}
		id := ident.New(nameStr.Value)
		th, err := m.recFieldThunk(df.Value, env, recEnv)
		if err != nil {
			return nil, nil, err
		}
		recEnv.MutateInPlace(id, runtime.Binding{Thunk: th, Kind: term.KindRecord})
		fields.Set(id, df.Value)
	}

	rec := term.Record{Fields: fields, Attrs: n.Attrs}
	return term.WithPos(rec, n.Pos()), env, nil
}

// recFieldThunk resolves the thunk a RecRecord field's right-hand side v
// should be bound to in rec_env. A generated variable (the share-normal-
// form transform's guarantee for every non-constant field) is already
// bound to a thunk in env; that thunk is reused and its environment
// extended with rec_env in place, aliasing it under the field's own name
// — the one case this evaluator creates two strong holders for the same
// thunk. Anything else (a constant, per the transform's guarantee, or an
// arbitrary expression if that guarantee was bypassed) gets a fresh
// thunk closed over rec_env, so a sibling reference embedded directly
// still resolves.
func (m *Machine) recFieldThunk(v term.Term, env, recEnv *runtime.Environment) (*runtime.Thunk, error) {
	if gv, ok := v.(term.Var); ok {
		binding, ok := env.Get(gv.ID)
		if !ok {
			return nil, errors.UnboundIdentifier(gv.ID, v.Pos())
		}
		binding.Thunk.ExtendEnv(recEnv)
		binding.Thunk.IncRef()
		return binding.Thunk, nil
	}
	return runtime.NewRevertibleThunk(runtime.Closure{Body: v, Env: recEnv}), nil
}

// stepChunks folds leading literal chunks of chunks into acc and, on
// reaching the first expression chunk, returns a closure to evaluate next
// (pushing a ContStrChunks continuation for the rest) — or, if no
// expression chunks remain, the final assembled string term directly
//.
func (m *Machine) stepChunks(chunks []term.Chunk, acc string, env *runtime.Environment, pos term.Position) (*runtime.Closure, term.Term) {
	for i, c := range chunks {
		if !c.IsExpr() {
			acc += c.Literal
			continue
		}
		m.stack.PushOpCont(runtime.OpCont{
			Kind:   runtime.ContStrChunks,
			Chunks: chunks[i+1:],
			Acc:    acc,
			Env:    env,
		}, m.callStack.Len(), pos)
		return &runtime.Closure{Body: c.Expr, Env: env}, nil
	}
	return nil, term.NewStr(pos, acc)
}

// stringifyChunk coerces a forced interpolated-expression value to the
// string spliced into the surrounding template; only strings are valid
// here.
func stringifyChunk(t term.Term) (string, error) {
	s, ok := t.(term.StrTerm)
	if !ok {
		return "", errors.Other("string interpolation: interpolated expression did not evaluate to a string", t.Pos())
	}
	return s.Value, nil
}

func (m *Machine) continuateOperation(clos runtime.Closure) (*runtime.Closure, term.Term, error) {
	cont, pos, callLen, _ := m.stack.PopOpCont()
	m.callStack.TruncateTo(callLen)

	switch cont.Kind {
	case runtime.ContOp1:
		result, err := m.registry.Unary(cont.Op, cont.ID, pos, clos.Body)
		if err != nil {
			return nil, nil, err
		}
		return &runtime.Closure{Body: result, Env: clos.Env}, nil, nil

	case runtime.ContOp2First:
		m.stack.PushOpCont(runtime.OpCont{
			Kind:       runtime.ContOp2Second,
			Op:         cont.Op,
			FirstVal:   clos.Body,
			PrevStrict: cont.PrevStrict,
		}, m.callStack.Len(), pos)
		return &cont.Other, nil, nil

	case runtime.ContOp2Second:
		result, err := m.registry.Binary(cont.Op, pos, cont.FirstVal, clos.Body)
		m.enrichedStrict = cont.PrevStrict
		if err != nil {
			return nil, nil, err
		}
		return &runtime.Closure{Body: result, Env: clos.Env}, nil, nil

	case runtime.ContOpN:
		if cont.Op == "ite" {
			condVal, ok := clos.Body.(term.BoolTerm)
			if !ok {
				return nil, nil, errors.Other("ite: condition is not a boolean", pos)
			}
			branch := cont.NArgs[1]
			if condVal.Value {
				branch = cont.NArgs[0]
			}
			return &runtime.Closure{Body: branch, Env: cont.Env}, nil, nil
		}
		done := append(append([]term.Term{}, cont.NDone...), clos.Body)
		if len(cont.NArgs) == 0 {
			result, err := m.registry.Nary(cont.Op, pos, done)
			if err != nil {
				return nil, nil, err
			}
			return &runtime.Closure{Body: result, Env: clos.Env}, nil, nil
		}
		next := cont.NArgs[0]
		rest := cont.NArgs[1:]
		m.stack.PushOpCont(runtime.OpCont{
			Kind:  runtime.ContOpN,
			Op:    cont.Op,
			NArgs: rest,
			NDone: done,
			Env:   cont.Env,
		}, m.callStack.Len(), pos)
		return &runtime.Closure{Body: next, Env: cont.Env}, nil, nil

	case runtime.ContStrChunks:
		piece, err := stringifyChunk(clos.Body)
		if err != nil {
			return nil, nil, err
		}
		next, done := m.stepChunks(cont.Chunks, cont.Acc+piece, cont.Env, pos)
		if done != nil {
			return &runtime.Closure{Body: done, Env: cont.Env}, nil, nil
		}
		return next, nil, nil
	}

	return nil, nil, errors.Internal("unreachable operator continuation kind", pos)
}

