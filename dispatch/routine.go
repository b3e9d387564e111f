// Package dispatch decodes serialized callback invocations and calls the
// native targets they name.
//
// A routine owns one callback kind. It reads the resource id and the
// target pointer, resolves the pointer to a Go func of the kind's
// signature, decodes the arguments left to right and calls the target
// exactly once. Nothing is called when any step fails.
package dispatch

import (
	"fmt"

	"github.com/chazu/callwire/callback"
	"github.com/chazu/callwire/native"
	"github.com/chazu/callwire/signature"
	"github.com/chazu/callwire/wire"
)

// Env is what routines need besides the buffer.
type Env struct {
	Symbols *native.Symbols

	// Callers fills "use default" slots of continuations.
	Callers callback.CallerRegistry

	// Records decodes record parameters of data driven routines.
	Records *signature.Records

	// PointerSize is the width of pointers on the wire; zero means
	// wire.DefaultPointerSize.
	PointerSize int
}

func (env *Env) codec() *signature.Codec {
	return &signature.Codec{Records: env.Records, Callers: env.Callers}
}

// AsyncRoutine decodes and invokes one asynchronous callback.
type AsyncRoutine func(env *Env, r *wire.Reader) error

// SyncRoutine decodes and invokes one synchronous callback. vm is passed
// to the target untouched.
type SyncRoutine func(env *Env, vm callback.VMContext, r *wire.Reader) error

// Routine is the pair of decode-and-invoke routines for one kind.
type Routine struct {
	Kind  callback.Kind
	Name  string
	Async AsyncRoutine
	Sync  SyncRoutine
}

// Arg decodes one argument.
type Arg[T any] func(env *Env, r *wire.Reader) (T, error)

// Plain adapts a wire decoder.
func Plain[T any](dec wire.Decoder[T]) Arg[T] {
	return func(_ *Env, r *wire.Reader) (T, error) {
		return dec(r)
	}
}

// Continuation decodes a callback resource of kind, resolving default
// callers through env.Callers.
func Continuation(kind callback.Kind) Arg[callback.Resource] {
	return func(env *Env, r *wire.Reader) (callback.Resource, error) {
		return callback.ReadResource(r, kind, env.Callers)
	}
}

// Value decodes an argument of type t through the signature codec. Use it
// for records and nested composites.
func Value(t *signature.Type) Arg[any] {
	return func(env *Env, r *wire.Reader) (any, error) {
		return env.codec().Decode(r, t)
	}
}

// readTarget reads the resource id and the target pointer, then casts the
// pointer to F.
func readTarget[F any](env *Env, r *wire.Reader) (int32, F, error) {
	var zero F
	id, err := r.ReadCallbackResource()
	if err != nil {
		return 0, zero, err
	}
	p, err := r.ReadPointer()
	if err != nil {
		return 0, zero, err
	}
	fn, err := native.Resolve[F](env.Symbols, p)
	if err != nil {
		return 0, zero, fmt.Errorf("resource %d: %w", id, err)
	}
	return id, fn, nil
}

func argError(i int, err error) error {
	return fmt.Errorf("arg %d: %w", i, err)
}

// Func0 builds the routines for a signature with no parameters.
func Func0(kind callback.Kind, name string) Routine {
	return Routine{
		Kind: kind,
		Name: name,
		Async: func(env *Env, r *wire.Reader) error {
			id, fn, err := readTarget[func(int32)](env, r)
			if err != nil {
				return err
			}
			fn(id)
			return nil
		},
		Sync: func(env *Env, vm callback.VMContext, r *wire.Reader) error {
			id, fn, err := readTarget[func(callback.VMContext, int32)](env, r)
			if err != nil {
				return err
			}
			fn(vm, id)
			return nil
		},
	}
}

// Func1 builds the routines for a one parameter signature.
func Func1[A any](kind callback.Kind, name string, a Arg[A]) Routine {
	return Routine{
		Kind: kind,
		Name: name,
		Async: func(env *Env, r *wire.Reader) error {
			id, fn, err := readTarget[func(int32, A)](env, r)
			if err != nil {
				return err
			}
			va, err := a(env, r)
			if err != nil {
				return argError(0, err)
			}
			fn(id, va)
			return nil
		},
		Sync: func(env *Env, vm callback.VMContext, r *wire.Reader) error {
			id, fn, err := readTarget[func(callback.VMContext, int32, A)](env, r)
			if err != nil {
				return err
			}
			va, err := a(env, r)
			if err != nil {
				return argError(0, err)
			}
			fn(vm, id, va)
			return nil
		},
	}
}

// Func2 builds the routines for a two parameter signature.
func Func2[A, B any](kind callback.Kind, name string, a Arg[A], b Arg[B]) Routine {
	decode := func(env *Env, r *wire.Reader) (va A, vb B, err error) {
		if va, err = a(env, r); err != nil {
			return va, vb, argError(0, err)
		}
		if vb, err = b(env, r); err != nil {
			return va, vb, argError(1, err)
		}
		return va, vb, nil
	}
	return Routine{
		Kind: kind,
		Name: name,
		Async: func(env *Env, r *wire.Reader) error {
			id, fn, err := readTarget[func(int32, A, B)](env, r)
			if err != nil {
				return err
			}
			va, vb, err := decode(env, r)
			if err != nil {
				return err
			}
			fn(id, va, vb)
			return nil
		},
		Sync: func(env *Env, vm callback.VMContext, r *wire.Reader) error {
			id, fn, err := readTarget[func(callback.VMContext, int32, A, B)](env, r)
			if err != nil {
				return err
			}
			va, vb, err := decode(env, r)
			if err != nil {
				return err
			}
			fn(vm, id, va, vb)
			return nil
		},
	}
}

// Func3 builds the routines for a three parameter signature.
func Func3[A, B, C any](kind callback.Kind, name string, a Arg[A], b Arg[B], c Arg[C]) Routine {
	decode := func(env *Env, r *wire.Reader) (va A, vb B, vc C, err error) {
		if va, err = a(env, r); err != nil {
			return va, vb, vc, argError(0, err)
		}
		if vb, err = b(env, r); err != nil {
			return va, vb, vc, argError(1, err)
		}
		if vc, err = c(env, r); err != nil {
			return va, vb, vc, argError(2, err)
		}
		return va, vb, vc, nil
	}
	return Routine{
		Kind: kind,
		Name: name,
		Async: func(env *Env, r *wire.Reader) error {
			id, fn, err := readTarget[func(int32, A, B, C)](env, r)
			if err != nil {
				return err
			}
			va, vb, vc, err := decode(env, r)
			if err != nil {
				return err
			}
			fn(id, va, vb, vc)
			return nil
		},
		Sync: func(env *Env, vm callback.VMContext, r *wire.Reader) error {
			id, fn, err := readTarget[func(callback.VMContext, int32, A, B, C)](env, r)
			if err != nil {
				return err
			}
			va, vb, vc, err := decode(env, r)
			if err != nil {
				return err
			}
			fn(vm, id, va, vb, vc)
			return nil
		},
	}
}

// Func4 builds the routines for a four parameter signature. Longer
// signatures go through FromSignature.
func Func4[A, B, C, D any](kind callback.Kind, name string, a Arg[A], b Arg[B], c Arg[C], d Arg[D]) Routine {
	decode := func(env *Env, r *wire.Reader) (va A, vb B, vc C, vd D, err error) {
		if va, err = a(env, r); err != nil {
			return va, vb, vc, vd, argError(0, err)
		}
		if vb, err = b(env, r); err != nil {
			return va, vb, vc, vd, argError(1, err)
		}
		if vc, err = c(env, r); err != nil {
			return va, vb, vc, vd, argError(2, err)
		}
		if vd, err = d(env, r); err != nil {
			return va, vb, vc, vd, argError(3, err)
		}
		return va, vb, vc, vd, nil
	}
	return Routine{
		Kind: kind,
		Name: name,
		Async: func(env *Env, r *wire.Reader) error {
			id, fn, err := readTarget[func(int32, A, B, C, D)](env, r)
			if err != nil {
				return err
			}
			va, vb, vc, vd, err := decode(env, r)
			if err != nil {
				return err
			}
			fn(id, va, vb, vc, vd)
			return nil
		},
		Sync: func(env *Env, vm callback.VMContext, r *wire.Reader) error {
			id, fn, err := readTarget[func(callback.VMContext, int32, A, B, C, D)](env, r)
			if err != nil {
				return err
			}
			va, vb, vc, vd, err := decode(env, r)
			if err != nil {
				return err
			}
			fn(vm, id, va, vb, vc, vd)
			return nil
		},
	}
}
