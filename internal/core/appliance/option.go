package appliance

// Option is a value that may be absent. Entity state is optional: a property
// that was never received has no state at all, which is not the same as "".
type Option[T any] struct {
	value T
	ok    bool
}

func Some[T any](v T) Option[T] {
	return Option[T]{value: v, ok: true}
}

func None[T any]() Option[T] {
	return Option[T]{}
}

func (o Option[T]) Get() (T, bool) {
	return o.value, o.ok
}

func (o Option[T]) IsSome() bool {
	return o.ok
}

func (o Option[T]) OrElse(def T) T {
	if o.ok {
		return o.value
	}
	return def
}

// MapOption applies fn to a present value. A failing fn yields None.
func MapOption[T, U any](o Option[T], fn func(T) (U, error)) Option[U] {
	if !o.ok {
		return None[U]()
	}
	u, err := fn(o.value)
	if err != nil {
		return None[U]()
	}
	return Some(u)
}
