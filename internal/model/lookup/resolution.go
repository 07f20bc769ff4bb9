package lookup

// Outcome 描述一次查找走的是哪条路径。
type Outcome int

const (
	// Unresolved 既没有命中，也没有可用的声明式回退。
	Unresolved Outcome = iota
	// Found 直接命中请求的键。
	Found
	// FallbackUsed 请求的键不存在，使用了声明的回退值。
	FallbackUsed
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case FallbackUsed:
		return "fallback"
	default:
		return "unresolved"
	}
}

// Resolution 携带查找结果以及命中路径，便于调用方和测试区分三种情况。
type Resolution[T any] struct {
	Value   T
	Outcome Outcome
}

// NewFound wraps a direct hit.
func NewFound[T any](v T) Resolution[T] {
	return Resolution[T]{Value: v, Outcome: Found}
}

// NewFallback wraps a value taken from the declared fallback.
func NewFallback[T any](v T) Resolution[T] {
	return Resolution[T]{Value: v, Outcome: FallbackUsed}
}

// NewUnresolved returns an empty resolution.
func NewUnresolved[T any]() Resolution[T] {
	return Resolution[T]{}
}

// Ok reports whether a value (direct or fallback) is available.
func (r Resolution[T]) Ok() bool {
	return r.Outcome != Unresolved
}

// OrElse returns the resolved value, or def when unresolved.
func (r Resolution[T]) OrElse(def T) T {
	if r.Outcome == Unresolved {
		return def
	}
	return r.Value
}
