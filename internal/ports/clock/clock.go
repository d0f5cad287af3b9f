package clock

import "time"

// Clock es la única fuente de "ahora" para el dominio.
type Clock interface {
	Now() time.Time
}

// System devuelve la hora del sistema en Location (Local si es nil).
type System struct {
	Location *time.Location
}

func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now()
	}
	return time.Now().In(s.Location)
}

// Func adapta una función a Clock (tests).
type Func func() time.Time

func (f Func) Now() time.Time { return f() }
