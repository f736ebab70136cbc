package player

import (
	"reflect"

	"github.com/sharetube/embed/internal/broker"
)

// Component is anything that renders into a root element. Element may return
// nil, typed or not, while nothing is mounted.
type Component interface {
	Element() broker.Element
}

// Target refers to the element a player is mounted on. The zero value refers
// to nothing.
type Target struct {
	element   broker.Element
	component Component
}

func ElementTarget(el broker.Element) Target {
	return Target{element: el}
}

func ComponentTarget(c Component) Target {
	return Target{component: c}
}

// Resolve returns the element t refers to. ok is false when there is none
// yet, which is a normal state before mounting.
func Resolve(t Target) (el broker.Element, ok bool) {
	switch {
	case t.component != nil:
		el = t.component.Element()
	case t.element != nil:
		el = t.element
	}

	if isNil(el) {
		return nil, false
	}
	return el, true
}

func isNil(el broker.Element) bool {
	if el == nil {
		return true
	}

	v := reflect.ValueOf(el)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
